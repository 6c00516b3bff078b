package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draft struct {
	Values  map[string]string `json:"values"`
	Touched map[string]bool   `json:"touched"`
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, Config{CookieName: "sid", MaxAge: time.Hour}), store
}

func TestManager_NewSessionWithoutCookie(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEmpty(t, s.ID())
}

func TestManager_SaveThenLoad(t *testing.T) {
	m, store := newTestManager(t)

	s, err := m.New()
	require.NoError(t, err)
	in := draft{
		Values:  map[string]string{"email": "ada@example.com"},
		Touched: map[string]bool{"email": true},
	}
	require.NoError(t, s.Put("draft", in))

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), s))
	assert.Equal(t, 1, store.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := m.Get(req)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	assert.Equal(t, s.ID(), loaded.ID())

	var out draft
	ok, err := loaded.Get("draft", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestManager_UnknownCookieStartsFresh(t *testing.T) {
	m, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "nope"})
	s, err := m.Get(req)
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEqual(t, "nope", s.ID())
}

type failingStore struct{ MemoryStore }

func (*failingStore) Load(context.Context, string) (*Data, error) {
	return nil, errors.New("connection refused")
}

func TestManager_StoreErrorSurfaces(t *testing.T) {
	m := NewManager(&failingStore{}, Config{CookieName: "sid"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "x"})
	_, err := m.Get(req)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSession_GetMissingKey(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.New()
	require.NoError(t, err)

	var out draft
	ok, err := s.Get("draft", &out)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_Destroy(t *testing.T) {
	m, store := newTestManager(t)

	s, err := m.New()
	require.NoError(t, err)
	require.NoError(t, s.Put("draft", draft{Values: map[string]string{"name": "Ann"}}))
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), s))
	require.Equal(t, 1, store.Len())
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(cookie)
	loaded, err := m.Get(req)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Destroy(rec, req, loaded))
	assert.Equal(t, 0, store.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)

	// The old cookie now yields a fresh, empty session.
	again, err := m.Get(req)
	require.NoError(t, err)
	assert.True(t, again.IsNew())
	ok, err := again.Get("draft", &draft{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Data{
		ID:        "a",
		Values:    map[string]json.RawMessage{"k": json.RawMessage(`1`)},
		ExpiresAt: now.Add(time.Minute),
	}))

	_, err := store.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrExpired)

	store.removeExpired()
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Data{
		ID:        "a",
		Values:    map[string]json.RawMessage{"k": json.RawMessage(`1`)},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	d, err := store.Load(ctx, "a")
	require.NoError(t, err)
	d.Values["k"] = json.RawMessage(`2`)

	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(again.Values["k"]))
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	assert.Equal(t, "signup:session:abc", NewRedisStore(nil, "").key("abc"))
	assert.Equal(t, "x:abc", NewRedisStore(nil, "x:").key("abc"))
}

func TestConnectRedis_RequiresAddr(t *testing.T) {
	_, err := ConnectRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestManager_PingMemoryStore(t *testing.T) {
	m, _ := newTestManager(t)
	assert.NoError(t, m.Ping(context.Background()))
}
