// session/session.go
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Common errors
var (
	ErrNotFound = errors.New("session: not found")
	ErrExpired  = errors.New("session: expired")
)

// Session is one visitor's server-side state. Values are stored as JSON so
// that every Store backend round-trips them identically.
type Session struct {
	mu        sync.RWMutex
	id        string
	data      map[string]json.RawMessage
	isNew     bool
	createdAt time.Time
	expiresAt time.Time
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Put stores v under key as JSON.
func (s *Session) Put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = b
	return nil
}

// Get decodes the value stored under key into v. It reports false, with a
// nil error, when the key is absent.
func (s *Session) Get(key string, v any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

// Store is a session storage backend.
type Store interface {
	// Load returns ErrNotFound for unknown IDs and ErrExpired for stale ones.
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, data *Data) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Data is the serialized form of a Session.
type Data struct {
	ID        string                     `json:"id"`
	Values    map[string]json.RawMessage `json:"values"`
	ExpiresAt time.Time                  `json:"expires_at"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

func (d *Data) clone() *Data {
	values := make(map[string]json.RawMessage, len(d.Values))
	for k, v := range d.Values {
		values[k] = append(json.RawMessage(nil), v...)
	}
	cp := *d
	cp.Values = values
	return &cp
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Config configures the Manager's cookie and lifetime.
type Config struct {
	CookieName string        // default "session_id"
	MaxAge     time.Duration // default 24h
	Path       string        // default "/"
	Secure     bool
	SameSite   http.SameSite // default Lax

	// IDGenerator defaults to 32 random bytes, base64url encoded.
	IDGenerator func() (string, error)
}

// Manager loads and saves sessions identified by a cookie.
type Manager struct {
	store  Store
	config Config
	now    func() time.Time
}

// NewManager creates a Manager, filling zero Config fields with defaults.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = generateID
	}
	return &Manager{store: store, config: cfg, now: time.Now}
}

// Get returns the request's session, or a fresh one when the cookie is
// missing, unknown or expired. Store failures other than not-found/expired
// are returned.
func (m *Manager) Get(r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.config.CookieName); err == nil && c.Value != "" {
		data, err := m.store.Load(r.Context(), c.Value)
		switch {
		case err == nil:
			return &Session{
				id:        data.ID,
				data:      data.Values,
				createdAt: data.CreatedAt,
				expiresAt: data.ExpiresAt,
			}, nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired):
		default:
			return nil, fmt.Errorf("session: load: %w", err)
		}
	}
	return m.New()
}

// New creates an unsaved session.
func (m *Manager) New() (*Session, error) {
	id, err := m.config.IDGenerator()
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}
	now := m.now()
	return &Session{
		id:        id,
		data:      make(map[string]json.RawMessage),
		isNew:     true,
		createdAt: now,
		expiresAt: now.Add(m.config.MaxAge),
	}, nil
}

// Persist writes the session to the store without touching any cookie. It is
// what Save uses, and what long-lived connections use after their cookie
// has already been sent.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	s.mu.Lock()
	now := m.now()
	s.expiresAt = now.Add(m.config.MaxAge)
	data := (&Data{
		ID:        s.id,
		Values:    s.data,
		ExpiresAt: s.expiresAt,
		CreatedAt: s.createdAt,
		UpdatedAt: now,
	}).clone()
	s.mu.Unlock()

	if err := m.store.Save(ctx, data); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Save persists the session and (re)sets its cookie. Each save slides the
// expiry forward by MaxAge.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.Persist(r.Context(), s); err != nil {
		return err
	}
	m.SetCookie(w, s)
	return nil
}

// Destroy deletes the session from the store and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Delete(r.Context(), s.id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     m.config.Path,
		MaxAge:   -1,
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: m.config.SameSite,
	})
	return nil
}

// SetCookie writes the session cookie header.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    s.id,
		Path:     m.config.Path,
		MaxAge:   int(m.config.MaxAge.Seconds()),
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: m.config.SameSite,
	})
}

// Ping reports whether the store is reachable. Stores without a Ping method
// are always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
