package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignupForm() *Form {
	return NewForm().
		Bind("name", Required()).
		Bind("nickname", Required()).
		Bind("email", Required(), EmailFormat()).
		Bind("password", Required())
}

func TestForm_EmptyFieldsAreMissing(t *testing.T) {
	f := newSignupForm()

	assert.False(t, f.Valid())
	f.Each(func(name string, st FieldState) {
		assert.False(t, st.Valid, name)
		assert.False(t, st.Touched, name)
		assert.Equal(t, ReasonMissing, st.Reason, name)
	})
}

func TestForm_FirstFailingRuleWins(t *testing.T) {
	f := newSignupForm()

	require.NoError(t, f.Set("email", ""))
	assert.Equal(t, ReasonMissing, f.State("email").Reason)

	require.NoError(t, f.Set("email", "   "))
	assert.Equal(t, ReasonMissing, f.State("email").Reason)

	require.NoError(t, f.Set("email", "nope"))
	assert.Equal(t, ReasonMalformedEmail, f.State("email").Reason)

	require.NoError(t, f.Set("email", "ann@example.com"))
	assert.Equal(t, FieldState{Valid: true}, f.State("email"))
}

func TestForm_ValidIffEveryFieldValid(t *testing.T) {
	f := newSignupForm()
	values := map[string]string{
		"name":     "Ann",
		"nickname": "a",
		"email":    "ann@example.com",
		"password": "secret1",
	}
	for _, name := range f.Names() {
		assert.False(t, f.Valid(), "form valid before %s was set", name)
		require.NoError(t, f.Set(name, values[name]))
	}
	assert.True(t, f.Valid())
	assert.Empty(t, f.Invalid())

	require.NoError(t, f.Set("nickname", ""))
	assert.False(t, f.Valid())
	assert.Equal(t, []string{"nickname"}, f.Invalid())
}

func TestForm_SetDoesNotTouch(t *testing.T) {
	f := newSignupForm()
	require.NoError(t, f.Set("name", "x"))
	assert.False(t, f.State("name").Touched)

	require.NoError(t, f.Touch("name"))
	require.NoError(t, f.Set("name", ""))
	st := f.State("name")
	assert.True(t, st.Touched)
	assert.True(t, st.ShowError())
	assert.Equal(t, "This field is required.", st.Message())
}

func TestForm_UnknownField(t *testing.T) {
	f := newSignupForm()
	assert.True(t, errors.Is(f.Set("age", "3"), ErrUnknownField))
	assert.True(t, errors.Is(f.Touch("age"), ErrUnknownField))
	assert.Equal(t, FieldState{}, f.State("age"))
	assert.False(t, f.Has("age"))
}

func TestForm_BindTwicePanics(t *testing.T) {
	f := NewForm().Bind("name", Required())
	assert.Panics(t, func() { f.Bind("name") })
}

func TestForm_EmptyFormIsValid(t *testing.T) {
	assert.True(t, NewForm().Valid())
}

func TestForm_NamesKeepDeclarationOrder(t *testing.T) {
	f := newSignupForm()
	assert.Equal(t, []string{"name", "nickname", "email", "password"}, f.Names())

	names := f.Names()
	names[0] = "mutated"
	assert.Equal(t, "name", f.Names()[0])
}

func TestForm_SnapshotRestore(t *testing.T) {
	f := newSignupForm()
	require.NoError(t, f.Set("name", "Ann"))
	require.NoError(t, f.Set("email", "bad"))
	require.NoError(t, f.Touch("email"))

	snap := f.Snapshot()
	assert.Equal(t, "Ann", snap.Values["name"])
	assert.Equal(t, map[string]bool{"email": true}, snap.Touched)

	g := newSignupForm()
	g.Restore(snap)
	assert.Equal(t, f.States(), g.States())
	assert.Equal(t, "bad", g.Value("email"))

	// Fields absent from the snapshot come back empty and untouched.
	g.Restore(FormSnapshot{Values: map[string]string{"name": "Bo", "extra": "x"}})
	assert.Equal(t, "Bo", g.Value("name"))
	assert.Equal(t, FieldState{Reason: ReasonMissing}, g.State("email"))
}

func TestForm_SecretValueStaysOutOfSnapshot(t *testing.T) {
	f := NewForm().
		Bind("email", Required()).
		BindSecret("password", Required())
	require.NoError(t, f.Set("password", "hunter2-secret"))
	require.NoError(t, f.Touch("password"))

	assert.True(t, f.Secret("password"))
	assert.False(t, f.Secret("email"))
	assert.False(t, f.Secret("unbound"))
	assert.True(t, f.State("password").Valid)

	snap := f.Snapshot()
	_, stored := snap.Values["password"]
	assert.False(t, stored, "secret value must not be captured")
	assert.True(t, snap.Touched["password"])

	// Restored, the secret is blank but still touched, so its error shows.
	g := NewForm().
		Bind("email", Required()).
		BindSecret("password", Required())
	g.Restore(snap)
	assert.Equal(t, "", g.Value("password"))
	assert.Equal(t, FieldState{Touched: true, Reason: ReasonMissing}, g.State("password"))
	assert.True(t, g.State("password").ShowError())
}

func TestEvaluate_NoRulesPasses(t *testing.T) {
	assert.Equal(t, Accept(), Evaluate("anything"))
	assert.Equal(t, Abstain(), RuleFunc{RuleName: "nil"}.Check("x"))
}
