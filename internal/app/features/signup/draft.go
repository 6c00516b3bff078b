// Package signup serves the user registration form: the HTML page, its
// submit gate and the live per-field validation endpoints.
package signup

import (
	"net/url"

	"golang.org/x/text/unicode/norm"

	"github.com/dalemusser/signup/pantry/validate"
)

// Field names, in the order they are bound and rendered.
const (
	FieldName     = "name"
	FieldNickname = "nickname"
	FieldEmail    = "email"
	FieldPassword = "password"
)

const showPasswordParam = "show_password"

// NewForm binds the registration fields. Every field is required; email must
// also be well formed. The password is secret and never leaves the request.
func NewForm() *validate.Form {
	return validate.NewForm().
		Bind(FieldName, validate.Required()).
		Bind(FieldNickname, validate.Required()).
		Bind(FieldEmail, validate.Required(), validate.EmailFormat()).
		BindSecret(FieldPassword, validate.Required())
}

// UserDraft is the in-progress registration. It is never persisted beyond
// the visitor's session.
type UserDraft struct {
	Name         string
	Nickname     string
	Email        string
	Password     string
	ShowPassword bool
}

// Draft is what the session stores between requests.
type Draft struct {
	Form         validate.FormSnapshot `json:"form"`
	ShowPassword bool                  `json:"show_password,omitempty"`
}

// User returns the draft's field values.
func (d Draft) User() UserDraft {
	return UserDraft{
		Name:         d.Form.Values[FieldName],
		Nickname:     d.Form.Values[FieldNickname],
		Email:        d.Form.Values[FieldEmail],
		Password:     d.Form.Values[FieldPassword],
		ShowPassword: d.ShowPassword,
	}
}

// normalize NFC-normalizes text a person typed so that visually identical
// input compares equal. Passwords are kept byte-exact.
func normalize(name, value string) string {
	if name == FieldPassword {
		return value
	}
	return norm.NFC.String(value)
}

// BindDraft copies submitted values into f, touching nothing, and returns
// the show-password toggle. Fields absent from vals become empty.
func BindDraft(f *validate.Form, vals url.Values) (showPassword bool) {
	for _, name := range f.Names() {
		_ = f.Set(name, normalize(name, vals.Get(name)))
	}
	switch vals.Get(showPasswordParam) {
	case "on", "true", "1":
		return true
	}
	return false
}
