package signup

import "github.com/dalemusser/signup/pantry/validate"

// fieldView is what the form template needs for one input.
type fieldView struct {
	Name         string
	Label        string
	Type         string
	Autocomplete string
	Value        string
	ShowError    bool
	Message      string
}

// formView is the data for the signup_form page.
type formView struct {
	Fields       []fieldView
	ShowPassword bool
	// Blocked is set when the last submit was refused.
	Blocked bool
	// SubmitPath and ResetPath are the form actions.
	SubmitPath string
	ResetPath  string
	// LivePath and ValidatePath are endpoints for the live validation script.
	LivePath     string
	ValidatePath string
}

// doneView is the data for the signup_done page.
type doneView struct {
	Name     string
	Nickname string
	Email    string
	FormPath string
}

var fieldMeta = map[string]struct{ label, typ, autocomplete string }{
	FieldName:     {"Name", "text", "name"},
	FieldNickname: {"Nickname", "text", "nickname"},
	FieldEmail:    {"Email", "email", "email"},
	FieldPassword: {"Password", "password", "new-password"},
}

func newFormView(f *validate.Form, showPassword, blocked bool, base string) formView {
	v := formView{
		ShowPassword: showPassword,
		Blocked:      blocked,
		SubmitPath:   base,
		ResetPath:    base + "/reset",
		LivePath:     base + "/live",
		ValidatePath: base + "/validate",
	}
	f.Each(func(name string, st validate.FieldState) {
		meta := fieldMeta[name]
		typ := meta.typ
		if name == FieldPassword && showPassword {
			typ = "text"
		}
		value := f.Value(name)
		if f.Secret(name) {
			value = ""
		}
		v.Fields = append(v.Fields, fieldView{
			Name:         name,
			Label:        meta.label,
			Type:         typ,
			Autocomplete: meta.autocomplete,
			Value:        value,
			ShowError:    st.ShowError(),
			Message:      st.Message(),
		})
	})
	return v
}
