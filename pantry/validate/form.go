package validate

import "fmt"

// FieldState is the live validity of one bound field.
type FieldState struct {
	Valid   bool   `json:"valid"`
	Touched bool   `json:"touched"`
	Reason  Reason `json:"reason,omitempty"`
}

// ShowError reports whether the field's error indicator should be displayed:
// the field is invalid and has been touched (by the user or by Gate).
func (s FieldState) ShowError() bool {
	return s.Touched && !s.Valid
}

// field is one entry of a Form.
type field struct {
	name    string
	value   string
	rules   []Rule
	touched bool
	secret  bool
	state   FieldState
}

func (f *field) evaluate() {
	o := Evaluate(f.value, f.rules...)
	f.state = FieldState{
		Valid:   !o.Failed(),
		Touched: f.touched,
		Reason:  o.Reason,
	}
}

// Form is the binding substrate: an ordered, enumerable collection of fields
// keyed by name. Every value change re-evaluates the field it touches, so
// State and Valid are always current.
type Form struct {
	order  []string
	fields map[string]*field
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{fields: make(map[string]*field)}
}

// Bind adds a field with the given rules, evaluated in order. The field
// starts empty and untouched. Binding the same name twice panics.
func (f *Form) Bind(name string, rules ...Rule) *Form {
	if _, dup := f.fields[name]; dup {
		panic(fmt.Sprintf("validate: field %q bound twice", name))
	}
	fl := &field{name: name, rules: append([]Rule(nil), rules...)}
	fl.evaluate()
	f.fields[name] = fl
	f.order = append(f.order, name)
	return f
}

// BindSecret is Bind for a field whose value must never leave the process,
// such as a password. Snapshot records its touched flag but not its value.
func (f *Form) BindSecret(name string, rules ...Rule) *Form {
	f.Bind(name, rules...)
	f.fields[name].secret = true
	return f
}

// Secret reports whether name was bound with BindSecret.
func (f *Form) Secret(name string) bool {
	fl, ok := f.fields[name]
	return ok && fl.secret
}

// Has reports whether name is bound.
func (f *Form) Has(name string) bool {
	_, ok := f.fields[name]
	return ok
}

// Set stores value for the named field and re-evaluates it. Touched is left
// alone; typing does not by itself reveal errors.
func (f *Form) Set(name, value string) error {
	fl, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	fl.value = value
	fl.evaluate()
	return nil
}

// Touch marks the named field as interacted with.
func (f *Form) Touch(name string) error {
	fl, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	fl.touched = true
	fl.state.Touched = true
	return nil
}

// MarkAllTouched sets Touched on every bound field, in declaration order.
// Fields already touched are unaffected.
func (f *Form) MarkAllTouched() {
	f.Each(func(name string, _ FieldState) {
		_ = f.Touch(name)
	})
}

// Value returns the current value of the named field ("" if unbound).
func (f *Form) Value(name string) string {
	if fl, ok := f.fields[name]; ok {
		return fl.value
	}
	return ""
}

// State returns the current state of the named field. Unbound names yield
// the zero FieldState.
func (f *Form) State(name string) FieldState {
	if fl, ok := f.fields[name]; ok {
		return fl.state
	}
	return FieldState{}
}

// Names returns the bound field names in declaration order.
func (f *Form) Names() []string {
	return append([]string(nil), f.order...)
}

// Each calls fn for every bound field in declaration order.
func (f *Form) Each(fn func(name string, st FieldState)) {
	for _, name := range f.order {
		fn(name, f.fields[name].state)
	}
}

// Valid is the form-level aggregate: true iff every bound field is valid.
// A form with no fields is valid.
func (f *Form) Valid() bool {
	for _, name := range f.order {
		if !f.fields[name].state.Valid {
			return false
		}
	}
	return true
}

// Invalid returns the names of invalid fields in declaration order.
func (f *Form) Invalid() []string {
	var out []string
	f.Each(func(name string, st FieldState) {
		if !st.Valid {
			out = append(out, name)
		}
	})
	return out
}

// States returns a copy of every field's state keyed by name.
func (f *Form) States() map[string]FieldState {
	out := make(map[string]FieldState, len(f.order))
	f.Each(func(name string, st FieldState) {
		out[name] = st
	})
	return out
}

// FormSnapshot is the serializable part of a Form: values and touched flags.
// Validity is never stored; it is recomputed on Restore.
type FormSnapshot struct {
	Values  map[string]string `json:"values"`
	Touched map[string]bool   `json:"touched,omitempty"`
}

// Snapshot captures the form's values and touched flags. Secret fields
// contribute only their touched flag.
func (f *Form) Snapshot() FormSnapshot {
	snap := FormSnapshot{
		Values:  make(map[string]string, len(f.order)),
		Touched: make(map[string]bool),
	}
	for _, name := range f.order {
		fl := f.fields[name]
		if !fl.secret {
			snap.Values[name] = fl.value
		}
		if fl.touched {
			snap.Touched[name] = true
		}
	}
	return snap
}

// Restore loads values and touched flags from snap. Names in snap that are
// not bound are ignored; bound fields missing from snap are reset to empty
// and untouched.
func (f *Form) Restore(snap FormSnapshot) {
	for _, name := range f.order {
		fl := f.fields[name]
		fl.value = snap.Values[name]
		fl.touched = snap.Touched[name]
		fl.evaluate()
	}
}
