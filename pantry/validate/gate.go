package validate

// Submission is a submit attempt whose default effect can be aborted.
type Submission interface {
	PreventDefault()
}

// Decision is what Gate decided for one submit attempt.
type Decision struct {
	// Allowed is true when the form was valid and the default action was
	// left to proceed.
	Allowed bool
	// Invalid lists the fields that blocked the submission, in declaration
	// order. It is empty when Allowed is true.
	Invalid []string
}

// Gate enforces that an invalid form is never submitted silently.
//
// When f is valid, Gate touches nothing and does not call PreventDefault.
// When f is invalid, every bound field is marked touched first, so that
// fields the user never focused display their errors, and only then is
// sub.PreventDefault called. Calling Gate again on an unchanged invalid form
// leaves the same touched flags.
//
// sub may be nil when the caller only needs the Decision.
func Gate(f *Form, sub Submission) Decision {
	if f.Valid() {
		return Decision{Allowed: true}
	}

	invalid := f.Invalid()
	f.MarkAllTouched()
	if sub != nil {
		sub.PreventDefault()
	}
	return Decision{Allowed: false, Invalid: invalid}
}

// Event is a ready-made Submission that records whether it was aborted.
type Event struct {
	prevented bool
}

// PreventDefault implements Submission.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }
