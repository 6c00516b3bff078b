// Package validate is the field-validation engine behind HTML forms.
//
// A Form holds an ordered set of named fields. Each field carries an ordered
// list of rules; the field is valid when no rule fails, and the first failing
// rule supplies the reason. The form is valid when every field is valid.
//
// Basic usage:
//
//	f := validate.NewForm()
//	f.Bind("name", validate.Required())
//	f.Bind("email", validate.Required(), validate.EmailFormat())
//
//	f.Set("email", "not-an-email")
//	st := f.State("email") // Valid=false, Reason=malformed-email
//
//	var sub validate.Submission = ...
//	d := validate.Gate(f, sub) // marks every field touched, then aborts
//
// A Form is owned by a single request or connection and is not safe for
// concurrent use.
package validate

import "errors"

// Reason identifies why a field is invalid.
type Reason string

const (
	// ReasonNone is reported for valid fields.
	ReasonNone Reason = ""
	// ReasonMissing is reported when a required value is empty.
	ReasonMissing Reason = "missing"
	// ReasonMalformedEmail is reported when a non-empty value fails the
	// email-shape rule.
	ReasonMalformedEmail Reason = "malformed-email"
)

// ErrUnknownField is returned when an operation names a field that was never bound.
var ErrUnknownField = errors.New("validate: unknown field")

// Verdict is the kind of answer a rule gives.
type Verdict int

const (
	// NoOpinion means the rule defers to the other rules on the field.
	NoOpinion Verdict = iota
	// Pass means the rule accepts the value.
	Pass
	// Fail means the rule rejects the value; Outcome.Reason says why.
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "no-opinion"
	}
}

// Outcome is the result of applying one rule to one value.
type Outcome struct {
	Verdict Verdict
	Reason  Reason
}

// Abstain returns a NoOpinion outcome.
func Abstain() Outcome { return Outcome{Verdict: NoOpinion} }

// Accept returns a Pass outcome.
func Accept() Outcome { return Outcome{Verdict: Pass} }

// Reject returns a Fail outcome carrying r.
func Reject(r Reason) Outcome { return Outcome{Verdict: Fail, Reason: r} }

// Failed reports whether the outcome is a Fail verdict.
func (o Outcome) Failed() bool { return o.Verdict == Fail }

// Rule is a named predicate over a field's current value.
type Rule interface {
	Name() string
	Check(value string) Outcome
}

// RuleFunc adapts a plain function into a Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(value string) Outcome
}

// Name implements Rule.
func (r RuleFunc) Name() string { return r.RuleName }

// Check implements Rule.
func (r RuleFunc) Check(value string) Outcome {
	if r.Fn == nil {
		return Abstain()
	}
	return r.Fn(value)
}

// Evaluate runs rules in order and returns the first Fail outcome. If no rule
// fails, the result is Pass.
func Evaluate(value string, rules ...Rule) Outcome {
	for _, r := range rules {
		if o := r.Check(value); o.Failed() {
			return o
		}
	}
	return Accept()
}
