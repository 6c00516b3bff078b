package validate

import "strings"

// Required rejects values that are empty after trimming surrounding
// whitespace. A whitespace-only value counts as missing.
func Required() Rule {
	return RuleFunc{
		RuleName: "required",
		Fn: func(value string) Outcome {
			if strings.TrimSpace(value) == "" {
				return Reject(ReasonMissing)
			}
			return Accept()
		},
	}
}

// Custom wraps a predicate as a rule that abstains on empty input and fails
// with reason when ok returns false. ok receives the trimmed value.
func Custom(name string, reason Reason, ok func(trimmed string) bool) Rule {
	return RuleFunc{
		RuleName: name,
		Fn: func(value string) Outcome {
			s := strings.TrimSpace(value)
			if s == "" {
				return Abstain()
			}
			if ok(s) {
				return Accept()
			}
			return Reject(reason)
		},
	}
}
