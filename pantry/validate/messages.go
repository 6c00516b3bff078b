package validate

// messages maps each reason to its user-facing text. Messages are English
// only.
var messages = map[Reason]string{
	ReasonMissing:        "This field is required.",
	ReasonMalformedEmail: "Enter a valid email address.",
}

// Message returns the display text for r, or "" for ReasonNone and unknown
// reasons.
func Message(r Reason) string {
	return messages[r]
}

// Message returns the display text for the field's reason, or "" when the
// field is valid.
func (s FieldState) Message() string {
	if s.Valid {
		return ""
	}
	return Message(s.Reason)
}
