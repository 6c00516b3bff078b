// pantry/validate/email.go
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// EmailPatternVersion identifies the email-shape contract below. Any change to
// EmailPattern, the IDNA step, or the length limits changes which addresses
// are accepted and must bump this value.
const EmailPatternVersion = "2"

// EmailPattern is matched against the trimmed address after the domain has
// been converted to its ASCII (punycode) form.
//
//   - local part: one or more of A-Z a-z 0-9 and .!#$%&'*+/=?^_`{|}~-
//     (plus-addressing is accepted; quoted local parts are not)
//   - a single literal '@'
//   - domain: at least two dot-separated labels; each label is 1-63 of
//     A-Z a-z 0-9 and '-', not starting or ending with '-'
var EmailPattern = regexp.MustCompile(
	"^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		"@" +
		"[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?" +
		"(?:\\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)+$",
)

const (
	maxEmailLen = 254
	maxLocalLen = 64
)

// EmailFormat is the email-shape rule. It abstains on empty input so that an
// empty field only ever reports ReasonMissing (from Required), and otherwise
// fails with ReasonMalformedEmail when EmailValid rejects the value.
func EmailFormat() Rule {
	return Custom("email", ReasonMalformedEmail, EmailValid)
}

// EmailValid reports whether s is a syntactically well-formed address under
// EmailPattern. Surrounding whitespace is ignored; interior whitespace,
// zero or several '@', and domains without a dot are rejected. Unicode
// domains are accepted when they convert cleanly to IDNA ASCII form.
func EmailValid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	if strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" || len(local) > maxLocalLen {
		return false
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return false
	}
	addr := local + "@" + ascii
	if len(addr) > maxEmailLen {
		return false
	}
	return EmailPattern.MatchString(addr)
}
