package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailFormat_Accepts(t *testing.T) {
	rule := EmailFormat()
	for _, s := range []string{
		"a@b.co",
		"user.name@example.com",
		"first+tag@sub.example.org",
		"  padded@example.com  ",
		"o'brien@example.ie",
		"UPPER@EXAMPLE.COM",
	} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, Accept(), rule.Check(s))
		})
	}
}

func TestEmailFormat_AcceptsIDNDomain(t *testing.T) {
	assert.True(t, EmailValid("hans@münchen.de"))
	assert.True(t, EmailValid("user@bücher.example"))
}

func TestEmailFormat_RejectsMalformed(t *testing.T) {
	rule := EmailFormat()
	tests := []struct {
		name  string
		value string
	}{
		{"no at", "not-an-email"},
		{"no domain dot", "user@localhost"},
		{"empty local", "@example.com"},
		{"empty domain", "user@"},
		{"two ats", "a@b@example.com"},
		{"interior space", "john smith@example.com"},
		{"space in domain", "john@exa mple.com"},
		{"tab", "john@example\t.com"},
		{"trailing dot", "john@example.com."},
		{"double dot domain", "john@example..com"},
		{"leading hyphen label", "john@-example.com"},
		{"trailing hyphen label", "john@example-.com"},
		{"quoted local", `"john"@example.com`},
		{"local too long", strings.Repeat("a", 65) + "@example.com"},
		{"label too long", "a@" + strings.Repeat("b", 64) + ".com"},
		{"address too long", "a@" + strings.Repeat("abcdefghi.", 26) + "com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Reject(ReasonMalformedEmail), rule.Check(tt.value))
		})
	}
}

// Any non-empty string without '@' is malformed.
func TestEmailFormat_NoAtIsAlwaysMalformed(t *testing.T) {
	rule := EmailFormat()
	for _, s := range []string{"x", "example.com", "a.b.c", "!!", "ü", "user at example dot com", "  x  "} {
		o := rule.Check(s)
		assert.Equal(t, Fail, o.Verdict, s)
		assert.Equal(t, ReasonMalformedEmail, o.Reason, s)
	}
}

func TestEmailFormat_EmptyIsNoOpinion(t *testing.T) {
	rule := EmailFormat()
	for _, s := range []string{"", " ", "\t\n"} {
		o := rule.Check(s)
		assert.Equal(t, NoOpinion, o.Verdict, "%q", s)
		assert.NotEqual(t, ReasonMalformedEmail, o.Reason)
	}
}
