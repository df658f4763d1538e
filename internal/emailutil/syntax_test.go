package emailutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSyntax(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"simple", "test@example.com", true},
		{"dot in local part", "user.name@example.com", true},
		{"plus tag", "user+tag@example.com", true},
		{"short but valid", "a@b.co", true},
		{"subdomain", "very.long.local.part.name@subdomain.example.com", true},
		{"hyphen in domain", "test@ex-ample.com", true},
		{"special local characters", "!#$%&'*+/=?^_`{|}~-@example.com", true},
		{"numeric labels", "1@2.3", true},

		{"no at sign", "notanemail", false},
		{"two at signs", "test@@example.com", false},
		{"at inside local part", "a@b@example.com", false},
		{"missing local part", "@example.com", false},
		{"missing domain", "test@", false},
		{"missing tld", "test@example", false},
		{"space in local part", "test @example.com", false},
		{"label starts with hyphen", "a@-example.com", false},
		{"label ends with hyphen", "a@example-.com", false},
		{"empty label", "a@example..com", false},
		{"trailing dot", "a@example.com.", false},
		{"leading dot in domain", "a@.example.com", false},
		{"underscore in domain", "a@exa_mple.com", false},
		{"non-ascii local part", "müller@example.com", false},
		{"quoted local part", `"a b"@example.com`, false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, CheckSyntax(tt.email), "CheckSyntax(%q)", tt.email)
		})
	}
}

func TestCheckSyntaxAtCount(t *testing.T) {
	for _, email := range []string{"", "example.com", "a@@b.com", "a@b@c.com", "@@@"} {
		assert.False(t, CheckSyntax(email), "CheckSyntax(%q)", email)
	}
}

func TestCheckSyntaxLengthLimits(t *testing.T) {
	t.Run("local part of 64 is accepted", func(t *testing.T) {
		assert.True(t, CheckSyntax(strings.Repeat("a", 64)+"@example.com"))
	})

	t.Run("local part of 65 is rejected", func(t *testing.T) {
		assert.False(t, CheckSyntax(strings.Repeat("a", 65)+"@example.com"))
	})

	t.Run("label of 63 is accepted", func(t *testing.T) {
		assert.True(t, CheckSyntax("a@"+strings.Repeat("b", 63)+".com"))
	})

	t.Run("label of 64 is rejected", func(t *testing.T) {
		assert.False(t, CheckSyntax("a@"+strings.Repeat("b", 64)+".com"))
	})

	t.Run("domain over 255 is rejected", func(t *testing.T) {
		label := strings.Repeat("d", 63)
		// 4 labels of 63 plus 3 dots is 255; a fifth label pushes past.
		domain := strings.Join([]string{label, label, label, label, "com"}, ".")
		assert.Greater(t, len(domain), 255)
		assert.False(t, CheckSyntax("a@"+domain))
	})

	t.Run("domain of exactly 255 is accepted", func(t *testing.T) {
		label := strings.Repeat("d", 63)
		domain := strings.Join([]string{label, label, label, label}, ".")
		assert.Len(t, domain, 255)
		assert.True(t, CheckSyntax("a@"+domain))
	})
}
