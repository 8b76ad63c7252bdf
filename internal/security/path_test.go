package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative path", "config.json", false},
		{"nested relative path", "data/config.json", false},
		{"empty", "", true},
		{"traversal", "../../../etc/passwd", true},
		{"absolute", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFileComponent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean name", "messaging", "messaging"},
		{"slash", "a/b", "a_b"},
		{"backslash", `a\b`, "a_b"},
		{"traversal", "field_../../etc", "field_____etc"},
		{"null byte", "a\x00b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileComponent(tt.input))
		})
	}
}
