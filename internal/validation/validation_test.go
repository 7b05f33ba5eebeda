package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid email", "cook@example.com", false},
		{"Valid with plus", "cook+tag@example.com", false},
		{"Valid subdomain", "cook@mail.example.co.kr", false},
		{"Missing at sign", "cookexample.com", true},
		{"Missing domain", "cook@", true},
		{"Missing TLD", "cook@example", true},
		{"Empty", "", true},
		{"Too long", strings.Repeat("a", 250) + "@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Minimum length", "12345678", false},
		{"Typical", "correct-horse-battery", false},
		{"Too short", "1234567", true},
		{"Empty", "", true},
		{"Too long", strings.Repeat("a", 129), true},
		{"Max length", strings.Repeat("a", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"Single character", "김", false},
		{"Typical", "Cook", false},
		{"Empty", "", true},
		{"Too long", strings.Repeat("a", 51), true},
		{"Max length", strings.Repeat("a", 50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
