package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/awnumar/memguard"
)

// PasswordStrength is a rough classification used to warn about weak secrets.
type PasswordStrength int

const (
	PasswordWeak PasswordStrength = iota
	PasswordMedium
	PasswordStrong
)

func (s PasswordStrength) String() string {
	switch s {
	case PasswordStrong:
		return "strong"
	case PasswordMedium:
		return "medium"
	default:
		return "weak"
	}
}

// ClearMemory wipes sensitive bytes.
func ClearMemory(data []byte) {
	memguard.WipeBytes(data)
}

// GenerateRandomBytes returns size bytes from crypto/rand.
func GenerateRandomBytes(size int) ([]byte, error) {
	bytes := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return bytes, nil
}

// GenerateRandomHex returns size random bytes as a hex string.
func GenerateRandomHex(size int) (string, error) {
	bytes, err := GenerateRandomBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CheckPasswordStrength grades a password by length and character classes.
func CheckPasswordStrength(password string) PasswordStrength {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, special} {
		if ok {
			classes++
		}
	}

	switch {
	case len(password) >= 12 && classes == 4:
		return PasswordStrong
	case len(password) >= 8 && classes >= 3:
		return PasswordMedium
	default:
		return PasswordWeak
	}
}

// MaskSensitiveData keeps the first and last characters only.
func MaskSensitiveData(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
