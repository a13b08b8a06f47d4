package owner

import (
	"fmt"
	"regexp"
)

const (
	MinAccessKeyLen = 16
	MaxAccessKeyLen = 72 // bcrypt input limit
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{3,128}$`)

func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("owner id must be 3-128 characters of letters, digits, '.', '_', '@' or '-'")
	}
	return nil
}

func ValidateAccessKey(key string) error {
	if len(key) < MinAccessKeyLen {
		return fmt.Errorf("access key must be at least %d characters", MinAccessKeyLen)
	}
	if len(key) > MaxAccessKeyLen {
		return fmt.Errorf("access key must be at most %d characters", MaxAccessKeyLen)
	}
	return nil
}
