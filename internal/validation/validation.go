package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinUsernameLength is the shortest username a player may choose
const MinUsernameLength = 2

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUsername checks the length rule for a username
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be at least %d characters", MinUsernameLength)}
	}
	return nil
}
