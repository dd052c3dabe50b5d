package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Strength is the three-bucket rating shown next to the password field
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// PasswordPolicy holds the product thresholds for an acceptable password.
// Character classes are digits, letters and symbols.
type PasswordPolicy struct {
	MinLength  int
	MinClasses int
}

// DefaultPasswordPolicy is six characters from at least two classes.
var DefaultPasswordPolicy = PasswordPolicy{MinLength: 6, MinClasses: 2}

// PasswordCheck is the result of checking a password against a policy
type PasswordCheck struct {
	IsValid     bool     `json:"isValid"`
	Strength    Strength `json:"strength"`
	Suggestions []string `json:"suggestions"`
}

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

const (
	longPasswordLength     = 8
	veryLongPasswordLength = 12
)

// ValidatePassword checks a password against the default policy
func ValidatePassword(password string) PasswordCheck {
	return DefaultPasswordPolicy.Check(password)
}

// Check rates password and lists hints for every unmet criterion, always in the
// order: length, number, letter, symbol.
func (p PasswordPolicy) Check(password string) PasswordCheck {
	var hasDigit, hasLetter, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsSpace(r):
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, has := range []bool{hasDigit, hasLetter, hasSymbol} {
		if has {
			classes++
		}
	}

	length := utf8.RuneCountInString(password)
	tooLong := len(password) > MaxPasswordBytes
	valid := length >= p.MinLength && classes >= p.MinClasses && !tooLong

	suggestions := []string{}
	if tooLong {
		suggestions = append(suggestions, fmt.Sprintf("Make it at most %d characters long", MaxPasswordBytes))
	} else if length < p.MinLength {
		suggestions = append(suggestions, fmt.Sprintf("Make it at least %d characters long", p.MinLength))
	} else if length < longPasswordLength {
		suggestions = append(suggestions, "Make it longer")
	}
	if !hasDigit {
		suggestions = append(suggestions, "Add a number")
	}
	if !hasLetter {
		suggestions = append(suggestions, "Add a letter")
	}
	if !hasSymbol {
		suggestions = append(suggestions, "Add a symbol like ! or ?")
	}

	score := classes
	if length >= longPasswordLength {
		score++
	}
	if length >= veryLongPasswordLength {
		score++
	}

	strength := StrengthWeak
	switch {
	case !valid:
	case score >= 4:
		strength = StrengthStrong
	default:
		strength = StrengthMedium
	}

	return PasswordCheck{IsValid: valid, Strength: strength, Suggestions: suggestions}
}
