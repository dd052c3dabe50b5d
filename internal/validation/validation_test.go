package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{
			name:     "valid username",
			username: "pythonkid",
			wantErr:  false,
		},
		{
			name:     "two characters is enough",
			username: "jo",
			wantErr:  false,
		},
		{
			name:     "single character",
			username: "a",
			wantErr:  true,
		},
		{
			name:     "padded single character",
			username: "  a  ",
			wantErr:  true,
		},
		{
			name:     "empty string",
			username: "",
			wantErr:  true,
		},
		{
			name:     "only spaces",
			username: "    ",
			wantErr:  true,
		},
		{
			name:     "multibyte characters count as one each",
			username: "Zoë",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr ValidationError
				if !errors.As(err, &vErr) || vErr.Field != "username" {
					t.Errorf("expected ValidationError on username, got %v", err)
				}
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name            string
		password        string
		wantValid       bool
		wantStrength    Strength
		wantSuggestions []string
	}{
		{
			name:         "letters only",
			password:     "abc",
			wantValid:    false,
			wantStrength: StrengthWeak,
			wantSuggestions: []string{
				"Make it at least 6 characters long",
				"Add a number",
				"Add a symbol like ! or ?",
			},
		},
		{
			name:            "six chars two classes",
			password:        "abc123",
			wantValid:       true,
			wantStrength:    StrengthMedium,
			wantSuggestions: []string{"Make it longer", "Add a symbol like ! or ?"},
		},
		{
			name:            "long with all classes",
			password:        "Abcdef123!xyz",
			wantValid:       true,
			wantStrength:    StrengthStrong,
			wantSuggestions: []string{},
		},
		{
			name:            "eight chars all classes",
			password:        "abcd12!?",
			wantValid:       true,
			wantStrength:    StrengthStrong,
			wantSuggestions: []string{},
		},
		{
			name:            "long but one class",
			password:        "abcdefghijklmnop",
			wantValid:       false,
			wantStrength:    StrengthWeak,
			wantSuggestions: []string{"Add a number", "Add a symbol like ! or ?"},
		},
		{
			name:         "empty",
			password:     "",
			wantValid:    false,
			wantStrength: StrengthWeak,
			wantSuggestions: []string{
				"Make it at least 6 characters long",
				"Add a number",
				"Add a letter",
				"Add a symbol like ! or ?",
			},
		},
		{
			name:            "longer than bcrypt allows",
			password:        strings.Repeat("a1", 40),
			wantValid:       false,
			wantStrength:    StrengthWeak,
			wantSuggestions: []string{"Make it at most 72 characters long", "Add a symbol like ! or ?"},
		},
		{
			name:            "72 bytes",
			password:        strings.Repeat("a1", 35) + "!?",
			wantValid:       true,
			wantStrength:    StrengthStrong,
			wantSuggestions: []string{},
		},
		{
			name:            "multibyte over 72 bytes",
			password:        strings.Repeat("é1", 25),
			wantValid:       false,
			wantStrength:    StrengthWeak,
			wantSuggestions: []string{"Make it at most 72 characters long", "Add a symbol like ! or ?"},
		},
		{
			name:            "digits and symbols",
			password:        "1234!!",
			wantValid:       true,
			wantStrength:    StrengthMedium,
			wantSuggestions: []string{"Make it longer", "Add a letter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password)
			if got.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v", got.IsValid, tt.wantValid)
			}
			if got.Strength != tt.wantStrength {
				t.Errorf("Strength = %v, want %v", got.Strength, tt.wantStrength)
			}
			if !reflect.DeepEqual(got.Suggestions, tt.wantSuggestions) {
				t.Errorf("Suggestions = %q, want %q", got.Suggestions, tt.wantSuggestions)
			}
		})
	}
}

func TestPasswordPolicyThresholds(t *testing.T) {
	strict := PasswordPolicy{MinLength: 10, MinClasses: 3}

	if got := strict.Check("abc123!"); got.IsValid {
		t.Error("7 characters should fail a 10 character policy")
	}
	got := strict.Check("abc123!")
	if len(got.Suggestions) == 0 || got.Suggestions[0] != "Make it at least 10 characters long" {
		t.Errorf("first suggestion = %q, want length hint", got.Suggestions)
	}
	if got := strict.Check("abcdefg123"); got.IsValid {
		t.Error("two classes should fail a three class policy")
	}
	if got := strict.Check("abcdefg123!"); !got.IsValid {
		t.Error("three classes at 11 characters should pass")
	}
}

func TestBlocklist(t *testing.T) {
	b := NewBlocklist("meanie")

	if b.Len() == 0 {
		t.Fatal("embedded blocklist should not be empty")
	}

	tests := []struct {
		username string
		want     bool
	}{
		{username: "pythonkid", want: true},
		{username: "SkillfulSnake", want: true},
		{username: "Classy", want: true},
		{username: "bigMEANIE", want: false},
		{username: "mean_ie", want: false},
		{username: "StupidCat", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := b.Allows(tt.username); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestBlocklistIgnoresCommentsAndBlanks(t *testing.T) {
	b := &Blocklist{words: make(map[string]struct{})}
	b.Add("", "   ", "# comment", "Word")
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	if b.Allows("myword") {
		t.Error("added word should be blocked case-insensitively")
	}
}
