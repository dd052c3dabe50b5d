// Package credentials generates player-facing secrets and name ideas.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var adjectives = []string{
	"happy", "sunny", "brave", "bright", "swift", "clever", "jolly", "mighty",
	"lucky", "magic", "bouncy", "cheerful", "daring", "eager", "gentle", "jazzy",
	"lively", "merry", "noble", "quick", "snappy", "turbo", "zippy", "cosmic",
	"epic", "groovy", "curious", "sparkly", "speedy", "loopy",
}

var nouns = []string{
	"python", "coder", "dragon", "tiger", "panda", "fox", "owl", "rocket",
	"ninja", "wizard", "robot", "astronaut", "explorer", "ranger", "captain", "comet",
	"pixel", "byte", "loop", "looper", "debugger", "builder", "hacker", "gecko",
	"otter", "penguin", "unicorn", "phoenix", "koala", "falcon",
}

// maxSuggestionTries bounds how long SuggestUsernames keeps drawing when names collide.
const maxSuggestionTries = 50

// GenerateUsername returns a random name in the format "adjective-noun"
func GenerateUsername() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}
	return adjective + "-" + noun, nil
}

// SuggestUsernames returns up to n distinct names for which taken reports false.
// When the word lists are exhausted a two-digit suffix is appended.
func SuggestUsernames(n int, taken func(string) bool) ([]string, error) {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)

	for tries := 0; len(out) < n && tries < n*maxSuggestionTries; tries++ {
		name, err := GenerateUsername()
		if err != nil {
			return nil, err
		}
		if tries >= n*maxSuggestionTries/2 {
			suffix, err := rand.Int(rand.Reader, big.NewInt(90))
			if err != nil {
				return nil, fmt.Errorf("failed to pick suffix: %w", err)
			}
			name = fmt.Sprintf("%s%d", name, suffix.Int64()+10)
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		if taken != nil && taken(name) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}

	return out, nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", fmt.Errorf("failed to pick random element: %w", err)
	}

	return slice[num.Int64()], nil
}
