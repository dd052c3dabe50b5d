package validation

import (
	"bufio"
	_ "embed"
	"strings"
	"sync"
)

//go:embed blocklist.txt
var defaultBlocklist string

// Blocklist rejects usernames containing words that don't belong in a kids' game.
// It is safe for concurrent use.
type Blocklist struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

// NewBlocklist returns a blocklist seeded with the embedded default words plus extra
func NewBlocklist(extra ...string) *Blocklist {
	b := &Blocklist{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(strings.NewReader(defaultBlocklist))
	for scanner.Scan() {
		b.Add(scanner.Text())
	}
	b.Add(extra...)
	return b
}

// Add inserts words; blank lines and #-comments are ignored
func (b *Blocklist) Add(words ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		b.words[w] = struct{}{}
	}
}

// Len returns the number of blocked words
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.words)
}

// Allows reports whether username contains no blocked word
func (b *Blocklist) Allows(username string) bool {
	name := strings.ToLower(username)
	// separators are stripped so "bad_word" and "bad-word" are caught too
	compact := strings.NewReplacer("-", "", "_", "", " ", "", ".", "").Replace(name)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for w := range b.words {
		if strings.Contains(name, w) || strings.Contains(compact, w) {
			return false
		}
	}
	return true
}
