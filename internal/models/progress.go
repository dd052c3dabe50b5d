package models

import (
	"math"
	"time"
)

const (
	// MaxLives is the most lives a player can hold
	MaxLives = 5
	// StartingLevel is the level a new player begins on
	StartingLevel = 1
)

// CompletedLevel records the best attempt at one level
type CompletedLevel struct {
	Level       int       `json:"level"`
	CompletedAt time.Time `json:"completedAt"`
	XPEarned    int       `json:"xpEarned"`
	CoinsEarned int       `json:"coinsEarned"`
	Attempts    int       `json:"attempts"`
	TimeSpent   int       `json:"timeSpent"` // seconds
}

// UserProgress holds a player's game state
type UserProgress struct {
	CurrentLevel    int              `json:"currentLevel"`
	Lives           int              `json:"lives"`
	Coins           int              `json:"coins"`
	XP              int              `json:"xp"`
	TotalTimePlayed int              `json:"totalTimePlayed"`
	CompletedLevels []CompletedLevel `json:"completedLevels"`
	Achievements    []string         `json:"achievements"`
}

// NewUserProgress returns the progress every new player starts with
func NewUserProgress() UserProgress {
	return UserProgress{
		CurrentLevel:    StartingLevel,
		Lives:           MaxLives,
		CompletedLevels: []CompletedLevel{},
		Achievements:    []string{},
	}
}

// ClampLives bounds a lives value into [0, MaxLives]
func ClampLives(lives int) int {
	if lives < 0 {
		return 0
	}
	if lives > MaxLives {
		return MaxLives
	}
	return lives
}

// AddLives applies delta to lives and clamps the result into [0, MaxLives].
// delta is bounded first so extreme values cannot wrap around.
func AddLives(lives, delta int) int {
	delta = max(-MaxLives, min(delta, MaxLives))
	return ClampLives(ClampLives(lives) + delta)
}

// saturatingAdd adds a non-negative n to total, stopping at math.MaxInt
func saturatingAdd(total, n int) int {
	if n > math.MaxInt-total {
		return math.MaxInt
	}
	return total + n
}

// AddRewards grows the running totals. Negative amounts are ignored and the
// totals saturate instead of overflowing.
func (p *UserProgress) AddRewards(xp, coins, seconds int) {
	p.XP = saturatingAdd(p.XP, max(xp, 0))
	p.Coins = saturatingAdd(p.Coins, max(coins, 0))
	p.TotalTimePlayed = saturatingAdd(p.TotalTimePlayed, max(seconds, 0))
}

// CompletedLevel returns the stored record for level, if any
func (p *UserProgress) CompletedLevel(level int) (*CompletedLevel, bool) {
	for i := range p.CompletedLevels {
		if p.CompletedLevels[i].Level == level {
			return &p.CompletedLevels[i], true
		}
	}
	return nil, false
}

// RecordCompletion upserts the record for entry.Level, keeping the attempt with the
// most XP. It reports whether the stored record changed.
func (p *UserProgress) RecordCompletion(entry CompletedLevel) bool {
	existing, ok := p.CompletedLevel(entry.Level)
	if !ok {
		p.CompletedLevels = append(p.CompletedLevels, entry)
		return true
	}
	if entry.XPEarned > existing.XPEarned {
		*existing = entry
		return true
	}
	return false
}

// HasAchievement reports whether tag has been unlocked
func (p *UserProgress) HasAchievement(tag string) bool {
	for _, a := range p.Achievements {
		if a == tag {
			return true
		}
	}
	return false
}
