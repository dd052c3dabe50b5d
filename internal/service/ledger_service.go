package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"pyquest/internal/errs"
	"pyquest/internal/models"
	"pyquest/internal/repository"
	"pyquest/internal/security"
	"pyquest/internal/validation"
)

const (
	// DefaultMaxUsers is how many players one profile may hold
	DefaultMaxUsers = 15
	// LeaderboardSize is how many players the leaderboard shows
	LeaderboardSize = 5
)

// LedgerConfig holds the rules shared by every profile's ledger
type LedgerConfig struct {
	MaxUsers  int
	Policy    validation.PasswordPolicy
	Blocklist *validation.Blocklist
	Now       func() time.Time
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.MaxUsers <= 0 {
		c.MaxUsers = DefaultMaxUsers
	}
	if c.Policy.MinLength == 0 && c.Policy.MinClasses == 0 {
		c.Policy = validation.DefaultPasswordPolicy
	}
	if c.Blocklist == nil {
		c.Blocklist = validation.NewBlocklist()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// LedgerService owns the accounts and progress stored on one profile. Every
// operation is a whole-document read, modify and write, serialized by mu.
type LedgerService struct {
	repo      *repository.StoreRepository
	profileID string
	cfg       LedgerConfig
	mu        sync.Mutex
}

// NewLedgerService creates a ledger for one profile
func NewLedgerService(repo *repository.StoreRepository, profileID string, cfg LedgerConfig) *LedgerService {
	return &LedgerService{
		repo:      repo,
		profileID: profileID,
		cfg:       cfg.withDefaults(),
	}
}

// ProfileID returns the profile this ledger writes to
func (s *LedgerService) ProfileID() string {
	return s.profileID
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	Username string        `json:"username"`
	Avatar   models.Avatar `json:"avatar"`
	XP       int           `json:"xp"`
}

// CompletionInput describes one finished level or quiz
type CompletionInput struct {
	Level       int `json:"level"`
	XPEarned    int `json:"xpEarned"`
	CoinsEarned int `json:"coinsEarned"`
	Attempts    int `json:"attempts"`
	TimeSpent   int `json:"timeSpent"`
}

// load reads the store; a corrupt document yields the empty store Load returns
func (s *LedgerService) load(ctx context.Context) (*models.Store, error) {
	store, err := s.repo.Load(ctx, s.profileID)
	if err != nil && !errors.Is(err, repository.ErrCorruptStore) {
		return nil, err
	}
	return store, nil
}

// view runs fn on a freshly loaded store without saving
func (s *LedgerService) view(ctx context.Context, fn func(*models.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(store)
}

// update runs fn on a freshly loaded store and saves it when fn reports a change.
// Nothing is written when fn fails.
func (s *LedgerService) update(ctx context.Context, fn func(*models.Store) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(store)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.repo.Save(ctx, s.profileID, store)
}

// Signup creates a player and logs them in
func (s *LedgerService) Signup(ctx context.Context, username, password string, avatar models.Avatar) (*models.User, error) {
	username = strings.TrimSpace(username)
	var created models.User

	err := s.update(ctx, func(store *models.Store) (bool, error) {
		if len(store.Users) >= s.cfg.MaxUsers {
			return false, errs.NewError(errs.CodeAtCapacity, s.cfg.MaxUsers)
		}
		if store.FindByUsername(username) != nil {
			return false, errs.NewError(errs.CodeUsernameTaken)
		}
		if err := validation.ValidateUsername(username); err != nil {
			return false, errs.NewError(errs.CodeUsernameTooShort)
		}
		if !s.cfg.Blocklist.Allows(username) {
			return false, errs.NewError(errs.CodeUsernameNotAllowed)
		}
		if check := s.cfg.Policy.Check(password); !check.IsValid {
			return false, errs.NewError(errs.CodePasswordTooWeak)
		}
		if !avatar.IsValid() {
			return false, errs.NewError(errs.CodeInvalidAvatar)
		}

		hash, err := security.HashPassword(password)
		if err != nil {
			return false, err
		}

		now := s.cfg.Now()
		created = models.User{
			ID:           security.NewID(),
			Username:     username,
			PasswordHash: hash,
			Avatar:       avatar,
			CreatedAt:    now,
			LastActive:   now,
			Progress:     models.NewUserProgress(),
		}
		store.Users = append(store.Users, created)
		store.SetCurrent(created.ID)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Login checks the password and makes the player current
func (s *LedgerService) Login(ctx context.Context, username, password string) (*models.User, error) {
	var out models.User

	err := s.update(ctx, func(store *models.Store) (bool, error) {
		user := store.FindByUsername(username)
		if user == nil {
			return false, errs.NewError(errs.CodeUsernameNotFound)
		}
		if !security.CheckPassword(password, user.PasswordHash) {
			return false, errs.NewError(errs.CodeWrongPassword)
		}
		user.LastActive = s.cfg.Now()
		store.SetCurrent(user.ID)
		out = *user
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the current player. Accounts are untouched.
func (s *LedgerService) Logout(ctx context.Context) error {
	return s.update(ctx, func(store *models.Store) (bool, error) {
		if store.CurrentUser == nil {
			return false, nil
		}
		store.SetCurrent("")
		return true, nil
	})
}

// CurrentUser returns the logged-in player
func (s *LedgerService) CurrentUser(ctx context.Context) (*models.User, error) {
	var out *models.User
	err := s.view(ctx, func(store *models.Store) error {
		user := store.Current()
		if user == nil {
			return errs.NewError(errs.CodeNotLoggedIn)
		}
		u := *user
		out = &u
		return nil
	})
	return out, err
}

// updateCurrent applies fn to the current player. Without one it does nothing
// and returns nil progress.
func (s *LedgerService) updateCurrent(ctx context.Context, fn func(*models.User) error) (*models.UserProgress, error) {
	var out *models.UserProgress
	err := s.update(ctx, func(store *models.Store) (bool, error) {
		user := store.Current()
		if user == nil {
			return false, nil
		}
		if err := fn(user); err != nil {
			return false, err
		}
		p := user.Progress
		out = &p
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteLevel records a finished level. The stored record keeps the attempt
// with the most XP, while the XP, coin and time totals grow on every call. The
// current level advances past level when level is the frontier or beyond.
func (s *LedgerService) CompleteLevel(ctx context.Context, in CompletionInput) (*models.UserProgress, error) {
	if in.Level < models.StartingLevel || in.XPEarned < 0 || in.CoinsEarned < 0 || in.Attempts < 0 || in.TimeSpent < 0 {
		return nil, errs.NewError(errs.CodeInvalidParams)
	}

	return s.updateCurrent(ctx, func(user *models.User) error {
		now := s.cfg.Now()
		p := &user.Progress
		p.RecordCompletion(models.CompletedLevel{
			Level:       in.Level,
			CompletedAt: now,
			XPEarned:    in.XPEarned,
			CoinsEarned: in.CoinsEarned,
			Attempts:    in.Attempts,
			TimeSpent:   in.TimeSpent,
		})
		p.AddRewards(in.XPEarned, in.CoinsEarned, in.TimeSpent)
		if in.Level >= p.CurrentLevel && in.Level < math.MaxInt {
			p.CurrentLevel = in.Level + 1
		}
		user.LastActive = now
		return nil
	})
}

// AddXPAndCoins grants a bonus outside of level completion
func (s *LedgerService) AddXPAndCoins(ctx context.Context, xp, coins int) (*models.UserProgress, error) {
	if xp < 0 || coins < 0 {
		return nil, errs.NewError(errs.CodeInvalidParams)
	}
	return s.updateCurrent(ctx, func(user *models.User) error {
		user.Progress.AddRewards(xp, coins, 0)
		return nil
	})
}

// UpdateLives adds delta to the current player's lives, clamped to [0, MaxLives]
func (s *LedgerService) UpdateLives(ctx context.Context, delta int) (*models.UserProgress, error) {
	return s.updateCurrent(ctx, func(user *models.User) error {
		user.Progress.Lives = models.AddLives(user.Progress.Lives, delta)
		return nil
	})
}

// UpdateAvatar changes the current player's avatar
func (s *LedgerService) UpdateAvatar(ctx context.Context, avatar models.Avatar) (*models.UserProgress, error) {
	if !avatar.IsValid() {
		return nil, errs.NewError(errs.CodeInvalidAvatar)
	}
	return s.updateCurrent(ctx, func(user *models.User) error {
		user.Avatar = avatar
		return nil
	})
}

// UnlockAchievement adds tag to the current player's achievements once
func (s *LedgerService) UnlockAchievement(ctx context.Context, tag string) (*models.UserProgress, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, errs.NewError(errs.CodeInvalidParams)
	}
	return s.updateCurrent(ctx, func(user *models.User) error {
		if !user.Progress.HasAchievement(tag) {
			user.Progress.Achievements = append(user.Progress.Achievements, tag)
		}
		return nil
	})
}

// ResetUserProgress puts a player back to the starting progress
func (s *LedgerService) ResetUserProgress(ctx context.Context, userID string) error {
	return s.update(ctx, func(store *models.Store) (bool, error) {
		user := store.FindByID(userID)
		if user == nil {
			return false, errs.NewError(errs.CodeUserNotFound)
		}
		user.Progress = models.NewUserProgress()
		return true, nil
	})
}

// DeleteUser removes a player, logging them out if they were current
func (s *LedgerService) DeleteUser(ctx context.Context, userID string) error {
	return s.update(ctx, func(store *models.Store) (bool, error) {
		if !store.Remove(userID) {
			return false, errs.NewError(errs.CodeUserNotFound)
		}
		return true, nil
	})
}

// ListUsers returns every player on the profile in signup order
func (s *LedgerService) ListUsers(ctx context.Context) ([]models.UserPublic, error) {
	var out []models.UserPublic
	err := s.view(ctx, func(store *models.Store) error {
		out = make([]models.UserPublic, 0, len(store.Users))
		for i := range store.Users {
			out = append(out, store.Users[i].Public())
		}
		return nil
	})
	return out, err
}

// UsernameTaken reports whether a player already uses username
func (s *LedgerService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.view(ctx, func(store *models.Store) error {
		taken = store.FindByUsername(username) != nil
		return nil
	})
	return taken, err
}

// Leaderboard returns the top players by XP. Ties keep signup order.
func (s *LedgerService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	err := s.view(ctx, func(store *models.Store) error {
		out = rankByXP(store.Users, LeaderboardSize)
		return nil
	})
	return out, err
}

func rankByXP(users []models.User, limit int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(users))
	for i := range users {
		entries[i] = LeaderboardEntry{
			Username: users[i].Username,
			Avatar:   users[i].Avatar,
			XP:       users[i].Progress.XP,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].XP > entries[j].XP
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// LedgerRegistry hands out one ledger per profile so that requests for the
// same profile share a lock
type LedgerRegistry struct {
	repo    *repository.StoreRepository
	cfg     LedgerConfig
	mu      sync.Mutex
	ledgers map[string]*LedgerService
}

// NewLedgerRegistry creates a registry over one store repository
func NewLedgerRegistry(repo *repository.StoreRepository, cfg LedgerConfig) *LedgerRegistry {
	return &LedgerRegistry{
		repo:    repo,
		cfg:     cfg.withDefaults(),
		ledgers: make(map[string]*LedgerService),
	}
}

// For returns the ledger of a profile, creating it on first use
func (r *LedgerRegistry) For(profileID string) *LedgerService {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.ledgers[profileID]; ok {
		return l
	}
	l := NewLedgerService(r.repo, profileID, r.cfg)
	r.ledgers[profileID] = l
	return l
}

// Profiles lists every profile with a saved store
func (r *LedgerRegistry) Profiles(ctx context.Context) ([]string, error) {
	return r.repo.Profiles(ctx)
}

// Blocklist returns the blocklist shared by every ledger
func (r *LedgerRegistry) Blocklist() *validation.Blocklist {
	return r.cfg.Blocklist
}

// Policy returns the password policy shared by every ledger
func (r *LedgerRegistry) Policy() validation.PasswordPolicy {
	return r.cfg.Policy
}

// CorruptLoads reports how many store loads found an undecodable document
func (r *LedgerRegistry) CorruptLoads() int64 {
	return r.repo.CorruptLoads()
}
