package models

import (
	"strings"
	"time"
)

// Avatar identifies one of the buddy pictures a player can choose
type Avatar string

const (
	AvatarSnake     Avatar = "snake"
	AvatarRobot     Avatar = "robot"
	AvatarCat       Avatar = "cat"
	AvatarDog       Avatar = "dog"
	AvatarDragon    Avatar = "dragon"
	AvatarUnicorn   Avatar = "unicorn"
	AvatarAstronaut Avatar = "astronaut"
	AvatarWizard    Avatar = "wizard"
)

// Avatars lists every selectable avatar in display order
var Avatars = []Avatar{
	AvatarSnake, AvatarRobot, AvatarCat, AvatarDog,
	AvatarDragon, AvatarUnicorn, AvatarAstronaut, AvatarWizard,
}

// IsValid reports whether a is one of the known avatars
func (a Avatar) IsValid() bool {
	for _, known := range Avatars {
		if a == known {
			return true
		}
	}
	return false
}

// User represents a player account stored on one device profile
type User struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	PasswordHash  string         `json:"passwordHash"`
	Avatar        Avatar         `json:"avatar"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastActive    time.Time      `json:"lastActive"`
	Progress      UserProgress   `json:"progress"`
	PasswordReset *PasswordReset `json:"passwordReset,omitempty"`
}

// NormalizeUsername folds a username for case-insensitive comparison
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// MatchesUsername compares usernames case-insensitively
func (u *User) MatchesUsername(username string) bool {
	return NormalizeUsername(u.Username) == NormalizeUsername(username)
}

// UserPublic is the user as shown to the frontend, without credentials
type UserPublic struct {
	ID         string       `json:"id"`
	Username   string       `json:"username"`
	Avatar     Avatar       `json:"avatar"`
	CreatedAt  time.Time    `json:"createdAt"`
	LastActive time.Time    `json:"lastActive"`
	Progress   UserProgress `json:"progress"`
}

// Public strips the password hash and any pending reset code
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
		Progress:   u.Progress,
	}
}

// ResetState is the position of a user in the password reset flow
type ResetState string

const (
	ResetStateEnterUsername ResetState = "ENTER_USERNAME"
	ResetStateCodeSent      ResetState = "CODE_SENT"
	ResetStateCodeVerified  ResetState = "CODE_VERIFIED"
	ResetStateDone          ResetState = "DONE"
)

// PasswordReset represents a pending 6-digit reset code for a user
type PasswordReset struct {
	Code      string     `json:"code"`
	State     ResetState `json:"state"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// IsExpired checks if the reset code has expired
func (r *PasswordReset) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
