package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"pyquest/internal/credentials"
	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/models"
	"pyquest/internal/security"
)

// DefaultResetCodeTTL is how long a reset code stays valid
const DefaultResetCodeTTL = 15 * time.Minute

// CodeSender delivers a reset code to whoever helps the player reset
type CodeSender interface {
	SendResetCode(ctx context.Context, username, code string, expiresAt time.Time) error
}

// ResetService runs the password reset flow on top of a profile's ledger
type ResetService struct {
	registry *LedgerRegistry
	sender   CodeSender
	ttl      time.Duration
}

// NewResetService creates a reset service. A nil sender delivers nothing.
func NewResetService(registry *LedgerRegistry, sender CodeSender, ttl time.Duration) *ResetService {
	if sender == nil {
		sender = NoopCodeSender{}
	}
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}
	return &ResetService{registry: registry, sender: sender, ttl: ttl}
}

// InitiatePasswordReset issues a fresh code for username and returns it. Any
// earlier code is replaced.
func (s *ResetService) InitiatePasswordReset(ctx context.Context, profileID, username string) (string, error) {
	ledger := s.registry.For(profileID)

	code, err := credentials.GenerateResetCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}

	var (
		name      string
		expiresAt time.Time
	)
	err = ledger.update(ctx, func(store *models.Store) (bool, error) {
		user := store.FindByUsername(username)
		if user == nil {
			return false, errs.NewError(errs.CodeUsernameNotFound)
		}
		now := ledger.cfg.Now()
		expiresAt = now.Add(s.ttl)
		user.PasswordReset = &models.PasswordReset{
			Code:      code,
			State:     models.ResetStateCodeSent,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
		}
		name = user.Username
		return true, nil
	})
	if err != nil {
		return "", err
	}

	if err := s.sender.SendResetCode(ctx, name, code, expiresAt); err != nil {
		logx.Error(err, "Failed to deliver reset code", "profile", profileID, "username", name)
	}
	return code, nil
}

// VerifyResetCode checks code without consuming it
func (s *ResetService) VerifyResetCode(ctx context.Context, profileID, username, code string) error {
	ledger := s.registry.For(profileID)
	return ledger.update(ctx, func(store *models.Store) (bool, error) {
		user, err := s.checkCode(store, username, code, ledger.cfg.Now())
		if err != nil {
			return false, err
		}
		if user.PasswordReset.State == models.ResetStateCodeVerified {
			return false, nil
		}
		user.PasswordReset.State = models.ResetStateCodeVerified
		return true, nil
	})
}

// ResetPassword checks code again, stores the new password and clears the code
func (s *ResetService) ResetPassword(ctx context.Context, profileID, username, code, newPassword string) error {
	ledger := s.registry.For(profileID)
	return ledger.update(ctx, func(store *models.Store) (bool, error) {
		user, err := s.checkCode(store, username, code, ledger.cfg.Now())
		if err != nil {
			return false, err
		}
		if check := ledger.cfg.Policy.Check(newPassword); !check.IsValid {
			return false, errs.NewError(errs.CodePasswordTooWeak)
		}

		hash, err := security.HashPassword(newPassword)
		if err != nil {
			return false, err
		}
		user.PasswordHash = hash
		user.PasswordReset = &models.PasswordReset{
			State:    models.ResetStateDone,
			IssuedAt: user.PasswordReset.IssuedAt,
		}
		return true, nil
	})
}

// ResetState reports where username is in the reset flow
func (s *ResetService) ResetState(ctx context.Context, profileID, username string) (models.ResetState, error) {
	state := models.ResetStateEnterUsername
	err := s.registry.For(profileID).view(ctx, func(store *models.Store) error {
		user := store.FindByUsername(username)
		if user == nil {
			return errs.NewError(errs.CodeUsernameNotFound)
		}
		if user.PasswordReset != nil {
			state = user.PasswordReset.State
		}
		return nil
	})
	return state, err
}

func (s *ResetService) checkCode(store *models.Store, username, code string, now time.Time) (*models.User, error) {
	user := store.FindByUsername(username)
	if user == nil {
		return nil, errs.NewError(errs.CodeUsernameNotFound)
	}
	pr := user.PasswordReset
	if pr == nil || pr.Code == "" || pr.IsExpired(now) {
		return nil, errs.NewError(errs.CodeInvalidCode)
	}
	if subtle.ConstantTimeCompare([]byte(pr.Code), []byte(code)) != 1 {
		return nil, errs.NewError(errs.CodeInvalidCode)
	}
	return user, nil
}
