package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyquest/internal/errs"
	"pyquest/internal/models"
)

type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (r *recordingSender) SendResetCode(_ context.Context, username, code string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codes == nil {
		r.codes = make(map[string]string)
	}
	r.codes[username] = code
	return r.err
}

func TestPasswordResetFlow(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	sender := &recordingSender{}
	resets := NewResetService(f.registry, sender, 10*time.Minute)

	state, err := resets.ResetState(ctx, testProfile, "ada")
	require.NoError(t, err)
	assert.Equal(t, models.ResetStateEnterUsername, state)

	code, err := resets.InitiatePasswordReset(ctx, testProfile, "ada")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, code, sender.codes["Ada"], "delivered under the stored username")

	state, _ = resets.ResetState(ctx, testProfile, "Ada")
	assert.Equal(t, models.ResetStateCodeSent, state)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = resets.VerifyResetCode(ctx, testProfile, "Ada", wrong)
	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(err))

	require.NoError(t, resets.VerifyResetCode(ctx, testProfile, "Ada", code), "a failed try does not consume the code")
	state, _ = resets.ResetState(ctx, testProfile, "Ada")
	assert.Equal(t, models.ResetStateCodeVerified, state)

	err = resets.ResetPassword(ctx, testProfile, "Ada", code, "abc")
	assert.Equal(t, errs.CodePasswordTooWeak, errs.CodeOf(err))

	require.NoError(t, resets.ResetPassword(ctx, testProfile, "Ada", code, "newpass9"))
	state, _ = resets.ResetState(ctx, testProfile, "Ada")
	assert.Equal(t, models.ResetStateDone, state)

	err = resets.VerifyResetCode(ctx, testProfile, "Ada", code)
	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(err), "the code is cleared after use")

	require.NoError(t, f.ledger.Logout(ctx))
	_, err = f.ledger.Login(ctx, "Ada", "abc123")
	assert.Equal(t, errs.CodeWrongPassword, errs.CodeOf(err))
	_, err = f.ledger.Login(ctx, "Ada", "newpass9")
	assert.NoError(t, err)
}

func TestResetRejectsOverlongPassword(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	resets := NewResetService(f.registry, &recordingSender{}, 10*time.Minute)

	code, err := resets.InitiatePasswordReset(ctx, testProfile, "Ada")
	require.NoError(t, err)

	err = resets.ResetPassword(ctx, testProfile, "Ada", code, strings.Repeat("b2", 37))
	assert.Equal(t, errs.CodePasswordTooWeak, errs.CodeOf(err))

	require.NoError(t, resets.VerifyResetCode(ctx, testProfile, "Ada", code), "the code survives a rejected password")
}

func TestResetCodeExpires(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	resets := NewResetService(f.registry, nil, time.Minute)

	code, err := resets.InitiatePasswordReset(ctx, testProfile, "Ada")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	err = resets.VerifyResetCode(ctx, testProfile, "Ada", code)
	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(err))
	err = resets.ResetPassword(ctx, testProfile, "Ada", code, "newpass9")
	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(err))
}

func TestResetUnknownUsername(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	resets := NewResetService(f.registry, nil, 0)

	_, err := resets.InitiatePasswordReset(ctx, testProfile, "ghost")
	assert.Equal(t, errs.CodeUsernameNotFound, errs.CodeOf(err))
	assert.Equal(t, errs.CodeUsernameNotFound, errs.CodeOf(resets.VerifyResetCode(ctx, testProfile, "ghost", "123456")))
}

func TestResetWithoutCodeIsInvalid(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	resets := NewResetService(f.registry, nil, 0)

	err := resets.ResetPassword(ctx, testProfile, "Ada", "", "newpass9")
	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(err))
}

func TestResetSurvivesDeliveryFailure(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	resets := NewResetService(f.registry, &recordingSender{err: errors.New("mailbox full")}, 0)

	code, err := resets.InitiatePasswordReset(ctx, testProfile, "Ada")
	require.NoError(t, err)
	assert.NoError(t, resets.VerifyResetCode(ctx, testProfile, "Ada", code))
}

func TestNewCodeReplacesOld(t *testing.T) {
	f := newLedgerFixture(t, 15)
	ctx := context.Background()
	f.signup(t, "Ada")
	resets := NewResetService(f.registry, nil, 0)

	var first, second string
	var err error
	// two draws may collide
	for first == second {
		first, err = resets.InitiatePasswordReset(ctx, testProfile, "Ada")
		require.NoError(t, err)
		second, err = resets.InitiatePasswordReset(ctx, testProfile, "Ada")
		require.NoError(t, err)
	}

	assert.Equal(t, errs.CodeInvalidCode, errs.CodeOf(resets.VerifyResetCode(ctx, testProfile, "Ada", first)))
	assert.NoError(t, resets.VerifyResetCode(ctx, testProfile, "Ada", second))
}
