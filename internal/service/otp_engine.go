// Package service implements the auth orchestration on top of the token
// service and the repositories. Handlers call these methods; they never
// touch SQL or signing keys directly.
package service

import (
	"context"
	"math"
	"time"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/utils"
)

const (
	// otpTTL is how long a code stays valid after issuance.
	otpTTL = 5 * time.Minute
	// otpResendWindow is the minimum gap between two issuances for the
	// same principal.
	otpResendWindow = 60 * time.Second
	// maxOtpAttempts is the wrong-guess ceiling; reaching it forces a
	// fresh code.
	maxOtpAttempts = 5
)

// OTP validation failures, in the order the checks run. Each is distinct
// so callers and clients can tell them apart.
var (
	ErrNoOtpFound         = apperror.NewUnauthorized("no OTP requested for this account")
	ErrOtpAlreadyUsed     = apperror.NewUnauthorized("OTP has already been used")
	ErrTooManyOtpAttempts = apperror.NewUnauthorized("too many incorrect attempts, request a new OTP")
	ErrOtpExpired         = apperror.NewUnauthorized("OTP has expired")
	ErrOtpMismatch        = apperror.NewUnauthorized("incorrect OTP")
)

// OtpStore is the slice of the user repository the engine needs.
type OtpStore interface {
	SaveOtp(ctx context.Context, id uint64, code string, expiresAt time.Time) error
	IncrementOtpAttempts(ctx context.Context, id uint64) (int, error)
	MarkOtpUsed(ctx context.Context, id uint64) error
}

// OtpEngine generates and validates one-time codes. All state lives on
// the principal row; the engine itself is stateless.
type OtpEngine struct {
	store OtpStore
	now   func() time.Time
}

func NewOtpEngine(store OtpStore) *OtpEngine {
	return &OtpEngine{store: store, now: time.Now}
}

// WithClock replaces the engine clock for tests.
func (e *OtpEngine) WithClock(now func() time.Time) *OtpEngine {
	e.now = now
	return e
}

// Issue generates a fresh code for the user and persists the full OTP
// state in one write. A previous issuance less than 60 seconds old fails
// with RateLimited carrying the seconds left to wait.
func (e *OtpEngine) Issue(ctx context.Context, u *model.User) (string, error) {
	now := e.now().UTC()
	if u.CurrentOtp != nil && u.OtpExpiresAt != nil {
		issuedAt := u.OtpExpiresAt.Add(-otpTTL)
		if wait := issuedAt.Add(otpResendWindow).Sub(now); wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			return "", apperror.NewRateLimited("please wait before requesting another OTP", secs)
		}
	}
	code, err := utils.GenerateOtp()
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	if err := e.store.SaveOtp(ctx, u.ID, code, now.Add(otpTTL)); err != nil {
		return "", apperror.NewInternal(err)
	}
	return code, nil
}

// Validate checks a supplied code against the user's stored OTP state.
// The checks run in strict order and each failure is distinct: no code on
// file, already used, attempt ceiling, expired, mismatch. A mismatch
// increments the persistent attempt counter and reports the remaining
// attempts. On success the caller completes the flow by marking the code
// used.
func (e *OtpEngine) Validate(ctx context.Context, u *model.User, supplied string) error {
	if u.CurrentOtp == nil || u.OtpExpiresAt == nil {
		return ErrNoOtpFound
	}
	if u.OtpIsUsed {
		return ErrOtpAlreadyUsed
	}
	if u.OtpAttempts >= maxOtpAttempts {
		return ErrTooManyOtpAttempts
	}
	if e.now().UTC().After(*u.OtpExpiresAt) {
		return ErrOtpExpired
	}
	if supplied != *u.CurrentOtp {
		attempts, err := e.store.IncrementOtpAttempts(ctx, u.ID)
		if err != nil {
			return apperror.NewInternal(err)
		}
		remaining := maxOtpAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return ErrOtpMismatch.WithMeta("remaining_attempts", remaining)
	}
	return nil
}
