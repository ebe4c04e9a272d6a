package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/token"
	"github.com/omkarjadhav/lokvarta/internal/utils"
)

// Credential failures share one generic message so the response never
// reveals whether the identifier or the secret was wrong.
var (
	ErrInvalidCredentials = apperror.NewUnauthorized("invalid credentials")
	ErrInvalidRefresh     = apperror.NewUnauthorized("invalid refresh token")
	ErrAccountInactive    = apperror.NewForbidden("account is deactivated")
	ErrAccountUnverified  = apperror.NewForbidden("account is not verified")
)

// UserStore is the slice of the user repository the orchestrator needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateNames(ctx context.Context, id uint64, first, last string) error
	MarkVerified(ctx context.Context, id uint64) error
	UpdateLastLogin(ctx context.Context, id uint64) error
	OtpStore
}

// TokenStore persists refresh-token state. Two implementations exist: the
// embedded single-token columns on the principal row and the row-per-token
// table. Rotate must be atomic per principal: of two concurrent calls
// presenting the same old hash, exactly one may succeed.
type TokenStore interface {
	Save(ctx context.Context, principalID uint64, tokenHash string, expiresAt time.Time) error
	Rotate(ctx context.Context, principalID uint64, oldHash, newHash string, expiresAt time.Time) error
	Revoke(ctx context.Context, principalID uint64, tokenHash string) error
	RevokeAll(ctx context.Context, principalID uint64) error
}

// OtpSender delivers a one-time code out of band. The production
// implementation publishes to the dispatch queue; tests use a double.
type OtpSender interface {
	SendOtp(ctx context.Context, phone, code string) error
}

// TokenPair is an access/refresh pair returned by every successful
// credential exchange.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthService implements the user-facing register/login/refresh/logout
// flows. The password and OTP flow families are two modes of this one
// orchestrator; both write the same rows and share token issuance.
type AuthService struct {
	users      UserStore
	tokens     *token.Service
	store      TokenStore
	otp        *OtpEngine
	sender     OtpSender
	bcryptCost int
}

func NewAuthService(users UserStore, tokens *token.Service, store TokenStore, otp *OtpEngine, sender OtpSender, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		store:      store,
		otp:        otp,
		sender:     sender,
		bcryptCost: bcryptCost,
	}
}

// issuePair mints an access/refresh pair and persists the refresh hash.
func (s *AuthService) issuePair(ctx context.Context, userID uint64) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(token.AudienceUser, userID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(token.AudienceUser, userID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.store.Save(ctx, userID, utils.HashToken(refresh), refreshExp); err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ----- password flow -----

// Register creates a verified user from email and password and signs them
// in. A live account on the same email fails with Conflict.
func (s *AuthService) Register(ctx context.Context, email, password, first, last string) (*model.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, apperror.NewConflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	u := &model.User{
		Email:        &email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: &hash,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, TokenPair{}, apperror.NewConflict("email already registered")
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies email and password and issues a fresh pair. Absent user
// and wrong password produce the same generic failure.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if u.PasswordHash == nil || !utils.VerifyPassword(*u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.stampLogin(ctx, u)
	return u, pair, nil
}

// ----- OTP flow -----

// SendRegisterOtp starts an OTP registration: it creates or refreshes the
// unverified user row for the phone, issues a code and hands it to the
// SMS collaborator. A verified account on the phone fails with Conflict.
func (s *AuthService) SendRegisterOtp(ctx context.Context, phone, first, last string) error {
	phone = strings.TrimSpace(phone)
	u, err := s.users.GetByPhone(ctx, phone)
	switch {
	case err == nil:
		if u.IsVerified {
			return apperror.NewConflict("phone number already registered")
		}
		if err := s.users.UpdateNames(ctx, u.ID, first, last); err != nil {
			return apperror.NewInternal(err)
		}
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{Phone: &phone, FirstName: first, LastName: last, IsActive: true}
		if err := s.users.Create(ctx, u); err != nil {
			return apperror.NewInternal(err)
		}
	default:
		return apperror.NewInternal(err)
	}
	return s.issueAndSend(ctx, u)
}

// VerifyRegisterOtp completes an OTP registration: on a matching code the
// user becomes verified and receives a token pair.
func (s *AuthService) VerifyRegisterOtp(ctx context.Context, phone, code string) (*model.User, TokenPair, error) {
	u, err := s.users.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrNoOtpFound
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.otp.Validate(ctx, u, code); err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.users.MarkOtpUsed(ctx, u.ID); err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	u.IsVerified = true
	u.OtpIsUsed = true

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.stampLogin(ctx, u)
	return u, pair, nil
}

// SendLoginOtp issues a login code for a verified, active account. Resend
// goes through the same path and the same 60-second window.
func (s *AuthService) SendLoginOtp(ctx context.Context, phone string) error {
	u, err := s.users.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("account not found")
		}
		return apperror.NewInternal(err)
	}
	if !u.IsVerified {
		return ErrAccountUnverified
	}
	if !u.IsActive {
		return ErrAccountInactive
	}
	return s.issueAndSend(ctx, u)
}

// VerifyLoginOtp completes an OTP login.
func (s *AuthService) VerifyLoginOtp(ctx context.Context, phone, code string) (*model.User, TokenPair, error) {
	u, err := s.users.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrNoOtpFound
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if !u.IsVerified {
		return nil, TokenPair{}, ErrAccountUnverified
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrAccountInactive
	}
	if err := s.otp.Validate(ctx, u, code); err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.users.MarkOtpUsed(ctx, u.ID); err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	u.OtpIsUsed = true

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.stampLogin(ctx, u)
	return u, pair, nil
}

func (s *AuthService) issueAndSend(ctx context.Context, u *model.User) error {
	code, err := s.otp.Issue(ctx, u)
	if err != nil {
		return err
	}
	phone := ""
	if u.Phone != nil {
		phone = *u.Phone
	}
	if err := s.sender.SendOtp(ctx, phone, code); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// ----- refresh / logout -----

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored token. Presenting an already-rotated-away token fails even though
// its signature still verifies, because the stored-hash compare-and-swap
// cannot match. An inactive principal fails with Forbidden rather than
// Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*model.User, TokenPair, error) {
	id, err := s.tokens.Verify(presented, token.AudienceUser, token.KindRefresh)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefresh
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefresh
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrAccountInactive
	}

	access, accessExp, err := s.tokens.IssueAccess(token.AudienceUser, id)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(token.AudienceUser, id)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.store.Rotate(ctx, id, utils.HashToken(presented), utils.HashToken(refresh), refreshExp); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			return nil, TokenPair{}, ErrInvalidRefresh
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	return u, TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes the presented refresh token when it matches what is
// stored. A mismatch is ignored: the client-side cookie is cleared either
// way.
func (s *AuthService) Logout(ctx context.Context, userID uint64, presented string) error {
	if presented == "" {
		return nil
	}
	err := s.store.Revoke(ctx, userID, utils.HashToken(presented))
	if err != nil && !errors.Is(err, repository.ErrTokenMismatch) {
		return apperror.NewInternal(err)
	}
	return nil
}

// LogoutAll unconditionally revokes the user's refresh state across all
// sessions.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	if err := s.store.RevokeAll(ctx, userID); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// stampLogin records last_login; failures are logged, not surfaced.
func (s *AuthService) stampLogin(ctx context.Context, u *model.User) {
	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		slog.Warn("failed to update last login", slog.Uint64("user_id", u.ID), slog.Any("error", err))
	}
}
