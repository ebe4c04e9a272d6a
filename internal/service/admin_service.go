package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/token"
	"github.com/omkarjadhav/lokvarta/internal/utils"
)

// AdminStore is the slice of the admin repository the service needs.
type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByID(ctx context.Context, id uint64) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	UpdateLastLogin(ctx context.Context, id uint64) error
}

// AdminAuthService mirrors the user auth flows for staff accounts.
// Admins are password-only; their refresh lifecycle is identical to the
// user one, against the admin token space.
type AdminAuthService struct {
	admins     AdminStore
	tokens     *token.Service
	store      TokenStore
	bcryptCost int
}

func NewAdminAuthService(admins AdminStore, tokens *token.Service, store TokenStore, bcryptCost int) *AdminAuthService {
	return &AdminAuthService{admins: admins, tokens: tokens, store: store, bcryptCost: bcryptCost}
}

func (s *AdminAuthService) issuePair(ctx context.Context, adminID uint64) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(token.AudienceAdmin, adminID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(token.AudienceAdmin, adminID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.store.Save(ctx, adminID, utils.HashToken(refresh), refreshExp); err != nil {
		return TokenPair{}, apperror.NewInternal(err)
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Register creates a staff account. Only a superadmin reaches this (the
// role gate lives in the middleware); the service still validates the
// requested role.
func (s *AdminAuthService) Register(ctx context.Context, name, email, password, role string) (*model.Admin, error) {
	if !model.ValidAdminRole(role) {
		return nil, apperror.NewValidation("invalid admin role")
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	a := &model.Admin{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("email already registered")
		}
		return nil, apperror.NewInternal(err)
	}
	return a, nil
}

// Login verifies email and password and issues a pair in the admin token
// space.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*model.Admin, TokenPair, error) {
	a, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if !utils.VerifyPassword(a.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !a.IsActive {
		return nil, TokenPair{}, ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, a.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.admins.UpdateLastLogin(ctx, a.ID); err != nil {
		slog.Warn("failed to update admin last login", slog.Uint64("admin_id", a.ID), slog.Any("error", err))
	}
	return a, pair, nil
}

// Refresh rotates an admin refresh token. Same semantics as the user
// flow: compare-and-swap on the stored hash, Forbidden for inactive
// accounts, uniform Unauthorized otherwise.
func (s *AdminAuthService) Refresh(ctx context.Context, presented string) (*model.Admin, TokenPair, error) {
	id, err := s.tokens.Verify(presented, token.AudienceAdmin, token.KindRefresh)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefresh
	}
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefresh
	}
	if !a.IsActive {
		return nil, TokenPair{}, ErrAccountInactive
	}

	access, accessExp, err := s.tokens.IssueAccess(token.AudienceAdmin, id)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(token.AudienceAdmin, id)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.store.Rotate(ctx, id, utils.HashToken(presented), utils.HashToken(refresh), refreshExp); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			return nil, TokenPair{}, ErrInvalidRefresh
		}
		return nil, TokenPair{}, apperror.NewInternal(err)
	}
	return a, TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes the presented token when it matches; mismatches are
// ignored so the cookie is always cleared.
func (s *AdminAuthService) Logout(ctx context.Context, adminID uint64, presented string) error {
	if presented == "" {
		return nil
	}
	err := s.store.Revoke(ctx, adminID, utils.HashToken(presented))
	if err != nil && !errors.Is(err, repository.ErrTokenMismatch) {
		return apperror.NewInternal(err)
	}
	return nil
}

// LogoutAll unconditionally clears the admin's refresh state.
func (s *AdminAuthService) LogoutAll(ctx context.Context, adminID uint64) error {
	if err := s.store.RevokeAll(ctx, adminID); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}
