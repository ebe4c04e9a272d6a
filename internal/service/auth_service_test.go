package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/token"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu   sync.Mutex
	seq  uint64
	byID map[uint64]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uint64]*model.User)}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if u.Email != nil && other.Email != nil && *u.Email == *other.Email {
			return repository.ErrDuplicate
		}
		if u.Phone != nil && other.Phone != nil && *u.Phone == *other.Phone {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	u.ID = m.seq
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email != nil && *u.Email == strings.ToLower(email) && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Phone != nil && *u.Phone == phone && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) UpdateNames(_ context.Context, id uint64, first, last string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.FirstName, u.LastName = first, last
	return nil
}

func (m *memUsers) MarkVerified(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].IsVerified = true
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.byID[id].LastLogin = &now
	return nil
}

func (m *memUsers) SaveOtp(_ context.Context, id uint64, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.CurrentOtp = &code
	u.OtpExpiresAt = &expiresAt
	u.OtpAttempts = 0
	u.OtpIsUsed = false
	return nil
}

func (m *memUsers) IncrementOtpAttempts(_ context.Context, id uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].OtpAttempts++
	return m.byID[id].OtpAttempts, nil
}

func (m *memUsers) MarkOtpUsed(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].OtpIsUsed = true
	return nil
}

// memTokenStore implements the compare-and-swap contract in memory.
type memTokenStore struct {
	mu     sync.Mutex
	hashes map[uint64]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{hashes: make(map[uint64]string)}
}

func (m *memTokenStore) Save(_ context.Context, id uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[id] = hash
	return nil
}

func (m *memTokenStore) Rotate(_ context.Context, id uint64, oldHash, newHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[id] != oldHash {
		return repository.ErrTokenMismatch
	}
	m.hashes[id] = newHash
	return nil
}

func (m *memTokenStore) Revoke(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[id] != hash {
		return repository.ErrTokenMismatch
	}
	delete(m.hashes, id)
	return nil
}

func (m *memTokenStore) RevokeAll(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, id)
	return nil
}

// captureSender records the last code handed to it.
type captureSender struct {
	mu    sync.Mutex
	phone string
	code  string
	sent  int
}

func (s *captureSender) SendOtp(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone, s.code = phone, code
	s.sent++
	return nil
}

func testTokens() *token.Service {
	return token.NewService(token.Config{
		UserAccessSecret:   strings.Repeat("a", 32),
		UserRefreshSecret:  strings.Repeat("b", 32),
		AdminAccessSecret:  strings.Repeat("c", 32),
		AdminRefreshSecret: strings.Repeat("d", 32),
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         "7d",
	})
}

func newTestAuthService() (*AuthService, *memUsers, *memTokenStore, *captureSender) {
	users := newMemUsers()
	store := newMemTokenStore()
	sender := &captureSender{}
	svc := NewAuthService(users, testTokens(), store, NewOtpEngine(users), sender, 4)
	return svc, users, store, sender
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "Amit@Example.com", "password123", "Amit", "Jadhav")
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	require.NotNil(t, u.Email)
	assert.Equal(t, "amit@example.com", *u.Email)

	_, _, err = svc.Register(ctx, "amit@example.com", "password123", "Amit", "Jadhav")
	require.Error(t, err)
	assert.Equal(t, 409, apperror.SafeCode(err))
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(ctx, "amit@example.com", "wrong-password")
	_, _, noUser := svc.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, apperror.SafeMessage(wrongPass), apperror.SafeMessage(noUser))
}

func TestLoginInactiveAccountForbidden(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)
	users.byID[u.ID].IsActive = false

	_, _, err = svc.Login(ctx, "amit@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Equal(t, 403, apperror.SafeCode(err))
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()
	_, pair, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)

	_, next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The rotated-away token still has a valid signature but no longer
	// matches the stored hash.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, _, err = svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshConcurrentOneWinner(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()
	_, pair, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrInvalidRefresh)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestRefreshInactivePrincipalForbidden(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	ctx := context.Background()
	u, pair, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)
	users.byID[u.ID].IsActive = false

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshInvisibleAfterSoftDelete(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	ctx := context.Background()
	u, pair, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)
	now := time.Now().UTC()
	users.byID[u.ID].DeletedAt = &now

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestLogoutMismatchIsIgnored(t *testing.T) {
	svc, _, store, _ := newTestAuthService()
	ctx := context.Background()
	u, pair, err := svc.Register(ctx, "amit@example.com", "password123", "Amit", "")
	require.NoError(t, err)

	// Stale token: revoke is a no-op but not an error.
	require.NoError(t, svc.Logout(ctx, u.ID, "not-the-stored-token"))
	assert.NotEmpty(t, store.hashes[u.ID])

	require.NoError(t, svc.Logout(ctx, u.ID, pair.RefreshToken))
	assert.Empty(t, store.hashes[u.ID])
}

func TestOtpRegisterFlow(t *testing.T) {
	svc, users, _, sender := newTestAuthService()
	ctx := context.Background()
	phone := "+15551234567"

	require.NoError(t, svc.SendRegisterOtp(ctx, phone, "Sunita", "Patil"))
	require.Equal(t, 1, sender.sent)
	assert.Equal(t, phone, sender.phone)
	require.Len(t, sender.code, 6)

	u, _ := users.GetByPhone(ctx, phone)
	require.NotNil(t, u)
	assert.False(t, u.IsVerified)

	got, pair, err := svc.VerifyRegisterOtp(ctx, phone, sender.code)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.NotEmpty(t, pair.RefreshToken)

	// The code is single-use.
	_, _, err = svc.VerifyLoginOtp(ctx, phone, sender.code)
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
}

func TestSendRegisterOtpConflictsOnVerifiedPhone(t *testing.T) {
	svc, _, _, sender := newTestAuthService()
	ctx := context.Background()
	phone := "+15551234567"

	require.NoError(t, svc.SendRegisterOtp(ctx, phone, "Sunita", "Patil"))
	_, _, err := svc.VerifyRegisterOtp(ctx, phone, sender.code)
	require.NoError(t, err)

	err = svc.SendRegisterOtp(ctx, phone, "Someone", "Else")
	assert.Equal(t, 409, apperror.SafeCode(err))
}

func TestSendLoginOtpGates(t *testing.T) {
	svc, users, _, sender := newTestAuthService()
	ctx := context.Background()
	phone := "+15551234567"

	assert.Equal(t, 404, apperror.SafeCode(svc.SendLoginOtp(ctx, phone)))

	require.NoError(t, svc.SendRegisterOtp(ctx, phone, "Sunita", "Patil"))
	assert.ErrorIs(t, svc.SendLoginOtp(ctx, phone), ErrAccountUnverified)

	_, _, err := svc.VerifyRegisterOtp(ctx, phone, sender.code)
	require.NoError(t, err)

	u, _ := users.GetByPhone(ctx, phone)
	u.IsActive = false
	assert.ErrorIs(t, svc.SendLoginOtp(ctx, phone), ErrAccountInactive)
}
