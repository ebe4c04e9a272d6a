package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omkarjadhav/lokvarta/internal/config"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/service"
	"github.com/omkarjadhav/lokvarta/internal/token"
)

// memUserStore backs the auth service with a map for handler tests.
type memUserStore struct {
	mu   sync.Mutex
	seq  uint64
	byID map[uint64]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[uint64]*model.User)}
}

func (m *memUserStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u.ID = m.seq
	m.byID[u.ID] = u
	return nil
}

func (m *memUserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok && u.DeletedAt == nil {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) UpdateNames(_ context.Context, id uint64, first, last string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].FirstName, m.byID[id].LastName = first, last
	return nil
}

func (m *memUserStore) MarkVerified(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].IsVerified = true
	return nil
}

func (m *memUserStore) UpdateLastLogin(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.byID[id].LastLogin = &now
	return nil
}

func (m *memUserStore) SaveOtp(_ context.Context, id uint64, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.CurrentOtp = &code
	u.OtpExpiresAt = &expiresAt
	u.OtpAttempts = 0
	u.OtpIsUsed = false
	return nil
}

func (m *memUserStore) IncrementOtpAttempts(_ context.Context, id uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].OtpAttempts++
	return m.byID[id].OtpAttempts, nil
}

func (m *memUserStore) MarkOtpUsed(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].OtpIsUsed = true
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	hashes map[uint64]string
}

func (m *memTokens) Save(_ context.Context, id uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[id] = hash
	return nil
}

func (m *memTokens) Rotate(_ context.Context, id uint64, oldHash, newHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[id] != oldHash {
		return repository.ErrTokenMismatch
	}
	m.hashes[id] = newHash
	return nil
}

func (m *memTokens) Revoke(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[id] != hash {
		return repository.ErrTokenMismatch
	}
	delete(m.hashes, id)
	return nil
}

func (m *memTokens) RevokeAll(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, id)
	return nil
}

// smsDouble captures codes instead of sending them.
type smsDouble struct {
	mu   sync.Mutex
	code string
}

func (s *smsDouble) SendOtp(_ context.Context, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		AuthMode:       config.AuthModeOTP,
		CookieSecure:   false,
		CookieSameSite: http.SameSiteStrictMode,
	}
}

func newAuthTestServer(t *testing.T) (*echo.Echo, *AuthHandler, *smsDouble) {
	t.Helper()
	tokens := token.NewService(token.Config{
		UserAccessSecret:   strings.Repeat("a", 32),
		UserRefreshSecret:  strings.Repeat("b", 32),
		AdminAccessSecret:  strings.Repeat("c", 32),
		AdminRefreshSecret: strings.Repeat("d", 32),
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         "7d",
	})
	users := newMemUserStore()
	sender := &smsDouble{}
	svc := service.NewAuthService(users, tokens, &memTokens{hashes: make(map[uint64]string)}, service.NewOtpEngine(users), sender, 4)
	h := NewAuthHandler(svc, testConfig())

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.POST("/api/auth/register/send-otp", h.SendRegisterOtp)
	e.POST("/api/auth/register/verify-otp", h.VerifyRegisterOtp)
	e.POST("/api/auth/login/send-otp", h.SendLoginOtp)
	e.POST("/api/auth/login/verify-otp", h.VerifyLoginOtp)
	e.POST("/api/auth/refresh", h.Refresh)
	return e, h, sender
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := http.Response{Header: rec.Header()}
	for _, ck := range res.Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	return nil
}

func TestOtpRegisterScenario(t *testing.T) {
	e, _, sender := newAuthTestServer(t)
	phone := "+15551234567"

	rec := postJSON(e, "/api/auth/register/send-otp",
		fmt.Sprintf(`{"phone":%q,"firstName":"Sunita","lastName":"Patil"}`, phone))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, sender.code, 6)

	rec = postJSON(e, "/api/auth/register/verify-otp",
		fmt.Sprintf(`{"phone":%q,"otp":%q}`, phone, sender.code))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				IsVerified bool   `json:"isVerified"`
				Phone      string `json:"phone"`
			} `json:"user"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.User.IsVerified)
	assert.Equal(t, phone, body.Data.User.Phone)
	assert.NotEmpty(t, body.Data.AccessToken)

	ck := refreshCookieFrom(t, rec)
	require.NotNil(t, ck, "refresh cookie must be set")
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, body.Data.RefreshToken, ck.Value)
}

func TestVerifyOtpWrongCodeReportsRemaining(t *testing.T) {
	e, _, sender := newAuthTestServer(t)
	phone := "+15551234567"

	rec := postJSON(e, "/api/auth/register/send-otp",
		fmt.Sprintf(`{"phone":%q,"firstName":"Sunita"}`, phone))
	require.Equal(t, http.StatusOK, rec.Code)

	wrong := "000000"
	if sender.code == wrong {
		wrong = "000001"
	}
	rec = postJSON(e, "/api/auth/register/verify-otp",
		fmt.Sprintf(`{"phone":%q,"otp":%q}`, phone, wrong))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Remaining int `json:"remaining_attempts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, 4, body.Data.Remaining)
}

func TestSendOtpValidation(t *testing.T) {
	e, _, _ := newAuthTestServer(t)

	rec := postJSON(e, "/api/auth/register/send-otp", `{"phone":"abc","firstName":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(e, "/api/auth/register/send-otp", `{"phone":"+15551234567"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshFromCookie(t *testing.T) {
	e, _, sender := newAuthTestServer(t)
	phone := "+15551234567"

	postJSON(e, "/api/auth/register/send-otp",
		fmt.Sprintf(`{"phone":%q,"firstName":"Sunita"}`, phone))
	rec := postJSON(e, "/api/auth/register/verify-otp",
		fmt.Sprintf(`{"phone":%q,"otp":%q}`, phone, sender.code))
	require.Equal(t, http.StatusCreated, rec.Code)
	ck := refreshCookieFrom(t, rec)
	require.NotNil(t, ck)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: ck.Value})
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())

	next := refreshCookieFrom(t, rec2)
	require.NotNil(t, next)
	assert.NotEqual(t, ck.Value, next.Value)

	// The rotated-away cookie no longer works.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: ck.Value})
	rec3 := httptest.NewRecorder()
	e.ServeHTTP(rec3, req)
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
}
