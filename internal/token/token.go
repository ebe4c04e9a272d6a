// Package token signs and verifies the access and refresh JWTs. The
// service is stateless: it never persists anything, it only mints and
// checks signed payloads against a clock.
//
// Four distinct HS256 secrets are used, one per (audience, kind) pair.
// A token minted for one pair never verifies against another: the key
// differs, the audience claim is checked, and the kind claim is checked.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes short-lived access tokens from long-lived refresh
// tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Audience distinguishes the two principal spaces.
type Audience string

const (
	AudienceUser  Audience = "user"
	AudienceAdmin Audience = "admin"
)

const issuer = "lokvarta"

// defaultRefreshTTL is used when the configured refresh TTL cannot be
// parsed.
const defaultRefreshTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Claims is the JWT payload. Kind tags whether this is an access or a
// refresh token so one can never stand in for the other.
type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// Service mints and verifies tokens for both principal spaces.
type Service struct {
	secrets    map[Audience]map[Kind][]byte
	accessTTL  time.Duration
	refreshTTL string
	now        func() time.Time
}

// Config carries the four signing secrets and the TTL policy.
type Config struct {
	UserAccessSecret   string
	UserRefreshSecret  string
	AdminAccessSecret  string
	AdminRefreshSecret string
	AccessTTL          time.Duration // e.g. 15m
	RefreshTTL         string        // "<n><unit>", unit in s/m/h/d, e.g. "7d"
}

// NewService builds a Service from the given config. The clock defaults
// to time.Now and is injectable for tests via WithClock.
func NewService(cfg Config) *Service {
	return &Service{
		secrets: map[Audience]map[Kind][]byte{
			AudienceUser: {
				KindAccess:  []byte(cfg.UserAccessSecret),
				KindRefresh: []byte(cfg.UserRefreshSecret),
			},
			AudienceAdmin: {
				KindAccess:  []byte(cfg.AdminAccessSecret),
				KindRefresh: []byte(cfg.AdminRefreshSecret),
			},
		},
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the service clock. Tests use this to mint tokens in
// the past or future.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueAccess mints a short-lived access token for the given principal.
func (s *Service) IssueAccess(aud Audience, principalID uint64) (string, time.Time, error) {
	return s.issue(aud, KindAccess, principalID, s.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the given principal.
func (s *Service) IssueRefresh(aud Audience, principalID uint64) (string, time.Time, error) {
	exp := s.RefreshExpiry()
	return s.issueUntil(aud, KindRefresh, principalID, exp)
}

func (s *Service) issue(aud Audience, kind Kind, principalID uint64, ttl time.Duration) (string, time.Time, error) {
	return s.issueUntil(aud, kind, principalID, s.now().UTC().Add(ttl))
}

func (s *Service) issueUntil(aud Audience, kind Kind, principalID uint64, exp time.Time) (string, time.Time, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every token unique even when two are minted
			// within the same second; rotation depends on the new token
			// hashing differently from the old one.
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(principalID, 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{string(aud)},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Kind: string(kind),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secrets[aud][kind])
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks a token against the secret for the expected audience and
// kind and returns the embedded principal id. A refresh token presented
// where an access token is expected fails, and vice versa; so does a user
// token presented on the admin space.
func (s *Service) Verify(raw string, aud Audience, kind Kind) (uint64, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secrets[aud][kind], nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(string(aud)),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}
	if !tok.Valid || claims.Kind != string(kind) {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// RefreshExpiry computes the absolute expiry of a refresh token minted
// now, from the configured "<n><unit>" TTL. An unparseable value falls
// back to seven days.
func (s *Service) RefreshExpiry() time.Time {
	return s.now().UTC().Add(parseRefreshTTL(s.refreshTTL))
}

func parseRefreshTTL(ttl string) time.Duration {
	ttl = strings.TrimSpace(ttl)
	if len(ttl) < 2 {
		return defaultRefreshTTL
	}
	n, err := strconv.Atoi(ttl[:len(ttl)-1])
	if err != nil || n <= 0 {
		return defaultRefreshTTL
	}
	switch ttl[len(ttl)-1] {
	case 's':
		return time.Duration(n) * time.Second
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	default:
		return defaultRefreshTTL
	}
}
