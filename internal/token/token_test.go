package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	return NewService(Config{
		UserAccessSecret:   strings.Repeat("a", 32),
		UserRefreshSecret:  strings.Repeat("b", 32),
		AdminAccessSecret:  strings.Repeat("c", 32),
		AdminRefreshSecret: strings.Repeat("d", 32),
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         "7d",
	})
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := testService()

	access, exp, err := svc.IssueAccess(AudienceUser, 42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), exp, 5*time.Second)

	id, err := svc.Verify(access, AudienceUser, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestKindIsolation(t *testing.T) {
	svc := testService()

	access, _, err := svc.IssueAccess(AudienceUser, 7)
	require.NoError(t, err)
	refresh, _, err := svc.IssueRefresh(AudienceUser, 7)
	require.NoError(t, err)

	_, err = svc.Verify(access, AudienceUser, KindRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not verify as refresh")

	_, err = svc.Verify(refresh, AudienceUser, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not verify as access")
}

func TestAudienceIsolation(t *testing.T) {
	svc := testService()

	userAccess, _, err := svc.IssueAccess(AudienceUser, 7)
	require.NoError(t, err)
	adminAccess, _, err := svc.IssueAccess(AudienceAdmin, 7)
	require.NoError(t, err)

	_, err = svc.Verify(userAccess, AudienceAdmin, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(adminAccess, AudienceUser, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	svc := testService()
	past := time.Now().Add(-time.Hour)
	svc.WithClock(func() time.Time { return past })

	access, _, err := svc.IssueAccess(AudienceUser, 1)
	require.NoError(t, err)

	svc.WithClock(time.Now)
	_, err = svc.Verify(access, AudienceUser, KindAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyGarbage(t *testing.T) {
	svc := testService()
	_, err := svc.Verify("not-a-jwt", AudienceUser, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshExpiryUnits(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ttl  string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"45m", 45 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 7 * 24 * time.Hour}, // unknown unit falls back to 7 days
		{"", 7 * 24 * time.Hour},
		{"xd", 7 * 24 * time.Hour},
		{"-3d", 7 * 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.ttl, func(t *testing.T) {
			svc := NewService(Config{
				UserAccessSecret:   strings.Repeat("a", 32),
				UserRefreshSecret:  strings.Repeat("b", 32),
				AdminAccessSecret:  strings.Repeat("c", 32),
				AdminRefreshSecret: strings.Repeat("d", 32),
				AccessTTL:          15 * time.Minute,
				RefreshTTL:         tc.ttl,
			}).WithClock(func() time.Time { return base })
			assert.Equal(t, base.Add(tc.want), svc.RefreshExpiry())
		})
	}
}
