package model

import "time"

// User represents a reader account as stored in the `users` table. The
// phone number is the primary identifier for the OTP flow; email is only
// required for the password flow and is stored lowercase.
//
// The refresh-token triplet and the OTP quintuple are embedded on the row:
// RefreshTokenHash holds a SHA-256 hash of the current refresh token (the
// plain token is never persisted), and a non-nil RefreshTokenRevokedAt
// means the stored token is dead even if not yet expired. A non-nil
// CurrentOtp always has a matching OtpExpiresAt.
type User struct {
	ID         uint64     `json:"id"`
	Phone      *string    `json:"phone,omitempty"`
	Email      *string    `json:"email,omitempty"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	IsActive   bool       `json:"isActive"`
	IsVerified bool       `json:"isVerified"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`

	PasswordHash *string `json:"-"`

	RefreshTokenHash      *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	RefreshTokenRevokedAt *time.Time `json:"-"`

	CurrentOtp   *string    `json:"-"`
	OtpExpiresAt *time.Time `json:"-"`
	OtpAttempts  int        `json:"-"`
	OtpIsUsed    bool       `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// RefreshTokenRecord models a row in the `refresh_tokens` table, the
// row-per-token store used when AUTH_TOKEN_STORE=table. Multiple live rows
// per user are permitted (multi-device); each is independently revocable.
type RefreshTokenRecord struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
