package domain

import "time"

const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string // guest|host|admin
	Active       bool
	PushToken    *string
	RefreshHash  *string // sha256 of the current refresh token
	LastLogoutAt *time.Time
	CreatedAt    time.Time
}

// PasswordReset is the single in-flight reset per user. The OTP itself is
// never stored, only its sha256.
type PasswordReset struct {
	UserID      int64
	OTPHash     string
	GeneratedAt time.Time
	VerifiedAt  *time.Time
}
