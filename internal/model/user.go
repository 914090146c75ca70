package model

import "time"

// User mirrors the `users` table. Email is stored lower-cased and, like
// Handle, is unique.
type User struct {
	ID           string    `db:"id"`
	Handle       string    `db:"handle"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Nickname     string    `db:"nickname"`
	Phone        string    `db:"phone"`
	AvatarURL    string    `db:"avatar_url"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Default weather location for users that never set a preference.
const (
	DefaultLocationCode = "SEOUL_KR"
	DefaultLocationName = "Seoul, KR"
)

// Preferences mirrors `user_preferences`, one row per user.
type Preferences struct {
	UserID       string    `db:"user_id"`
	LocationCode string    `db:"location_code"`
	LocationName string    `db:"location_name"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// DefaultPreferences returns the preferences assumed for userID when no row
// exists yet.
func DefaultPreferences(userID string) Preferences {
	return Preferences{UserID: userID, LocationCode: DefaultLocationCode, LocationName: DefaultLocationName}
}

// RevokedToken is an entry of the refresh-token revocation set.
type RevokedToken struct {
	JTI       string    `db:"jti"`
	Subject   string    `db:"subject"`
	ExpiresAt time.Time `db:"expires_at"`
	RevokedAt time.Time `db:"revoked_at"`
}
