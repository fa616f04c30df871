package model

import "time"

// Profile is the portal-side record of an authenticated user. ID equals the
// auth provider's user id.
type Profile struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileUpdate is a partial profile update; nil fields are left unchanged.
type ProfileUpdate struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// User is a credential record of the bundled auth provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}
