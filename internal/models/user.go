package models

import "time"

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUIDv7 format).
	ID string `json:"id"`

	// Email is the login name. Uniqueness is case-sensitive.
	Email string `json:"email"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Phone is optional; nil is stored as JSON null.
	Phone *string `json:"phone"`

	// SecretHash is the output of the configured credential hasher.
	// It never leaves the users collection.
	SecretHash string `json:"password"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser is a User without its secret hash.
// It doubles as the persisted "current user" session pointer.
type PublicUser struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
	}
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User PublicUser `json:"user"`

	// Token is an opaque session marker. For the local store it is derived
	// from the user ID and carries no security value; the remote server
	// issues signed tokens instead.
	Token string `json:"token"`
}
