package types

import "time"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique when set.
	Email string `json:"email" db:"email"`

	// IsAdmin indicates whether the user may moderate content and
	// mutate resources owned by other users.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// EmailVerified indicates whether the email address has been confirmed.
	EmailVerified bool `json:"email_verified" db:"email_verified"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// DateCreated is the timestamp when the user account was created.
	DateCreated time.Time `json:"date_created" db:"date_created"`

	// LastLogin is the timestamp of the most recent successful login,
	// nil when the user has never logged in.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// Claims is the decoded identity payload carried by a bearer token.
// It lives for one request and is never stored server-side.
type Claims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}
