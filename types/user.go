package types

import "time"

// User represents an account in the system. The username is the stable
// key referenced by messages and session tokens.
type User struct {
	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Phone is the user's contact phone number.
	Phone string `json:"phone" db:"phone"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// JoinAt is the timestamp when the account was created.
	JoinAt time.Time `json:"join_at" db:"join_at"`

	// LastLoginAt is the timestamp of the most recent successful login or
	// registration. Nil until the first login completes.
	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
}

// Profile is the public subset of a User embedded in message payloads
// and user listings.
type Profile struct {
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Phone     string `json:"phone" db:"phone"`
}

// Profile returns the public view of the user.
func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
