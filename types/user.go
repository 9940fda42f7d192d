package types

import "time"

// Role is the authorization level of a user account.
type Role string

// Roles recognized by the system.
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. Unique across accounts.
	Email string `json:"email" db:"email"`

	// StudentID is the campus-issued student identifier, if any.
	StudentID string `json:"student_id,omitempty" db:"student_id"`

	// Role indicates the user's authorization level within the
	// system ("student" or "admin").
	Role Role `json:"role" db:"role"`

	// Active reports whether the account may authenticate and act.
	// Deactivated accounts are retained, never hard-deleted.
	Active bool `json:"active" db:"active"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the compact view of a user embedded in expanded
// item and issue records in place of raw foreign keys.
type UserSummary struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id,omitempty"`
}

// Summary returns the compact view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		StudentID: u.StudentID,
	}
}
