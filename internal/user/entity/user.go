package entity

import "time"

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusDeleted Status = "DELETED"
)

// User represents an account row in the `users` table.
type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	EmailVerified bool      `db:"email_verified" json:"emailVerified"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          Role      `db:"role" json:"role"`
	Status        Status    `db:"status" json:"status"`
	IsDeleted     bool      `db:"is_deleted" json:"isDeleted"`
	Image         *string   `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// IsBlocked reports a BLOCKED account.
func (u *User) IsBlocked() bool { return u.Status == StatusBlocked }

// IsRemoved reports a soft-deleted or DELETED account.
func (u *User) IsRemoved() bool { return u.IsDeleted || u.Status == StatusDeleted }

// Profile is the public projection served by GET /users/{userId}.
type Profile struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Role          Role      `db:"role" json:"role"`
	Status        Status    `db:"status" json:"status"`
	EmailVerified bool      `db:"email_verified" json:"emailVerified"`
	Image         *string   `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the trimmed projection returned on token refresh.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
