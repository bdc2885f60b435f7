package entity

import "time"

// Session is a persisted login session correlated with a user by its opaque token.
type Session struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
