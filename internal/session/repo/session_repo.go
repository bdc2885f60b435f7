package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
)

// SessionRepo persists login sessions in the sessions table.
type SessionRepo struct {
	db sqlx.ExtContext
}

func NewSessionRepo(db sqlx.ExtContext) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts s; CreatedAt/UpdatedAt default to now.
func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	query := `INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Token, s.UserID, s.ExpiresAt, s.IPAddress, s.UserAgent); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// DeleteByToken removes every session with the given token. Deleting a token
// that does not exist is not an error.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
