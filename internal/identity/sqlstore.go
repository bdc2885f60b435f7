package identity

import (
	"context"

	"github.com/jmoiron/sqlx"

	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
)

// SQLTx binds the user and session repositories to a database transaction.
type SQLTx struct {
	db *sqlx.DB
}

func NewSQLTx(db *sqlx.DB) *SQLTx {
	return &SQLTx{db: db}
}

func (s *SQLTx) InTx(ctx context.Context, fn func(users UserStore, sessions SessionStore) error) error {
	return database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx sqlx.ExtContext) error {
		return fn(userrepo.NewUserRepo(tx), sessionrepo.NewSessionRepo(tx))
	})
}
