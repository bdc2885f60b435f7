package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	sessionentity "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// UserStore is the part of the user repository the provider writes through.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// SessionStore persists sessions opened by the provider.
type SessionStore interface {
	Create(ctx context.Context, s *sessionentity.Session) error
}

// TxRunner runs fn with stores bound to one transaction. An error from fn
// discards every write made through those stores.
type TxRunner interface {
	InTx(ctx context.Context, fn func(users UserStore, sessions SessionStore) error) error
}

// LocalProvider keeps credentials and sessions in the service's own database.
type LocalProvider struct {
	users      UserStore
	sessions   SessionStore
	tx         TxRunner
	hasher     PasswordHasher
	sessionTTL time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewLocalProvider(users UserStore, sessions SessionStore, tx TxRunner, hasher PasswordHasher, sessionTTL time.Duration, logger *zap.SugaredLogger) *LocalProvider {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &LocalProvider{
		users:      users,
		sessions:   sessions,
		tx:         tx,
		hasher:     hasher,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

var errUserExists = apperror.Unprocessable("User already exists. Use another email.")

// SignUp creates an ACTIVE USER account and opens a session for it. Both rows
// are written in one transaction so a failed session never strands the account.
func (p *LocalProvider) SignUp(ctx context.Context, in SignUpInput) (*Result, error) {
	email := normalizeEmail(in.Email)
	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, errUserExists
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, fmt.Errorf("sign up lookup: %w", err)
	}

	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           utilities.NewKSUID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		Status:       entity.StatusActive,
	}
	var tok string
	err = p.tx.InTx(ctx, func(users UserStore, sessions SessionStore) error {
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, userrepo.ErrEmailTaken) {
				return errUserExists
			}
			return fmt.Errorf("sign up: %w", err)
		}
		t, err := p.openSession(ctx, sessions, u.ID, in.IPAddress, in.UserAgent)
		tok = t
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Infow("user signed up", "user_id", u.ID)
	return &Result{Token: tok, User: u}, nil
}

// SignIn checks email/password and opens a session. Account status is left to the caller.
func (p *LocalProvider) SignIn(ctx context.Context, in SignInInput) (*Result, error) {
	u, err := p.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("sign in lookup: %w", err)
	}
	if u.PasswordHash == "" || !p.hasher.Verify(u.PasswordHash, in.Password) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	tok, err := p.openSession(ctx, p.sessions, u.ID, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}
	return &Result{Token: tok, User: u}, nil
}

func (p *LocalProvider) openSession(ctx context.Context, sessions SessionStore, userID, ip, ua string) (string, error) {
	tok, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	s := &sessionentity.Session{
		ID:        utilities.NewSnowflakeID(),
		Token:     tok,
		UserID:    userID,
		ExpiresAt: p.now().Add(p.sessionTTL),
		IPAddress: ip,
		UserAgent: ua,
	}
	if err := sessions.Create(ctx, s); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return tok, nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
