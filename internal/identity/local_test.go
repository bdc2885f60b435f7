package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	sessionentity "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/apperror"
)

type fakeUsers struct {
	byEmail   map[string]*entity.User
	createErr error
	lookupErr error
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return u, nil
}

type fakeSessions struct {
	created []*sessionentity.Session
	err     error
}

func (f *fakeSessions) Create(_ context.Context, s *sessionentity.Session) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, s)
	return nil
}

// fakeTx restores the fakes when fn fails, like a rolled back transaction.
type fakeTx struct {
	users    *fakeUsers
	sessions *fakeSessions
}

func (f *fakeTx) InTx(_ context.Context, fn func(users UserStore, sessions SessionStore) error) error {
	byEmail := make(map[string]*entity.User, len(f.users.byEmail))
	for k, v := range f.users.byEmail {
		byEmail[k] = v
	}
	created := len(f.sessions.created)
	if err := fn(f.users, f.sessions); err != nil {
		f.users.byEmail = byEmail
		f.sessions.created = f.sessions.created[:created]
		return err
	}
	return nil
}

func newProvider(t *testing.T) (*LocalProvider, *fakeUsers, *fakeSessions) {
	t.Helper()
	users := &fakeUsers{byEmail: map[string]*entity.User{}}
	sessions := &fakeSessions{}
	tx := &fakeTx{users: users, sessions: sessions}
	p := NewLocalProvider(users, sessions, tx, BcryptHasher{Cost: bcrypt.MinCost}, time.Hour, zap.NewNop().Sugar())
	return p, users, sessions
}

func TestSignUp_CreatesUserAndSession(t *testing.T) {
	p, users, sessions := newProvider(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	res, err := p.SignUp(context.Background(), SignUpInput{
		Name: " Ann Lee ", Email: "Ann@Example.com", Password: "Str0ng!Pass",
		IPAddress: "10.0.0.1", UserAgent: "test",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User)

	assert.Equal(t, "Ann Lee", res.User.Name)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, entity.RoleUser, res.User.Role)
	assert.Equal(t, entity.StatusActive, res.User.Status)
	assert.NotEmpty(t, res.User.ID)
	assert.NotEqual(t, "Str0ng!Pass", res.User.PasswordHash)
	assert.Contains(t, users.byEmail, "ann@example.com")

	require.Len(t, sessions.created, 1)
	s := sessions.created[0]
	assert.Equal(t, res.Token, s.Token)
	assert.Equal(t, res.User.ID, s.UserID)
	assert.Equal(t, fixed.Add(time.Hour), s.ExpiresAt)
	assert.Equal(t, "10.0.0.1", s.IPAddress)
	assert.NotEmpty(t, s.ID)
	assert.GreaterOrEqual(t, len(res.Token), 43)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	p, users, _ := newProvider(t)
	users.byEmail["ann@example.com"] = &entity.User{ID: "u1", Email: "ann@example.com"}

	_, err := p.SignUp(context.Background(), SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.StatusOf(err))
}

func TestSignUp_RaceOnUniqueIndex(t *testing.T) {
	p, users, _ := newProvider(t)
	users.createErr = userrepo.ErrEmailTaken

	_, err := p.SignUp(context.Background(), SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.StatusOf(err))
}

func TestSignUp_SessionFailure(t *testing.T) {
	p, _, sessions := newProvider(t)
	sessions.err = errors.New("db down")

	_, err := p.SignUp(context.Background(), SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "x"})
	require.Error(t, err)
	_, isApp := apperror.As(err)
	assert.False(t, isApp)
}

func TestSignUp_RetryAfterSessionFailure(t *testing.T) {
	p, users, sessions := newProvider(t)
	in := SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "Str0ng!Pass"}

	sessions.err = errors.New("db blip")
	_, err := p.SignUp(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
	assert.NotContains(t, users.byEmail, "ann@example.com")

	sessions.err = nil
	res, err := p.SignUp(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Len(t, sessions.created, 1)
}

func TestSignIn(t *testing.T) {
	p, _, sessions := newProvider(t)
	_, err := p.SignUp(context.Background(), SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)

	res, err := p.SignIn(context.Background(), SignInInput{Email: " ANN@example.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Len(t, sessions.created, 2)
	assert.NotEqual(t, sessions.created[0].Token, sessions.created[1].Token)
}

func TestSignIn_BadCredentials(t *testing.T) {
	p, _, sessions := newProvider(t)
	_, err := p.SignUp(context.Background(), SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)

	_, err = p.SignIn(context.Background(), SignInInput{Email: "ann@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, apperror.StatusOf(err))

	_, err = p.SignIn(context.Background(), SignInInput{Email: "nobody@example.com", Password: "Str0ng!Pass"})
	assert.Equal(t, http.StatusUnauthorized, apperror.StatusOf(err))

	assert.Len(t, sessions.created, 1)
}

func TestSignIn_LookupError(t *testing.T) {
	p, users, _ := newProvider(t)
	users.lookupErr = errors.New("db down")

	_, err := p.SignIn(context.Background(), SignInInput{Email: "ann@example.com", Password: "x"})
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
}

func TestSignIn_DoesNotCheckStatus(t *testing.T) {
	p, users, _ := newProvider(t)
	hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("pw")
	require.NoError(t, err)
	users.byEmail["b@example.com"] = &entity.User{ID: "b", Email: "b@example.com", PasswordHash: hash, Status: entity.StatusBlocked}

	res, err := p.SignIn(context.Background(), SignInInput{Email: "b@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, res.User.IsBlocked())
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.Verify(hash, "Secret"))
	assert.False(t, h.Verify("not-a-hash", "secret"))
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	long := "Aa1!" + strings.Repeat("x", 96)
	require.Len(t, long, 100)

	hash, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, long))
	// differs only after byte 72, which bcrypt alone would ignore
	assert.False(t, h.Verify(hash, long[:99]+"y"))

	multibyte := strings.Repeat("密", 40)
	hash, err = h.Hash(multibyte)
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, multibyte))
}
