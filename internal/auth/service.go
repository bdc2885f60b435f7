package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/apperror"
)

// UserFinder loads the current user row during refresh.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// SessionDeleter removes provider sessions by token.
type SessionDeleter interface {
	DeleteByToken(ctx context.Context, token string) error
}

// Result is returned by register and login.
type Result struct {
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Redirect     bool         `json:"redirect"`
	User         *entity.User `json:"user"`
}

// RefreshResult is returned by RefreshAccessToken.
type RefreshResult struct {
	AccessToken string         `json:"accessToken"`
	User        entity.Summary `json:"user"`
}

// LogoutResult confirms a logout.
type LogoutResult struct {
	Message string `json:"message"`
}

// Service runs the register, login, logout and refresh flows.
type Service struct {
	provider identity.Provider
	users    UserFinder
	sessions SessionDeleter
	tokens   *token.Issuer
	logger   *zap.SugaredLogger
}

func NewService(provider identity.Provider, users UserFinder, sessions SessionDeleter, tokens *token.Issuer, logger *zap.SugaredLogger) *Service {
	return &Service{provider: provider, users: users, sessions: sessions, tokens: tokens, logger: logger}
}

// Register signs the user up with the provider and mints an access/refresh pair.
func (s *Service) Register(ctx context.Context, in RegisterRequest, meta ClientMeta) (*Result, error) {
	res, err := s.provider.SignUp(ctx, identity.SignUpInput{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.User == nil {
		return nil, apperror.BadRequest("Failed to register user")
	}
	return s.issue(res)
}

// Login signs the user in and rejects blocked or deleted accounts.
func (s *Service) Login(ctx context.Context, in LoginRequest, meta ClientMeta) (*Result, error) {
	res, err := s.provider.SignIn(ctx, identity.SignInInput{
		Email:     in.Email,
		Password:  in.Password,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.User == nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if err := checkStatus(res.User); err != nil {
		// the provider opened a session before we saw the status
		s.dropSession(ctx, res.Token)
		return nil, err
	}
	return s.issue(res)
}

// Logout deletes the provider session identified by sessionToken.
func (s *Service) Logout(ctx context.Context, sessionToken string) (*LogoutResult, error) {
	if sessionToken == "" {
		return nil, apperror.BadRequest("Session token is required")
	}
	if err := s.sessions.DeleteByToken(ctx, sessionToken); err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}
	return &LogoutResult{Message: "Logged out successfully"}, nil
}

// RefreshAccessToken mints a new access token from a valid refresh token.
// The user is re-read so role and status changes apply; the refresh token is not rotated.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token is required")
	}
	verified := s.tokens.VerifyRefresh(refreshToken)
	if !verified.Success {
		s.logger.Debugw("refresh token rejected", "err", verified.Err)
		return nil, apperror.Unauthorized("Invalid or expired refresh token")
	}

	u, err := s.users.GetByID(ctx, verified.Claims.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := checkStatus(u); err != nil {
		return nil, err
	}

	access, err := s.tokens.AccessToken(token.ClaimsFromUser(u))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &RefreshResult{AccessToken: access, User: u.Summary()}, nil
}

func (s *Service) issue(res *identity.Result) (*Result, error) {
	claims := token.ClaimsFromUser(res.User)
	access, err := s.tokens.AccessToken(claims)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refresh, err := s.tokens.RefreshToken(claims)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Result{
		Token:        res.Token,
		AccessToken:  access,
		RefreshToken: refresh,
		Redirect:     res.Redirect,
		User:         res.User,
	}, nil
}

func (s *Service) dropSession(ctx context.Context, tok string) {
	if tok == "" {
		return
	}
	if err := s.sessions.DeleteByToken(ctx, tok); err != nil {
		s.logger.Warnw("failed to drop session of rejected login", "err", err)
	}
}

// checkStatus enforces that blocked and deleted accounts never get tokens.
func checkStatus(u *entity.User) error {
	if u.IsBlocked() {
		return apperror.Forbidden("User is blocked")
	}
	if u.IsRemoved() {
		return apperror.NotFound("User is deleted")
	}
	return nil
}
