// Package identity owns credentials: password hashing, account creation,
// credential checks and session issuance. The auth flows only see Provider.
package identity

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// SignUpInput is a new account request.
type SignUpInput struct {
	Name      string
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// SignInInput is an email/password sign-in attempt.
type SignInInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Result is what the provider hands back after opening a session.
type Result struct {
	Token    string       `json:"token"`
	User     *entity.User `json:"user"`
	Redirect bool         `json:"redirect"`
}

// Provider is the capability the auth flows depend on.
// Failures are *apperror.AppError values when they are caused by the caller.
type Provider interface {
	SignUp(ctx context.Context, in SignUpInput) (*Result, error)
	SignIn(ctx context.Context, in SignInInput) (*Result, error)
}
