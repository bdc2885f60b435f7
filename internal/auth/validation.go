package auth

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
	hasSpecial = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 50).Error("Name must be between 2 and 50 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email address"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(8, 100).Error("Password must be between 8 and 100 characters"),
			validation.Match(hasUpper).Error("Password must contain at least one uppercase letter"),
			validation.Match(hasLower).Error("Password must contain at least one lowercase letter"),
			validation.Match(hasDigit).Error("Password must contain at least one number"),
			validation.Match(hasSpecial).Error("Password must contain at least one special character"),
		),
	)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email address"),
		),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

// RefreshRequest is the optional body of POST /auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ClientMeta describes the caller for session bookkeeping.
type ClientMeta struct {
	IP        string
	UserAgent string
}
