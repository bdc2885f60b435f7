// Package token mints and verifies the HS256 access and refresh tokens that
// carry a user's claims. Tokens are stateless; they end at expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var (
	ErrEmptySecret  = errors.New("token: empty secret")
	ErrInvalidToken = errors.New("token: invalid")
)

// UserClaims is the user snapshot embedded in every token.
type UserClaims struct {
	UserID        string        `json:"userId"`
	Role          entity.Role   `json:"role"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Status        entity.Status `json:"status"`
	IsDeleted     bool          `json:"isDeleted"`
	EmailVerified bool          `json:"emailVerified"`
}

// Claims is what a verified token decodes to.
type Claims struct {
	UserClaims
	jwt.RegisteredClaims
}

// ClaimsFromUser snapshots u.
func ClaimsFromUser(u *entity.User) UserClaims {
	return UserClaims{
		UserID:        u.ID,
		Role:          u.Role,
		Name:          u.Name,
		Email:         u.Email,
		Status:        u.Status,
		IsDeleted:     u.IsDeleted,
		EmailVerified: u.EmailVerified,
	}
}

// VerifyResult is returned by Verify instead of an error so callers can branch
// on Success; Err says why verification failed.
type VerifyResult struct {
	Success bool
	Claims  *Claims
	Err     error
}

// Mint signs claims with secret; the token expires ttl from now.
func Mint(claims UserClaims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserClaims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. It never panics on untrusted input.
func Verify(token, secret string) (res VerifyResult) {
	defer func() {
		if r := recover(); r != nil {
			res = VerifyResult{Err: fmt.Errorf("%w: %v", ErrInvalidToken, r)}
		}
	}()
	if secret == "" {
		return VerifyResult{Err: ErrEmptySecret}
	}
	if token == "" {
		return VerifyResult{Err: ErrInvalidToken}
	}
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return VerifyResult{Err: err}
	}
	if !t.Valid {
		return VerifyResult{Err: ErrInvalidToken}
	}
	return VerifyResult{Success: true, Claims: claims}
}
