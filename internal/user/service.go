package user

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
)

// ProfileReader is the slice of the user repository the service needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*entity.Profile, error)
}

// UserService serves read-side user queries.
type UserService struct {
	repo ProfileReader
}

func NewUserService(r ProfileReader) *UserService {
	return &UserService{repo: r}
}

// GetProfile returns the public projection, or nil when no such user exists.
func (s *UserService) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	p, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
