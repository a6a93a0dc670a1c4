package user

import (
	"context"

	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/internal/grant"
)

type Directory interface {
	GetUser(ctx context.Context, id int64) (*directory.User, error)
	GetWorker(ctx context.Context, id int64) (*directory.Worker, error)
	ServicesOwnedBy(ctx context.Context, userID int64) ([]*directory.Service, error)
}

type Grants interface {
	ListForUser(ctx context.Context, userID int64) ([]*grant.AccessGrant, error)
}

type Service struct {
	directory Directory
	grants    Grants
}

func NewService(dir Directory, grants Grants) *Service {
	return &Service{
		directory: dir,
		grants:    grants,
	}
}

// Profile assembles the user row, their worker record, the services they own and their grants.
// Dependencies already return AppErrors, so they pass through unchanged.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	worker, err := s.directory.GetWorker(ctx, u.WorkerID)
	if err != nil {
		return nil, err
	}

	owned, err := s.directory.ServicesOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		owned = []*directory.Service{}
	}

	grants, err := s.grants.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []*grant.AccessGrant{}
	}

	return &Profile{
		User:          u,
		Worker:        worker,
		OwnedServices: owned,
		Grants:        grants,
	}, nil
}
