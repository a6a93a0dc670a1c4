package grant

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-approval/internal"
)

type Repository interface {
	Writer
	AccessGrants(ctx context.Context, userID, roleID int64) ([]*AccessGrant, error)
	ListByUser(ctx context.Context, userID int64) ([]*AccessGrant, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*AccessGrant, error) {
	grants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list grants", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list grants", err)
	}
	return grants, nil
}

// HoldsRole reports whether the user has at least one grant for roleID on any service.
func (s *Service) HoldsRole(ctx context.Context, userID, roleID int64) (bool, error) {
	grants, err := s.repo.AccessGrants(ctx, userID, roleID)
	if err != nil {
		s.logger.Error("failed to check role grant", "error", err, "user_id", userID, "role_id", roleID)
		return false, internal.NewInternalError("failed to check grants", err)
	}
	return len(grants) > 0, nil
}
