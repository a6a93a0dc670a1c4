package directory

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-approval/internal"
)

// Repository is the lookup side of the directory store used by the approval workflow.
type Repository interface {
	FindUser(ctx context.Context, id int64) (*User, error)
	FindService(ctx context.Context, id int64) (*Service, error)
	FindRole(ctx context.Context, id int64) (*Role, error)
	FindDepartment(ctx context.Context, id int64) (*Department, error)
	ServicesOwnedBy(ctx context.Context, userID int64) ([]*Service, error)
	ListServices(ctx context.Context) ([]*Service, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// ReferenceReader serves the read-only listings exposed to administrators.
type ReferenceReader interface {
	ListUsers(ctx context.Context) ([]*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListWorkers(ctx context.Context) ([]*Worker, error)
	GetWorker(ctx context.Context, id int64) (*Worker, error)
	ListDepartments(ctx context.Context) ([]*Department, error)
	ListPositions(ctx context.Context) ([]*Position, error)
}

type Directory struct {
	repo   Repository
	ref    ReferenceReader
	logger *slog.Logger
}

func NewDirectory(repo Repository, ref ReferenceReader, logger *slog.Logger) *Directory {
	return &Directory{
		repo:   repo,
		ref:    ref,
		logger: logger,
	}
}

// LoadRoleCatalog resolves the well-known role ids. Called once at startup.
func LoadRoleCatalog(ctx context.Context, repo Repository) (RoleCatalog, error) {
	roles, err := repo.ListRoles(ctx)
	if err != nil {
		return RoleCatalog{}, err
	}
	return NewRoleCatalog(roles)
}

func (s *Directory) ListServices(ctx context.Context) ([]*Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		s.logger.Error("failed to list services", "error", err)
		return nil, internal.NewInternalError("failed to list services", err)
	}
	return services, nil
}

func (s *Directory) GetService(ctx context.Context, id int64) (*Service, error) {
	svc, err := s.repo.FindService(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get service", err, "service_id", id)
	}
	return svc, nil
}

func (s *Directory) ServicesOwnedBy(ctx context.Context, userID int64) ([]*Service, error) {
	services, err := s.repo.ServicesOwnedBy(ctx, userID)
	if err != nil {
		return nil, s.wrap("failed to list owned services", err, "user_id", userID)
	}
	return services, nil
}

func (s *Directory) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.ref.ListUsers(ctx)
	if err != nil {
		return nil, s.wrap("failed to list users", err)
	}
	return users, nil
}

func (s *Directory) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.ref.GetUser(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get user", err, "user_id", id)
	}
	return user, nil
}

func (s *Directory) ListWorkers(ctx context.Context) ([]*Worker, error) {
	workers, err := s.ref.ListWorkers(ctx)
	if err != nil {
		return nil, s.wrap("failed to list workers", err)
	}
	return workers, nil
}

func (s *Directory) GetWorker(ctx context.Context, id int64) (*Worker, error) {
	worker, err := s.ref.GetWorker(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get worker", err, "worker_id", id)
	}
	return worker, nil
}

func (s *Directory) ListDepartments(ctx context.Context) ([]*Department, error) {
	departments, err := s.ref.ListDepartments(ctx)
	if err != nil {
		return nil, s.wrap("failed to list departments", err)
	}
	return departments, nil
}

func (s *Directory) ListPositions(ctx context.Context) ([]*Position, error) {
	positions, err := s.ref.ListPositions(ctx)
	if err != nil {
		return nil, s.wrap("failed to list positions", err)
	}
	return positions, nil
}

// wrap passes domain errors through and hides storage failures behind an internal error.
func (s *Directory) wrap(msg string, err error, attrs ...any) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error(msg, append(attrs, "error", err)...)
	return internal.NewInternalError(msg, err)
}
