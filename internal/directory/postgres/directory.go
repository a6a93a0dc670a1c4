package postgres

import (
	"context"
	"errors"
	"fmt"

	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	"github.com/frahmantamala/access-approval/internal/directory"
	"gorm.io/gorm"
)

// DirectoryRepository implements directory.Repository using GORM.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) FindUser(ctx context.Context, id int64) (*directory.User, error) {
	var u directoryDatamodel.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return directory.UserFromDataModel(&u), nil
}

func (r *DirectoryRepository) FindService(ctx context.Context, id int64) (*directory.Service, error) {
	var s directoryDatamodel.Service
	if err := r.db.WithContext(ctx).Preload("Roles").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrServiceNotFound
		}
		return nil, fmt.Errorf("find service %d: %w", id, err)
	}
	return directory.ServiceFromDataModel(&s), nil
}

func (r *DirectoryRepository) FindRole(ctx context.Context, id int64) (*directory.Role, error) {
	var role directoryDatamodel.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role %d: %w", id, err)
	}
	out := directory.RoleFromDataModel(&role)
	return &out, nil
}

func (r *DirectoryRepository) FindDepartment(ctx context.Context, id int64) (*directory.Department, error) {
	var d directoryDatamodel.Department
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("find department %d: %w", id, err)
	}
	return directory.DepartmentFromDataModel(&d), nil
}

func (r *DirectoryRepository) ServicesOwnedBy(ctx context.Context, userID int64) ([]*directory.Service, error) {
	var rows []directoryDatamodel.Service
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("owner_user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("services owned by %d: %w", userID, err)
	}
	return servicesFromRows(rows), nil
}

func (r *DirectoryRepository) ListServices(ctx context.Context) ([]*directory.Service, error) {
	var rows []directoryDatamodel.Service
	if err := r.db.WithContext(ctx).Preload("Roles").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return servicesFromRows(rows), nil
}

func (r *DirectoryRepository) ListRoles(ctx context.Context) ([]directory.Role, error) {
	var rows []directoryDatamodel.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make([]directory.Role, len(rows))
	for i := range rows {
		roles[i] = directory.RoleFromDataModel(&rows[i])
	}
	return roles, nil
}

func servicesFromRows(rows []directoryDatamodel.Service) []*directory.Service {
	out := make([]*directory.Service, len(rows))
	for i := range rows {
		out[i] = directory.ServiceFromDataModel(&rows[i])
	}
	return out
}
