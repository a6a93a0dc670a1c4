package postgres

import (
	"context"
	"fmt"

	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
	"github.com/frahmantamala/access-approval/internal/grant"
	"gorm.io/gorm"
)

// GrantRepository implements grant.Repository using GORM.
type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) SaveAccessGrant(ctx context.Context, g *grant.AccessGrant) error {
	row := grant.ToDataModel(g)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("save access grant: %w", err)
	}
	g.ID = row.ID
	return nil
}

func (r *GrantRepository) AccessGrants(ctx context.Context, userID, roleID int64) ([]*grant.AccessGrant, error) {
	var rows []grantDatamodel.AccessGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("access grants for user %d role %d: %w", userID, roleID, err)
	}
	return grant.FromDataModelSlice(rows), nil
}

func (r *GrantRepository) ListByUser(ctx context.Context, userID int64) ([]*grant.AccessGrant, error) {
	var rows []grantDatamodel.AccessGrant
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("grants for user %d: %w", userID, err)
	}
	return grant.FromDataModelSlice(rows), nil
}
