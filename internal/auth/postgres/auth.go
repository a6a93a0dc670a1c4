package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/access-approval/internal/auth"
	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CredentialsByLogin(ctx context.Context, login string) (*auth.Credentials, error) {
	var u directoryDatamodel.User
	if err := r.db.WithContext(ctx).Where("login = ?", login).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("find credentials for %q: %w", login, err)
	}
	return toCredentials(&u), nil
}

func (r *Repository) CredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	var u directoryDatamodel.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("find credentials for user %d: %w", userID, err)
	}
	return toCredentials(&u), nil
}

func toCredentials(u *directoryDatamodel.User) *auth.Credentials {
	return &auth.Credentials{
		UserID:       u.ID,
		Login:        u.Login,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}
