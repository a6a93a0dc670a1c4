package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/access-approval/internal/application"
	applicationDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/application"
	directoryPostgres "github.com/frahmantamala/access-approval/internal/directory/postgres"
	grantPostgres "github.com/frahmantamala/access-approval/internal/grant/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository implements application.Repository using GORM. Directory lookups
// and grant writes are delegated to the repositories of those packages, bound to the same
// *gorm.DB so they join any open transaction.
type ApplicationRepository struct {
	*directoryPostgres.DirectoryRepository
	*grantPostgres.GrantRepository
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{
		DirectoryRepository: directoryPostgres.NewDirectoryRepository(db),
		GrantRepository:     grantPostgres.NewGrantRepository(db),
		db:                  db,
	}
}

func (r *ApplicationRepository) Transaction(ctx context.Context, fn func(tx application.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewApplicationRepository(tx))
	})
}

func (r *ApplicationRepository) withRecords(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("CheckingRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order("checking_records.id ASC")
		}).
		Preload("CheckingRecords.Role")
}

func (r *ApplicationRepository) FindApplication(ctx context.Context, id int64) (*application.Application, error) {
	var row applicationDatamodel.Application
	if err := r.withRecords(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, application.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application %d: %w", id, err)
	}
	return application.FromDataModel(&row), nil
}

func (r *ApplicationRepository) ApplicationsByService(ctx context.Context, serviceID int64) ([]*application.Application, error) {
	var rows []applicationDatamodel.Application
	err := r.withRecords(ctx).
		Where("service_id = ?", serviceID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("applications for service %d: %w", serviceID, err)
	}
	return application.FromDataModelSlice(rows), nil
}

func (r *ApplicationRepository) ApplicationsByApplicant(ctx context.Context, userID int64) ([]*application.Application, error) {
	var rows []applicationDatamodel.Application
	err := r.withRecords(ctx).
		Where("applicant_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("applications for applicant %d: %w", userID, err)
	}
	return application.FromDataModelSlice(rows), nil
}

// SaveApplication inserts the application and its records. Callers run it inside
// Transaction so the three records land together.
func (r *ApplicationRepository) SaveApplication(ctx context.Context, app *application.Application) error {
	row := application.ToDataModel(app)
	records := row.CheckingRecords
	row.CheckingRecords = nil

	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(row).Error; err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	for i := range records {
		records[i].ApplicationID = row.ID
	}
	if err := db.Omit("Role").Create(&records).Error; err != nil {
		return fmt.Errorf("save checking records: %w", err)
	}

	app.ID = row.ID
	for i, rec := range app.CheckingRecords {
		rec.ID = records[i].ID
		rec.ApplicationID = row.ID
	}
	return nil
}

// SaveDecision is a conditional write: it only touches a record that is still pending,
// so of two concurrent deciders exactly one succeeds.
func (r *ApplicationRepository) SaveDecision(ctx context.Context, rec *application.CheckingRecord) error {
	res := r.db.WithContext(ctx).
		Model(&applicationDatamodel.CheckingRecord{}).
		Where("id = ? AND outcome = ?", rec.ID, string(application.OutcomePending)).
		Updates(map[string]interface{}{
			"decided_by": rec.DecidedBy,
			"outcome":    string(rec.Outcome),
			"decided_at": rec.DecidedAt,
			"note":       rec.Note,
		})
	if res.Error != nil {
		return fmt.Errorf("save decision %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected != 1 {
		return application.ErrStaleDecision
	}
	return nil
}
