// Package testsupport opens seeded in-memory databases for package tests.
package testsupport

import (
	"fmt"

	"github.com/frahmantamala/access-approval/internal/core/datamodel"
	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
	"github.com/frahmantamala/access-approval/internal/directory"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const Password = "correct-horse-battery"

// Fixture names the rows Seed creates.
type Fixture struct {
	Catalog  directory.RoleCatalog
	UserRole directory.Role
	// offered by no service
	AuditorRole directory.Role

	AdminID     int64
	OwnerID     int64
	ApplicantID int64
	StrangerID  int64

	ServiceID      int64
	OtherServiceID int64
	DepartmentID   int64
	PositionID     int64
}

// OpenSQLite returns a migrated in-memory database. One connection keeps every query on
// the same memory database.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(datamodel.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// Seed creates roles, one department and position, four users, two services and an
// admin grant for AdminID on ServiceID.
func Seed(db *gorm.DB) (*Fixture, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	roles := []directoryDatamodel.Role{
		{Code: string(directory.RoleAdmin), Name: "Administrator"},
		{Code: string(directory.RoleOwner), Name: "Service owner"},
		{Code: string(directory.RoleUser), Name: "User"},
		{Code: "auditor", Name: "Auditor"},
	}
	if err := db.Create(&roles).Error; err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	dept := directoryDatamodel.Department{Name: "Finance"}
	if err := db.Create(&dept).Error; err != nil {
		return nil, fmt.Errorf("seed department: %w", err)
	}
	pos := directoryDatamodel.Position{Name: "Analyst"}
	if err := db.Create(&pos).Error; err != nil {
		return nil, fmt.Errorf("seed position: %w", err)
	}

	ids := make([]int64, 0, 4)
	for _, login := range []string{"admin", "owner", "applicant", "stranger"} {
		worker := directoryDatamodel.Worker{FullName: login + " worker", DepartmentID: dept.ID, PositionID: pos.ID}
		if err := db.Create(&worker).Error; err != nil {
			return nil, fmt.Errorf("seed worker: %w", err)
		}
		user := directoryDatamodel.User{Login: login, PasswordHash: string(hash), WorkerID: worker.ID, IsActive: true}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		ids = append(ids, user.ID)
	}

	svc := directoryDatamodel.Service{Name: "billing", OwnerUserID: ids[1], Roles: []directoryDatamodel.Role{roles[2], roles[0]}}
	if err := db.Create(&svc).Error; err != nil {
		return nil, fmt.Errorf("seed service: %w", err)
	}
	other := directoryDatamodel.Service{Name: "payroll", OwnerUserID: ids[3], Roles: []directoryDatamodel.Role{roles[2]}}
	if err := db.Create(&other).Error; err != nil {
		return nil, fmt.Errorf("seed service: %w", err)
	}

	adminGrant := grantDatamodel.AccessGrant{UserID: ids[0], RoleID: roles[0].ID, ServiceID: svc.ID}
	if err := db.Create(&adminGrant).Error; err != nil {
		return nil, fmt.Errorf("seed admin grant: %w", err)
	}

	return &Fixture{
		Catalog: directory.RoleCatalog{
			Admin: directory.RoleFromDataModel(&roles[0]),
			Owner: directory.RoleFromDataModel(&roles[1]),
		},
		UserRole:       directory.RoleFromDataModel(&roles[2]),
		AuditorRole:    directory.RoleFromDataModel(&roles[3]),
		AdminID:        ids[0],
		OwnerID:        ids[1],
		ApplicantID:    ids[2],
		StrangerID:     ids[3],
		ServiceID:      svc.ID,
		OtherServiceID: other.ID,
		DepartmentID:   dept.ID,
		PositionID:     pos.ID,
	}, nil
}
