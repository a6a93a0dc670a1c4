package application

import (
	"time"

	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
)

type Application struct {
	ID              int64            `gorm:"primaryKey"`
	ApplicantID     int64            `gorm:"column:applicant_id;not null;index"`
	ServiceID       int64            `gorm:"column:service_id;not null;index"`
	DepartmentID    *int64           `gorm:"column:department_id"`
	CreatedAt       time.Time        `gorm:"column:created_at;not null"`
	CheckingRecords []CheckingRecord `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

func (Application) TableName() string {
	return "applications"
}

type CheckingRecord struct {
	ID            int64                   `gorm:"primaryKey"`
	ApplicationID int64                   `gorm:"column:application_id;not null;index"`
	Kind          string                  `gorm:"column:kind;not null"`
	RoleID        int64                   `gorm:"column:role_id;not null"`
	Role          directoryDatamodel.Role `gorm:"foreignKey:RoleID"`
	DecidedBy     *int64                  `gorm:"column:decided_by"`
	Outcome       string                  `gorm:"column:outcome;not null"`
	DecidedAt     *time.Time              `gorm:"column:decided_at"`
	Note          *string                 `gorm:"column:note"`
}

func (CheckingRecord) TableName() string {
	return "checking_records"
}
