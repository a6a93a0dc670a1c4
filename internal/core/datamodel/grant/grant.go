package grant

import "time"

type AccessGrant struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;index:idx_access_grants_user_role"`
	RoleID       int64     `gorm:"column:role_id;not null;index:idx_access_grants_user_role"`
	ServiceID    int64     `gorm:"column:service_id;not null"`
	DepartmentID *int64    `gorm:"column:department_id"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (AccessGrant) TableName() string {
	return "access_grants"
}
