package directory

import "time"

type Department struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null"`
}

func (Department) TableName() string {
	return "departments"
}

type Position struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null"`
}

func (Position) TableName() string {
	return "positions"
}

type Worker struct {
	ID           int64      `gorm:"primaryKey"`
	FullName     string     `gorm:"column:full_name;not null"`
	DepartmentID int64      `gorm:"column:department_id;not null"`
	PositionID   int64      `gorm:"column:position_id;not null"`
	Department   Department `gorm:"foreignKey:DepartmentID"`
	Position     Position   `gorm:"foreignKey:PositionID"`
}

func (Worker) TableName() string {
	return "workers"
}

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Login        string    `gorm:"column:login;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	WorkerID     int64     `gorm:"column:worker_id;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"column:code;uniqueIndex;not null"`
	Name string `gorm:"column:name;not null"`
}

func (Role) TableName() string {
	return "roles"
}

// Allowed roles are kept in the service_roles join table (service_id, role_id).
type Service struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;not null"`
	OwnerUserID int64  `gorm:"column:owner_user_id;not null;index"`
	Roles       []Role `gorm:"many2many:service_roles;"`
}

func (Service) TableName() string {
	return "services"
}
