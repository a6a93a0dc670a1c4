package directory

import (
	"fmt"
	"time"

	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
)

type RoleCode string

// Well-known role codes. Their row ids are resolved once into a RoleCatalog.
const (
	RoleAdmin RoleCode = "admin"
	RoleOwner RoleCode = "owner"
	RoleUser  RoleCode = "user"
)

type Role struct {
	ID   int64    `json:"id"`
	Code RoleCode `json:"code"`
	Name string   `json:"name"`
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Position struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Worker struct {
	ID         int64      `json:"id"`
	FullName   string     `json:"full_name"`
	Department Department `json:"department"`
	Position   Position   `json:"position"`
}

type User struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	WorkerID  int64     `json:"worker_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	OwnerUserID int64  `json:"owner_user_id"`
	Roles       []Role `json:"roles"`
}

func (s *Service) OwnedBy(userID int64) bool {
	return s.OwnerUserID == userID
}

// Offers reports whether roleID is in the service's allowed-role set.
func (s *Service) Offers(roleID int64) bool {
	for _, r := range s.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// RoleCatalog holds the row ids of the deciding-party roles.
type RoleCatalog struct {
	Admin Role
	Owner Role
}

func NewRoleCatalog(roles []Role) (RoleCatalog, error) {
	var catalog RoleCatalog
	for _, r := range roles {
		switch r.Code {
		case RoleAdmin:
			catalog.Admin = r
		case RoleOwner:
			catalog.Owner = r
		}
	}
	if catalog.Admin.ID == 0 {
		return RoleCatalog{}, fmt.Errorf("%w: missing %q", ErrRoleCatalogIncomplete, RoleAdmin)
	}
	if catalog.Owner.ID == 0 {
		return RoleCatalog{}, fmt.Errorf("%w: missing %q", ErrRoleCatalogIncomplete, RoleOwner)
	}
	return catalog, nil
}

func RoleFromDataModel(r *directoryDatamodel.Role) Role {
	return Role{ID: r.ID, Code: RoleCode(r.Code), Name: r.Name}
}

func UserFromDataModel(u *directoryDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Login:     u.Login,
		WorkerID:  u.WorkerID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func DepartmentFromDataModel(d *directoryDatamodel.Department) *Department {
	return &Department{ID: d.ID, Name: d.Name}
}

func ServiceFromDataModel(s *directoryDatamodel.Service) *Service {
	roles := make([]Role, len(s.Roles))
	for i := range s.Roles {
		roles[i] = RoleFromDataModel(&s.Roles[i])
	}
	return &Service{
		ID:          s.ID,
		Name:        s.Name,
		OwnerUserID: s.OwnerUserID,
		Roles:       roles,
	}
}
