package grant

import (
	"time"

	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
)

// AccessGrant is the durable right of a user to act in a role on a service.
// Grants are append-only and carry no link back to the application that produced them.
type AccessGrant struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RoleID       int64     `json:"role_id"`
	ServiceID    int64     `json:"service_id"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToDataModel(g *AccessGrant) *grantDatamodel.AccessGrant {
	return &grantDatamodel.AccessGrant{
		ID:           g.ID,
		UserID:       g.UserID,
		RoleID:       g.RoleID,
		ServiceID:    g.ServiceID,
		DepartmentID: g.DepartmentID,
		CreatedAt:    g.CreatedAt,
	}
}

func FromDataModel(g *grantDatamodel.AccessGrant) *AccessGrant {
	return &AccessGrant{
		ID:           g.ID,
		UserID:       g.UserID,
		RoleID:       g.RoleID,
		ServiceID:    g.ServiceID,
		DepartmentID: g.DepartmentID,
		CreatedAt:    g.CreatedAt,
	}
}

func FromDataModelSlice(rows []grantDatamodel.AccessGrant) []*AccessGrant {
	out := make([]*AccessGrant, len(rows))
	for i := range rows {
		out[i] = FromDataModel(&rows[i])
	}
	return out
}

// ServiceIDs returns the distinct services covered by grants, in first-seen order.
func ServiceIDs(grants []*AccessGrant) []int64 {
	seen := make(map[int64]struct{}, len(grants))
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		if _, ok := seen[g.ServiceID]; ok {
			continue
		}
		seen[g.ServiceID] = struct{}{}
		ids = append(ids, g.ServiceID)
	}
	return ids
}

// Covers reports whether any grant applies to serviceID.
func Covers(grants []*AccessGrant, serviceID int64) bool {
	for _, g := range grants {
		if g.ServiceID == serviceID {
			return true
		}
	}
	return false
}
