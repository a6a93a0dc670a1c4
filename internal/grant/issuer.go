package grant

import (
	"context"
	"time"
)

// Writer persists grants. Issue receives the transaction-bound writer of its caller.
type Writer interface {
	SaveAccessGrant(ctx context.Context, g *AccessGrant) error
}

type Request struct {
	UserID       int64
	RoleID       int64
	ServiceID    int64
	DepartmentID *int64
}

type Issuer struct {
	now func() time.Time
}

func NewIssuer() *Issuer {
	return &Issuer{now: time.Now}
}

// WithClock overrides the timestamp source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue always persists a new grant; no deduplication against existing grants.
func (i *Issuer) Issue(ctx context.Context, w Writer, req Request) (*AccessGrant, error) {
	g := &AccessGrant{
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		ServiceID:    req.ServiceID,
		DepartmentID: req.DepartmentID,
		CreatedAt:    i.now().UTC(),
	}
	if err := w.SaveAccessGrant(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
