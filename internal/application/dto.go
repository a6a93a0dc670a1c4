package application

import (
	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/core/common/validation"
	"github.com/frahmantamala/access-approval/internal/grant"
)

type SubmitApplicationDTO struct {
	ServiceID    int64   `json:"service_id"`
	RoleID       int64   `json:"role_id"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Note         *string `json:"note,omitempty"`
}

func (d SubmitApplicationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("service_id", d.ServiceID).Required().PositiveID()
	v.Field("role_id", d.RoleID).Required().PositiveID()
	v.Field("department_id", d.DepartmentID).PositiveID()
	v.Field("note", d.Note).MaxLength(validation.MaxNoteLength, internal.ErrCodeNoteTooLong)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type DecisionDTO struct {
	Approve *bool   `json:"approve"`
	Note    *string `json:"note,omitempty"`
}

func (d DecisionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("approve", d.Approve).Required()
	v.Field("note", d.Note).MaxLength(validation.MaxNoteLength, internal.ErrCodeNoteTooLong)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// OwnerQuery narrows the owner listing. A nil ServiceID means every owned service.
type OwnerQuery struct {
	ServiceID   *int64
	PendingOnly bool
}

type ApplicationResponse struct {
	*Application
	State State `json:"state"`
}

func ToResponse(app *Application) ApplicationResponse {
	return ApplicationResponse{Application: app, State: app.State()}
}

type ApplicationsResponse struct {
	Applications []ApplicationResponse `json:"applications"`
}

func ToListResponse(apps []*Application) ApplicationsResponse {
	out := make([]ApplicationResponse, len(apps))
	for i, app := range apps {
		out[i] = ToResponse(app)
	}
	return ApplicationsResponse{Applications: out}
}

// DecisionResult is what a decision returns: the updated application and, after a final
// admin approval, the grant it produced.
type DecisionResult struct {
	Application *Application
	Grant       *grant.AccessGrant
}

type DecisionResponse struct {
	Application ApplicationResponse `json:"application"`
	Grant       *grant.AccessGrant  `json:"grant,omitempty"`
}

func (r *DecisionResult) ToResponse() DecisionResponse {
	return DecisionResponse{Application: ToResponse(r.Application), Grant: r.Grant}
}
