package application

import (
	"time"

	applicationDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/application"
	"github.com/frahmantamala/access-approval/internal/directory"
)

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

func OutcomeOf(approve bool) Outcome {
	if approve {
		return OutcomeApproved
	}
	return OutcomeRejected
}

type CheckKind string

const (
	KindUserRequest CheckKind = "user_request"
	KindDecision    CheckKind = "decision"
)

// State is derived from the two decision records and never stored.
type State string

const (
	StateAwaitingOwner State = "awaiting_owner"
	StateAwaitingAdmin State = "awaiting_admin"
	StateOwnerRejected State = "owner_rejected"
	StateAdminRejected State = "admin_rejected"
	StateGranted       State = "granted"
	StateInvalid       State = "invalid"
)

func (s State) IsTerminal() bool {
	return s == StateOwnerRejected || s == StateAdminRejected || s == StateGranted
}

type CheckingRecord struct {
	ID            int64          `json:"id"`
	ApplicationID int64          `json:"application_id"`
	Kind          CheckKind      `json:"kind"`
	Role          directory.Role `json:"role"`
	DecidedBy     *int64         `json:"decided_by,omitempty"`
	Outcome       Outcome        `json:"outcome"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty"`
	Note          *string        `json:"note,omitempty"`
}

func (c *CheckingRecord) IsPending() bool {
	return c.Outcome == OutcomePending
}

func (c *CheckingRecord) decide(by int64, outcome Outcome, note *string, at time.Time) {
	c.DecidedBy = &by
	c.Outcome = outcome
	c.DecidedAt = &at
	c.Note = note
}

func (c *CheckingRecord) isDecisionFor(code directory.RoleCode) bool {
	return c.Kind == KindDecision && c.Role.Code == code
}

// Application is a request by a user for a role on a service. It always carries exactly
// one user request record and one decision record each for the owner and the admin.
type Application struct {
	ID              int64             `json:"id"`
	ApplicantID     int64             `json:"applicant_id"`
	ServiceID       int64             `json:"service_id"`
	DepartmentID    *int64            `json:"department_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CheckingRecords []*CheckingRecord `json:"checking_records"`
}

// NewApplication builds the initial record set: the request approved by the applicant,
// and pending owner and admin decisions.
func NewApplication(applicantID int64, svc *directory.Service, role directory.Role, departmentID *int64, note *string, catalog directory.RoleCatalog, now time.Time) *Application {
	applicant := applicantID
	at := now
	return &Application{
		ApplicantID:  applicantID,
		ServiceID:    svc.ID,
		DepartmentID: departmentID,
		CreatedAt:    now,
		CheckingRecords: []*CheckingRecord{
			{
				Kind:      KindUserRequest,
				Role:      role,
				DecidedBy: &applicant,
				Outcome:   OutcomeApproved,
				DecidedAt: &at,
				Note:      note,
			},
			{Kind: KindDecision, Role: catalog.Owner, Outcome: OutcomePending},
			{Kind: KindDecision, Role: catalog.Admin, Outcome: OutcomePending},
		},
	}
}

// records scans the checking records once and returns nil for any slot that is
// missing or duplicated. A record fitting no slot makes every slot nil.
func (a *Application) records() (request, owner, admin *CheckingRecord) {
	var nRequest, nOwner, nAdmin int
	for _, rec := range a.CheckingRecords {
		switch {
		case rec.Kind == KindUserRequest:
			request = rec
			nRequest++
		case rec.isDecisionFor(directory.RoleOwner):
			owner = rec
			nOwner++
		case rec.isDecisionFor(directory.RoleAdmin):
			admin = rec
			nAdmin++
		default:
			return nil, nil, nil
		}
	}
	if nRequest != 1 {
		request = nil
	}
	if nOwner != 1 {
		owner = nil
	}
	if nAdmin != 1 {
		admin = nil
	}
	return request, owner, admin
}

func (a *Application) UserRequest() *CheckingRecord {
	request, _, _ := a.records()
	return request
}

func (a *Application) OwnerDecision() *CheckingRecord {
	_, owner, _ := a.records()
	return owner
}

func (a *Application) AdminDecision() *CheckingRecord {
	_, _, admin := a.records()
	return admin
}

// RequestedRole is the role carried by the user request record.
func (a *Application) RequestedRole() (directory.Role, bool) {
	request := a.UserRequest()
	if request == nil {
		return directory.Role{}, false
	}
	return request.Role, true
}

func (a *Application) State() State {
	request, owner, admin := a.records()
	if request == nil || owner == nil || admin == nil {
		return StateInvalid
	}
	switch owner.Outcome {
	case OutcomePending:
		return StateAwaitingOwner
	case OutcomeRejected:
		return StateOwnerRejected
	}
	switch admin.Outcome {
	case OutcomePending:
		return StateAwaitingAdmin
	case OutcomeRejected:
		return StateAdminRejected
	case OutcomeApproved:
		return StateGranted
	}
	return StateInvalid
}

// OwnerReadiness returns nil when the owner decision is still open.
func (a *Application) OwnerReadiness() error {
	request, owner, admin := a.records()
	if request == nil || owner == nil || admin == nil {
		return ErrMalformedApplication
	}
	switch owner.Outcome {
	case OutcomeApproved:
		return ErrOwnerAlreadyAccepted
	case OutcomeRejected:
		return ErrOwnerAlreadyDeclined
	}
	return nil
}

// AdminReadiness returns nil when the owner has approved and the admin decision is open.
// The owner record is classified before the admin record.
func (a *Application) AdminReadiness() error {
	request, owner, admin := a.records()
	if request == nil || owner == nil || admin == nil {
		return ErrMalformedApplication
	}
	switch owner.Outcome {
	case OutcomePending:
		return ErrOwnerNotReviewed
	case OutcomeRejected:
		return ErrOwnerDeclined
	}
	switch admin.Outcome {
	case OutcomeApproved:
		return ErrAdminAlreadyAccepted
	case OutcomeRejected:
		return ErrAdminAlreadyDeclined
	}
	return nil
}

// DecideAsOwner records the owner's outcome in memory and returns the changed record.
func (a *Application) DecideAsOwner(ownerID int64, approve bool, note *string, at time.Time) (*CheckingRecord, error) {
	if err := a.OwnerReadiness(); err != nil {
		return nil, err
	}
	owner := a.OwnerDecision()
	owner.decide(ownerID, OutcomeOf(approve), note, at)
	return owner, nil
}

// DecideAsAdmin records the admin's outcome in memory and returns the changed record.
func (a *Application) DecideAsAdmin(adminID int64, approve bool, note *string, at time.Time) (*CheckingRecord, error) {
	if err := a.AdminReadiness(); err != nil {
		return nil, err
	}
	admin := a.AdminDecision()
	admin.decide(adminID, OutcomeOf(approve), note, at)
	return admin, nil
}

func ToDataModel(a *Application) *applicationDatamodel.Application {
	records := make([]applicationDatamodel.CheckingRecord, len(a.CheckingRecords))
	for i, rec := range a.CheckingRecords {
		records[i] = applicationDatamodel.CheckingRecord{
			ID:            rec.ID,
			ApplicationID: a.ID,
			Kind:          string(rec.Kind),
			RoleID:        rec.Role.ID,
			DecidedBy:     rec.DecidedBy,
			Outcome:       string(rec.Outcome),
			DecidedAt:     rec.DecidedAt,
			Note:          rec.Note,
		}
	}
	return &applicationDatamodel.Application{
		ID:              a.ID,
		ApplicantID:     a.ApplicantID,
		ServiceID:       a.ServiceID,
		DepartmentID:    a.DepartmentID,
		CreatedAt:       a.CreatedAt,
		CheckingRecords: records,
	}
}

func FromDataModel(a *applicationDatamodel.Application) *Application {
	records := make([]*CheckingRecord, len(a.CheckingRecords))
	for i := range a.CheckingRecords {
		records[i] = recordFromDataModel(&a.CheckingRecords[i])
	}
	return &Application{
		ID:              a.ID,
		ApplicantID:     a.ApplicantID,
		ServiceID:       a.ServiceID,
		DepartmentID:    a.DepartmentID,
		CreatedAt:       a.CreatedAt,
		CheckingRecords: records,
	}
}

func FromDataModelSlice(rows []applicationDatamodel.Application) []*Application {
	out := make([]*Application, len(rows))
	for i := range rows {
		out[i] = FromDataModel(&rows[i])
	}
	return out
}

func recordFromDataModel(r *applicationDatamodel.CheckingRecord) *CheckingRecord {
	return &CheckingRecord{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		Kind:          CheckKind(r.Kind),
		Role:          directory.Role{ID: r.RoleID, Code: directory.RoleCode(r.Role.Code), Name: r.Role.Name},
		DecidedBy:     r.DecidedBy,
		Outcome:       Outcome(r.Outcome),
		DecidedAt:     r.DecidedAt,
		Note:          r.Note,
	}
}
