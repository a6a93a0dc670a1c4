package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeApplicationSubmitted    = "application.submitted"
	EventTypeApplicationOwnerDecided = "application.owner_decided"
	EventTypeApplicationAdminDecided = "application.admin_decided"
	EventTypeGrantIssued             = "grant.issued"
)

// AllAccessEventTypes lists every event type raised by the approval workflow.
var AllAccessEventTypes = []string{
	EventTypeApplicationSubmitted,
	EventTypeApplicationOwnerDecided,
	EventTypeApplicationAdminDecided,
	EventTypeGrantIssued,
}

func newBase(eventType string, at time.Time, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}
}

type ApplicationSubmittedEvent struct {
	BaseEvent
	ApplicationID int64 `json:"application_id"`
	ApplicantID   int64 `json:"applicant_id"`
	ServiceID     int64 `json:"service_id"`
	RoleID        int64 `json:"role_id"`
}

func NewApplicationSubmittedEvent(applicationID, applicantID, serviceID, roleID int64, at time.Time) *ApplicationSubmittedEvent {
	return &ApplicationSubmittedEvent{
		BaseEvent: newBase(EventTypeApplicationSubmitted, at, map[string]interface{}{
			"application_id": applicationID,
			"applicant_id":   applicantID,
			"service_id":     serviceID,
			"role_id":        roleID,
		}),
		ApplicationID: applicationID,
		ApplicantID:   applicantID,
		ServiceID:     serviceID,
		RoleID:        roleID,
	}
}

// DecisionEvent covers both owner and admin decisions; the type tells them apart.
type DecisionEvent struct {
	BaseEvent
	ApplicationID int64  `json:"application_id"`
	DeciderID     int64  `json:"decider_id"`
	ServiceID     int64  `json:"service_id"`
	Outcome       string `json:"outcome"`
}

func NewOwnerDecidedEvent(applicationID, deciderID, serviceID int64, outcome string, at time.Time) *DecisionEvent {
	return newDecisionEvent(EventTypeApplicationOwnerDecided, applicationID, deciderID, serviceID, outcome, at)
}

func NewAdminDecidedEvent(applicationID, deciderID, serviceID int64, outcome string, at time.Time) *DecisionEvent {
	return newDecisionEvent(EventTypeApplicationAdminDecided, applicationID, deciderID, serviceID, outcome, at)
}

func newDecisionEvent(eventType string, applicationID, deciderID, serviceID int64, outcome string, at time.Time) *DecisionEvent {
	return &DecisionEvent{
		BaseEvent: newBase(eventType, at, map[string]interface{}{
			"application_id": applicationID,
			"decider_id":     deciderID,
			"service_id":     serviceID,
			"outcome":        outcome,
		}),
		ApplicationID: applicationID,
		DeciderID:     deciderID,
		ServiceID:     serviceID,
		Outcome:       outcome,
	}
}

type GrantIssuedEvent struct {
	BaseEvent
	GrantID      int64  `json:"grant_id"`
	UserID       int64  `json:"user_id"`
	RoleID       int64  `json:"role_id"`
	ServiceID    int64  `json:"service_id"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

func NewGrantIssuedEvent(grantID, userID, roleID, serviceID int64, departmentID *int64, at time.Time) *GrantIssuedEvent {
	data := map[string]interface{}{
		"grant_id":   grantID,
		"user_id":    userID,
		"role_id":    roleID,
		"service_id": serviceID,
	}
	if departmentID != nil {
		data["department_id"] = *departmentID
	}
	return &GrantIssuedEvent{
		BaseEvent:    newBase(EventTypeGrantIssued, at, data),
		GrantID:      grantID,
		UserID:       userID,
		RoleID:       roleID,
		ServiceID:    serviceID,
		DepartmentID: departmentID,
	}
}
