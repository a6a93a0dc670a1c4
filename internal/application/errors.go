package application

import (
	"errors"

	"github.com/frahmantamala/access-approval/internal"
)

var (
	ErrApplicationNotFound = internal.NewNotFoundError("application not found", internal.ErrCodeApplicationNotFound)
	ErrRoleNotOffered      = internal.NewValidationError("service does not offer the requested role", internal.ErrCodeRoleNotOffered)

	ErrNotServiceOwner   = internal.NewForbiddenError("user is not the owner of the service", internal.ErrCodeNotServiceOwner)
	ErrNotServiceAdmin   = internal.NewForbiddenError("user is not an administrator of the service", internal.ErrCodeNotServiceAdmin)
	ErrApplicationHidden = internal.NewForbiddenError("user has no access to the application", internal.ErrCodeApplicationHidden)

	ErrOwnerAlreadyAccepted = internal.NewConflictError("owner already accepted the request", internal.ErrCodeOwnerAlreadyAccepted)
	ErrOwnerAlreadyDeclined = internal.NewConflictError("owner already declined the request", internal.ErrCodeOwnerAlreadyDeclined)
	ErrOwnerNotReviewed     = internal.NewConflictError("owner has not yet reviewed the request", internal.ErrCodeOwnerNotReviewed)
	ErrOwnerDeclined        = internal.NewConflictError("owner declined the request", internal.ErrCodeOwnerDeclined)
	ErrAdminAlreadyAccepted = internal.NewConflictError("administrator already accepted the request", internal.ErrCodeAdminAlreadyAccepted)
	ErrAdminAlreadyDeclined = internal.NewConflictError("administrator already declined the request", internal.ErrCodeAdminAlreadyDeclined)

	ErrDecisionConflict = internal.NewConflictError("decision was recorded concurrently", internal.ErrCodeDecisionConflict)

	ErrMalformedApplication = internal.NewInternalError("application has malformed checking records", nil)

	// ErrStaleDecision is returned by Repository.SaveDecision when the record left pending
	// between read and write.
	ErrStaleDecision = errors.New("decision record is no longer pending")
)
