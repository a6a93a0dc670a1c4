package directory

import (
	"errors"

	"github.com/frahmantamala/access-approval/internal"
)

var (
	ErrUserNotFound       = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrServiceNotFound    = internal.NewNotFoundError("service not found", internal.ErrCodeServiceNotFound)
	ErrRoleNotFound       = internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	ErrDepartmentNotFound = internal.NewNotFoundError("department not found", internal.ErrCodeDepartmentNotFound)
	ErrWorkerNotFound     = internal.NewNotFoundError("worker not found", internal.ErrCodeWorkerNotFound)

	ErrRoleCatalogIncomplete = errors.New("role catalog incomplete")
)
