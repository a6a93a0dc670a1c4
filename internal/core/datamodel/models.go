package datamodel

import (
	applicationDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/application"
	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
)

// All returns every persisted model in dependency order. Used by AutoMigrate on sqlite.
func All() []interface{} {
	return []interface{}{
		&directoryDatamodel.Department{},
		&directoryDatamodel.Position{},
		&directoryDatamodel.Worker{},
		&directoryDatamodel.User{},
		&directoryDatamodel.Role{},
		&directoryDatamodel.Service{},
		&grantDatamodel.AccessGrant{},
		&applicationDatamodel.Application{},
		&applicationDatamodel.CheckingRecord{},
	}
}
