package user

import (
	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/internal/grant"
)

// Profile is what the caller sees about themselves.
type Profile struct {
	User          *directory.User      `json:"user"`
	Worker        *directory.Worker    `json:"worker"`
	OwnedServices []*directory.Service `json:"owned_services"`
	Grants        []*grant.AccessGrant `json:"grants"`
}
