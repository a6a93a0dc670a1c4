package application

// PendingForOwner keeps the applications whose owner decision is still open.
func PendingForOwner(apps []*Application) []*Application {
	out := make([]*Application, 0, len(apps))
	for _, app := range apps {
		if app.State() == StateAwaitingOwner {
			out = append(out, app)
		}
	}
	return out
}

// PendingForAdmin keeps the applications approved by the owner and not yet decided by an admin.
func PendingForAdmin(apps []*Application) []*Application {
	out := make([]*Application, 0, len(apps))
	for _, app := range apps {
		if app.State() == StateAwaitingAdmin {
			out = append(out, app)
		}
	}
	return out
}
