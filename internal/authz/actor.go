package authz

// Actor pairs a resolved user identity with its role. Immutable once built;
// every authorization decision in the codebase is made against an Actor.
type Actor struct {
	userID string
	role   Role
}

// NewActor constructs an Actor for the given user and role.
func NewActor(userID string, role Role) Actor {
	return Actor{userID: userID, role: role}
}

// UserID returns the user id the actor was resolved from.
func (a Actor) UserID() string {
	return a.userID
}

// Role returns the actor's role.
func (a Actor) Role() Role {
	return a.role
}

// HasPermission reports whether the actor's role grants p.
func (a Actor) HasPermission(p Permission) bool {
	return PermissionsFor(a.role).Contains(p)
}
