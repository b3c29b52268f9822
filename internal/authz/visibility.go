package authz

// Viewer bundles an actor with its resolved project ownership for
// instance-level visibility decisions. Owned is nil when the caller holds
// no project.
type Viewer struct {
	Actor Actor
	Owned *OwnedProject
}

// OwnsProject reports whether the viewer owns or sub-owns the given project.
func (v Viewer) OwnsProject(projectID string) bool {
	return v.Owned != nil && v.Owned.ProjectID == projectID
}

// Resource is implemented by every domain entity that carries an
// instance-level visibility rule. VisibleTo must be pure: it sees only the
// loaded instance and the viewer, never a repository.
//
// Role-level gates answer "may this actor invoke this kind of operation";
// VisibleTo answers "may this actor observe this particular instance". Both
// must pass, gate first. A VisibleTo rejection is reported to callers as the
// owning module's not-found error so that hidden and absent instances stay
// indistinguishable.
type Resource interface {
	VisibleTo(v Viewer) bool
}
