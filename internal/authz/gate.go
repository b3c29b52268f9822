package authz

import "errors"

// ErrPermissionDenied is returned whenever an actor fails a role-level check.
// It deliberately carries no detail about which permission was missing.
var ErrPermissionDenied = errors.New("authz: permission denied")

// Ensure is the role-level permission gate. Every use case must call it (or
// Authorized) with a named permission before touching a repository. Unknown
// permissions fail closed.
func Ensure(actor Actor, p Permission) error {
	if p >= permCount {
		return ErrPermissionDenied
	}
	if !actor.HasPermission(p) {
		return ErrPermissionDenied
	}
	return nil
}

// EnsureAny passes when the actor holds at least one of the permissions.
// An empty permission list denies: gates are never open by omission.
func EnsureAny(actor Actor, perms ...Permission) error {
	for _, p := range perms {
		if Ensure(actor, p) == nil {
			return nil
		}
	}
	return ErrPermissionDenied
}

// Authorized wraps a payload in a permission check, returning it unchanged
// when the gate passes.
func Authorized[T any](actor Actor, p Permission, v T) (T, error) {
	if err := Ensure(actor, p); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
