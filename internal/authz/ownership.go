package authz

import "github.com/festahub/festahub/internal/shared"

// OwnershipKind distinguishes the two project ownership positions. A user
// holds at most one of them; resolution gives Owner priority when persisted
// data disagrees.
type OwnershipKind uint8

const (
	// OwnershipOwner is the primary project owner.
	OwnershipOwner OwnershipKind = iota
	// OwnershipSubOwner is the secondary owner invited by the owner.
	OwnershipSubOwner
)

// String returns the wire name of the ownership kind.
func (k OwnershipKind) String() string {
	if k == OwnershipSubOwner {
		return "sub_owner"
	}
	return "owner"
}

// OwnedProject carries what visibility predicates need to know about the
// caller's project: its identity and its targeting traits.
type OwnedProject struct {
	Kind       OwnershipKind
	ProjectID  string
	Category   shared.ProjectCategory
	Attributes shared.AttributeSet
}
