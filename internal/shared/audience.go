package shared

import (
	"fmt"
	"strings"
)

// ProjectCategory classifies a project for audience targeting.
type ProjectCategory uint8

const (
	CategoryGeneral ProjectCategory = iota
	CategoryStage
	CategoryFoods
	CategoryCooking
	CategoryExhibit

	categoryCount
)

var categoryNames = [categoryCount]string{
	CategoryGeneral: "general",
	CategoryStage:   "stage",
	CategoryFoods:   "foods",
	CategoryCooking: "cooking",
	CategoryExhibit: "exhibit",
}

// String returns the stored name of the category.
func (c ProjectCategory) String() string {
	if c >= categoryCount {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseProjectCategory converts a stored name back into a category.
func ParseProjectCategory(s string) (ProjectCategory, error) {
	for c := ProjectCategory(0); c < categoryCount; c++ {
		if categoryNames[c] == s {
			return c, nil
		}
	}
	return CategoryGeneral, fmt.Errorf("shared: unknown project category %q", s)
}

// AllProjectCategories lists every category.
func AllProjectCategories() []ProjectCategory {
	cats := make([]ProjectCategory, 0, categoryCount)
	for c := ProjectCategory(0); c < categoryCount; c++ {
		cats = append(cats, c)
	}
	return cats
}

// CategorySet is a set of project categories used to target announcements
// and forms. The empty set targets every category.
type CategorySet struct {
	bits uint8
}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cats ...ProjectCategory) CategorySet {
	var s CategorySet
	for _, c := range cats {
		if c < categoryCount {
			s.bits |= 1 << c
		}
	}
	return s
}

// Contains reports whether c is targeted. An empty set targets everything.
func (s CategorySet) Contains(c ProjectCategory) bool {
	if s.bits == 0 {
		return true
	}
	if c >= categoryCount {
		return false
	}
	return s.bits&(1<<c) != 0
}

// IsEmpty reports whether the set targets every category.
func (s CategorySet) IsEmpty() bool {
	return s.bits == 0
}

// Slice returns the explicitly targeted categories in declaration order.
func (s CategorySet) Slice() []ProjectCategory {
	var cats []ProjectCategory
	for c := ProjectCategory(0); c < categoryCount; c++ {
		if s.bits&(1<<c) != 0 {
			cats = append(cats, c)
		}
	}
	return cats
}

// ProjectAttribute is a cross-cutting project trait used for targeting in
// addition to the category.
type ProjectAttribute uint8

const (
	AttributeAcademic ProjectAttribute = iota
	AttributeArtistic
	AttributeOutdoor
	AttributeIndoor
	AttributeCommittee

	attributeCount
)

var attributeNames = [attributeCount]string{
	AttributeAcademic:  "academic",
	AttributeArtistic:  "artistic",
	AttributeOutdoor:   "outdoor",
	AttributeIndoor:    "indoor",
	AttributeCommittee: "committee",
}

// String returns the stored name of the attribute.
func (a ProjectAttribute) String() string {
	if a >= attributeCount {
		return "unknown"
	}
	return attributeNames[a]
}

// ParseProjectAttribute converts a stored name back into an attribute.
func ParseProjectAttribute(s string) (ProjectAttribute, error) {
	for a := ProjectAttribute(0); a < attributeCount; a++ {
		if attributeNames[a] == s {
			return a, nil
		}
	}
	return AttributeAcademic, fmt.Errorf("shared: unknown project attribute %q", s)
}

// AttributeSet is a set of project attributes. As targeting, the empty set
// matches every project.
type AttributeSet struct {
	bits uint8
}

// NewAttributeSet builds a set from the given attributes.
func NewAttributeSet(attrs ...ProjectAttribute) AttributeSet {
	var s AttributeSet
	for _, a := range attrs {
		if a < attributeCount {
			s.bits |= 1 << a
		}
	}
	return s
}

// Contains reports whether a is in the set. Unlike targeting matches this is
// a plain membership test; the empty set contains nothing.
func (s AttributeSet) Contains(a ProjectAttribute) bool {
	if a >= attributeCount {
		return false
	}
	return s.bits&(1<<a) != 0
}

// Matches reports whether a project holding attrs is targeted by s. An empty
// targeting set matches every project; otherwise at least one attribute must
// overlap.
func (s AttributeSet) Matches(attrs AttributeSet) bool {
	if s.bits == 0 {
		return true
	}
	return s.bits&attrs.bits != 0
}

// IsEmpty reports whether no attribute is set.
func (s AttributeSet) IsEmpty() bool {
	return s.bits == 0
}

// Slice returns the attributes present in declaration order.
func (s AttributeSet) Slice() []ProjectAttribute {
	var attrs []ProjectAttribute
	for a := ProjectAttribute(0); a < attributeCount; a++ {
		if s.bits&(1<<a) != 0 {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// String renders the set for logs.
func (s AttributeSet) String() string {
	names := make([]string, 0, attributeCount)
	for _, a := range s.Slice() {
		names = append(names, a.String())
	}
	return strings.Join(names, ",")
}
