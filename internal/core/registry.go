package core

import (
	"sort"

	"crowbar-packages/internal/types"
)

// GroupRegistry maps group names to the canonical names of the barclamps
// that declared membership.  It is filled from every descriptor of a run
// before any dependency is resolved, so argument order does not matter.
type GroupRegistry struct {
	members map[string][]string
}

func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{members: map[string][]string{}}
}

// BuildGroupRegistry registers every barclamp in one pass.
func BuildGroupRegistry(barclamps []types.Barclamp) *GroupRegistry {
	registry := NewGroupRegistry()
	for _, barclamp := range barclamps {
		registry.Register(barclamp)
	}
	return registry
}

func (r *GroupRegistry) Register(barclamp types.Barclamp) {
	for _, group := range barclamp.Groups {
		if containsString(r.members[group], barclamp.CanonicalName) {
			continue
		}
		r.members[group] = append(r.members[group], barclamp.CanonicalName)
	}
}

// Members returns the barclamps registered under group in registration
// order.  The bool is false for groups nobody joined.
func (r *GroupRegistry) Members(group string) ([]string, bool) {
	members, ok := r.members[group]
	if !ok {
		return nil, false
	}
	return append([]string(nil), members...), true
}

func (r *GroupRegistry) Groups() []string {
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsString(values []string, value string) bool {
	for _, existing := range values {
		if existing == value {
			return true
		}
	}
	return false
}
