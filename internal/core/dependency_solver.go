package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/shared"
	"crowbar-packages/internal/types"
)

const (
	DefaultPackagePrefix = "crowbar-barclamp"
	DefaultCoreBarclamp  = "crowbar"
)

// DependencySolver computes the package dependencies of a barclamp.
type DependencySolver struct {
	Prefix       string
	CoreBarclamp string
}

func NewDependencySolver(prefix string, coreBarclamp string) DependencySolver {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPackagePrefix
	}
	if strings.TrimSpace(coreBarclamp) == "" {
		coreBarclamp = DefaultCoreBarclamp
	}
	return DependencySolver{Prefix: prefix, CoreBarclamp: coreBarclamp}
}

// Solve returns the sorted, de-duplicated, prefixed dependency list.
//
// Without requires entries every barclamp depends on the core barclamp,
// except the core barclamp itself.  Otherwise literal entries and the
// members of every @group entry are combined with the backend specific
// required packages.  An unknown group is an error.
func (s DependencySolver) Solve(ctx context.Context, barclamp types.Barclamp, registry *GroupRegistry, backend types.Backend) ([]string, error) {
	if len(barclamp.Requires) == 0 {
		if s.isCore(barclamp) {
			return []string{}, nil
		}
		return []string{shared.PrefixedPackageName(s.Prefix, s.CoreBarclamp)}, nil
	}

	var names []string
	for _, entry := range barclamp.Requires {
		trimmed := strings.TrimSpace(entry)
		if !strings.HasPrefix(trimmed, types.GroupReferencePrefix) {
			names = append(names, trimmed)
			continue
		}
		group := strings.TrimPrefix(trimmed, types.GroupReferencePrefix)
		members, ok := registry.Members(group)
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("barclamp %s requires unknown group %q", barclamp.Name, group))
		}
		names = append(names, members...)
	}
	names = append(names, barclamp.Manifest.RequiredPackages(backend)...)

	normalized := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		normalized = append(normalized, shared.NormalizePackageName(name))
	}
	unique := shared.UniqueSortedStrings(normalized)
	deps := make([]string, 0, len(unique))
	for _, name := range unique {
		deps = append(deps, shared.PrefixedPackageName(s.Prefix, name))
	}
	log.Ctx(ctx).Debug().
		Str("barclamp", barclamp.Name).
		Strs("dependencies", deps).
		Msg("dependencies resolved")
	return deps, nil
}

func (s DependencySolver) isCore(barclamp types.Barclamp) bool {
	return shared.NormalizePackageName(barclamp.CanonicalName) == shared.NormalizePackageName(s.CoreBarclamp)
}
