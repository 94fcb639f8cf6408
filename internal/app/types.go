package app

import "crowbar-packages/internal/types"

type PackageRequest struct {
	// Barclamps are barclamp directories in command line order.
	Barclamps    []string
	Backend      types.Backend
	ValidateOnly bool
}

type PackageResult struct {
	Barclamps []types.Barclamp
	// Built is false when the run stopped after validation.
	Built bool
}
