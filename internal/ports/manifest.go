package ports

import "crowbar-packages/internal/types"

type ManifestPort interface {
	// LoadManifest reads and checks the manifest of the barclamp in dir.
	LoadManifest(dir string) (types.Manifest, error)
}
