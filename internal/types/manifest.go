package types

// ManifestFileName is the fixed name of the manifest in every barclamp
// directory.
const ManifestFileName = "crowbar.yml"

type BarclampSection struct {
	Name        string   `yaml:"name" validate:"required,printascii,excludes=/"`
	Display     string   `yaml:"display"`
	Description string   `yaml:"description,omitempty"`
	Member      []string `yaml:"member,omitempty" validate:"dive,required"`
	Requires    []string `yaml:"requires,omitempty" validate:"dive,required"`
}

type BackendPackages struct {
	RequiredPkgs []string `yaml:"required_pkgs,omitempty"`
}

// Manifest is the content of crowbar.yml.  Sections the packager does not
// use are ignored.
type Manifest struct {
	Barclamp BarclampSection `yaml:"barclamp"`
	Rpms     BackendPackages `yaml:"rpms,omitempty"`
	Debs     BackendPackages `yaml:"debs,omitempty"`
}

// RequiredPackages returns the backend specific packages declared in the
// manifest.  The archive backend has none.
func (m Manifest) RequiredPackages(backend Backend) []string {
	switch backend {
	case BackendRPM:
		return m.Rpms.RequiredPkgs
	case BackendDeb:
		return m.Debs.RequiredPkgs
	default:
		return nil
	}
}
