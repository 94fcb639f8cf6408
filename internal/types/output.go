package types

// PackageTemplateData is the value packaging templates are executed with.
type PackageTemplateData struct {
	Name         string
	ManifestName string
	PackageName  string
	DisplayName  string
	Description  string
	Version      string
	Prefix       string

	// Dependencies are the resolved barclamp package dependencies.
	Dependencies []string
	// RequiredPackages are the backend specific packages from the
	// manifest, unprefixed.
	RequiredPackages []string

	SourceDir     string
	BaseDir       string
	InstallHelper string
}
