package types

// GroupReferencePrefix marks a requires entry that names a group instead
// of a barclamp.
const GroupReferencePrefix = "@"

// Barclamp is the descriptor built for one command line argument.  All
// fields are fixed at construction except Dependencies, which the
// dependency solver sets once.
type Barclamp struct {
	// Path is the directory exactly as given on the command line.
	Path string
	// Name is the directory base name; it identifies the barclamp in
	// error messages and names its archive.
	Name string

	ManifestName  string
	CanonicalName string
	DisplayName   string
	Description   string
	Groups        []string
	Requires      []string

	PackageName string
	// Version is the UTC timestamp taken when the descriptor was built.
	Version string

	Manifest     Manifest
	Dependencies []string
}
