package ports

import "crowbar-packages/internal/types"

// SchemaCompilerPort turns schema files into compiled schemas.
//
// Compile never stops at the first bad file: every unreadable, unparsable
// or malformed schema is reported and left out of the result, and the
// remaining files are still compiled.  When two files share a base name
// the later one wins.
type SchemaCompilerPort interface {
	Compile(paths []string) (map[string]types.CompiledSchema, []types.ValidationError)
}

// DocumentValidatorPort applies compiled schemas to data documents.
//
// A document is checked against the schema whose name equals the
// document's base name without extension; documents without a schema are
// skipped.  All documents are checked regardless of earlier failures.
type DocumentValidatorPort interface {
	Validate(schemas map[string]types.CompiledSchema, documents []string) []types.ValidationError
}

// SchemaStoragePort reads schema fragments and stages synthesized schemas
// on disk so they can go through the regular compile path.
type SchemaStoragePort interface {
	// LoadFragment reads a rule fragment.  A missing file is an error.
	LoadFragment(path string) (types.Rule, error)

	// Stage writes rule under a temporary directory scoped by barclamp
	// and returns the file path plus a release func that removes it.
	Stage(barclamp string, fileName string, rule types.Rule) (string, func() error, error)
}
