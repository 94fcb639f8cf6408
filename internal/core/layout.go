package core

import "path/filepath"

// Fixed locations inside a barclamp directory.
var (
	DataDir               = filepath.Join("chef", "data_bags", "crowbar")
	AttributeFragmentPath = filepath.Join("schema", "attributes.yml")
)

const (
	SchemaSuffix     = ".schema"
	TemplateIDPrefix = "bc-template-"
)

// TemplateID is the id a barclamp's configuration template must carry.
func TemplateID(manifestName string) string {
	return TemplateIDPrefix + manifestName
}

// TemplatePath is the configuration template of the barclamp at dir.
func TemplatePath(dir string, manifestName string) string {
	return filepath.Join(dir, DataDir, TemplateID(manifestName)+".json")
}

// TemplateSchemaPath is the explicit schema of the configuration template.
func TemplateSchemaPath(dir string, manifestName string) string {
	return filepath.Join(dir, DataDir, TemplateID(manifestName)+SchemaSuffix)
}
