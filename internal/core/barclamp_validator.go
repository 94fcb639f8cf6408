package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// BarclampValidator checks the data shipped inside a barclamp.
type BarclampValidator struct {
	Compiler  ports.SchemaCompilerPort
	Documents ports.DocumentValidatorPort
	Storage   ports.SchemaStoragePort
}

// Validate runs the data directory pass and, when the barclamp ships a
// configuration template without an explicit schema, a second pass of the
// template against a synthesized schema.  The returned list is empty for a
// valid barclamp.  The error is reserved for conditions that must stop
// the run, such as a missing attribute fragment.
func (v BarclampValidator) Validate(ctx context.Context, barclamp types.Barclamp) ([]types.ValidationError, error) {
	logger := log.Ctx(ctx).With().Str("barclamp", barclamp.Name).Logger()
	found := []types.ValidationError{}

	dataDir := filepath.Join(barclamp.Path, DataDir)
	schemas, documents, err := listDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	if len(schemas) > 0 || len(documents) > 0 {
		compiled, schemaErrors := v.Compiler.Compile(schemas)
		found = append(found, schemaErrors...)
		found = append(found, v.Documents.Validate(compiled, documents)...)
		logger.Debug().
			Int("schemas", len(compiled)).
			Int("documents", len(documents)).
			Msg("data documents validated")
	}

	templatePath := TemplatePath(barclamp.Path, barclamp.ManifestName)
	if !fileExists(templatePath) || fileExists(TemplateSchemaPath(barclamp.Path, barclamp.ManifestName)) {
		return found, nil
	}
	templateErrors, err := v.validateTemplate(ctx, barclamp, templatePath)
	if err != nil {
		return nil, err
	}
	return append(found, templateErrors...), nil
}

func (v BarclampValidator) validateTemplate(ctx context.Context, barclamp types.Barclamp, templatePath string) ([]types.ValidationError, error) {
	fragmentPath := filepath.Join(barclamp.Path, AttributeFragmentPath)
	fragment, err := v.Storage.LoadFragment(fragmentPath)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeOf(err)).
			WithMsg(fmt.Sprintf("barclamp %s: cannot synthesize template schema", barclamp.Name)).
			WithCause(err)
	}

	rule := BuildTemplateSchema(barclamp.ManifestName, fragment)
	schemaPath, release, err := v.Storage.Stage(barclamp.Name, TemplateID(barclamp.ManifestName)+SchemaSuffix, rule)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", schemaPath).Msg("failed to remove synthesized schema")
		}
	}()

	compiled, found := v.Compiler.Compile([]string{schemaPath})
	found = append(found, v.Documents.Validate(compiled, []string{templatePath})...)
	log.Ctx(ctx).Debug().
		Str("barclamp", barclamp.Name).
		Int("errors", len(found)).
		Msg("configuration template validated against synthesized schema")
	return found, nil
}

// listDataDir returns the schema and document files of dir in name order.
// A missing directory has no files.
func listDataDir(dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read data directory %s", dir)).
			WithCause(err)
	}
	var schemas []string
	var documents []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case SchemaSuffix:
			schemas = append(schemas, path)
		case ".json", ".yml", ".yaml":
			documents = append(documents, path)
		}
	}
	sort.Strings(schemas)
	sort.Strings(documents)
	return schemas, documents, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
