package adapters

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

//go:embed rule_meta.cue
var ruleMetaSchema string

const schemaFileSuffix = ".schema"

// CUESchemaAdapter compiles rule based schema files to CUE definitions
// and validates JSON and YAML documents against them.  Schemas it
// returns are only usable with the same adapter.
type CUESchemaAdapter struct {
	ctx  *cue.Context
	meta cue.Value
}

var (
	_ ports.SchemaCompilerPort    = (*CUESchemaAdapter)(nil)
	_ ports.DocumentValidatorPort = (*CUESchemaAdapter)(nil)
)

func NewCUESchemaAdapter() *CUESchemaAdapter {
	ctx := cuecontext.New()
	meta := ctx.CompileString(ruleMetaSchema, cue.Filename("rule_meta.cue"))
	if meta.Err() != nil {
		panic(fmt.Sprintf("rule meta schema does not compile: %v", meta.Err()))
	}
	return &CUESchemaAdapter{
		ctx:  ctx,
		meta: meta.LookupPath(cue.ParsePath("#Rule")),
	}
}

func (a *CUESchemaAdapter) Compile(paths []string) (map[string]types.CompiledSchema, []types.ValidationError) {
	compiled := map[string]types.CompiledSchema{}
	var found []types.ValidationError
	for _, path := range paths {
		schema, errs := a.compileFile(path)
		if len(errs) > 0 {
			found = append(found, errs...)
			continue
		}
		if previous, ok := compiled[schema.Name]; ok {
			log.Debug().
				Str("schema", schema.Name).
				Str("previous", previous.Source).
				Str("source", path).
				Msg("schema name collision, later file wins")
		}
		compiled[schema.Name] = schema
	}
	return compiled, found
}

func (a *CUESchemaAdapter) compileFile(path string) (types.CompiledSchema, []types.ValidationError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CompiledSchema{}, []types.ValidationError{{
			Kind:    types.ValidationKindSchema,
			Source:  path,
			Message: fmt.Sprintf("failed to read schema: %v", err),
		}}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return types.CompiledSchema{}, yamlSyntaxErrors(types.ValidationKindSchema, path, err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return types.CompiledSchema{}, convertCUEErrors(types.ValidationKindSchema, path, err)
	}
	value := a.ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return types.CompiledSchema{}, convertCUEErrors(types.ValidationKindSchema, path, err)
	}
	if err := a.meta.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return types.CompiledSchema{}, convertCUEErrors(types.ValidationKindSchema, path, err)
	}

	var rule types.Rule
	if root.Kind != 0 {
		if err := root.Decode(&rule); err != nil {
			line, column := nodePosition(&root, nil)
			return types.CompiledSchema{}, []types.ValidationError{{
				Kind:    types.ValidationKindSchema,
				Source:  path,
				Line:    line,
				Column:  column,
				Message: fmt.Sprintf("failed to decode schema: %v", err),
			}}
		}
	}

	checker := &ruleChecker{source: path, root: &root}
	checker.check(&rule, nil)
	if len(checker.found) > 0 {
		return types.CompiledSchema{}, checker.found
	}

	source := translateRule(&rule)
	definition := a.ctx.CompileString(source, cue.Filename(path+".cue")).LookupPath(cue.ParsePath(SchemaDefinition))
	if err := definition.Err(); err != nil {
		log.Debug().Str("schema", path).Str("cue", source).Msg("translated schema rejected")
		return types.CompiledSchema{}, convertCUEErrors(types.ValidationKindSchema, path, err)
	}

	return types.CompiledSchema{
		Name:   strings.TrimSuffix(filepath.Base(path), schemaFileSuffix),
		Source: path,
		Rule:   rule,
		Value:  definition,
	}, nil
}

func (a *CUESchemaAdapter) Validate(schemas map[string]types.CompiledSchema, documents []string) []types.ValidationError {
	var found []types.ValidationError
	for _, path := range documents {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		schema, ok := schemas[name]
		if !ok {
			continue
		}
		found = append(found, a.validateDocument(schema, path)...)
	}
	return found
}

func (a *CUESchemaAdapter) validateDocument(schema types.CompiledSchema, path string) []types.ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []types.ValidationError{{
			Kind:    types.ValidationKindData,
			Source:  path,
			Message: fmt.Sprintf("failed to read document: %v", err),
		}}
	}

	var document cue.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		expr, err := cuejson.Extract(path, data)
		if err != nil {
			return convertCUEErrors(types.ValidationKindData, path, err)
		}
		document = a.ctx.BuildExpr(expr)
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return yamlSyntaxErrors(types.ValidationKindData, path, err)
		}
		file, err := cueyaml.Extract(path, data)
		if err != nil {
			return convertCUEErrors(types.ValidationKindData, path, err)
		}
		document = a.ctx.BuildFile(file)
	}
	if err := document.Err(); err != nil {
		return convertCUEErrors(types.ValidationKindData, path, err)
	}

	if err := schema.Value.Unify(document).Validate(cue.Concrete(true)); err != nil {
		found := convertCUEErrors(types.ValidationKindData, path, err)
		log.Debug().
			Str("document", path).
			Str("schema", schema.Source).
			Int("errors", len(found)).
			Msg("document does not match schema")
		return found
	}
	return nil
}

// convertCUEErrors flattens a CUE error into validation errors.  Only
// positions inside source are reported; positions in the generated schema
// mean nothing to the user.
func convertCUEErrors(kind types.ValidationKind, source string, err error) []types.ValidationError {
	var found []types.ValidationError
	for _, e := range cueerrors.Errors(err) {
		line, column := errorPosition(e, source)
		message := e.Error()
		if format, args := e.Msg(); format != "" {
			message = fmt.Sprintf(format, args...)
		}
		found = append(found, types.ValidationError{
			Kind:    kind,
			Source:  source,
			Line:    line,
			Column:  column,
			Path:    formatPath(trimDefinitions(cueerrors.Path(e))),
			Message: message,
		})
	}
	if len(found) == 0 {
		found = append(found, types.ValidationError{Kind: kind, Source: source, Message: err.Error()})
	}
	return found
}

// errorPosition prefers a position inside source and falls back to one
// without a file name, which is what parse errors carry.
func errorPosition(e cueerrors.Error, source string) (int, int) {
	positions := append([]token.Pos{e.Position()}, cueerrors.Positions(e)...)
	for _, pos := range positions {
		if pos.IsValid() && pos.Filename() == source {
			return pos.Line(), pos.Column()
		}
	}
	for _, pos := range positions {
		if pos.IsValid() && pos.Filename() == "" {
			return pos.Line(), pos.Column()
		}
	}
	return 0, 0
}

// yamlSyntaxErrors turns a yaml.v3 parse error ("yaml: line 3: ...") into
// a validation error carrying that line.
func yamlSyntaxErrors(kind types.ValidationKind, source string, err error) []types.ValidationError {
	message := strings.TrimPrefix(err.Error(), "yaml: ")
	line := 0
	if rest, ok := strings.CutPrefix(message, "line "); ok {
		if number, text, found := strings.Cut(rest, ": "); found {
			if parsed, convErr := strconv.Atoi(number); convErr == nil {
				line = parsed
				message = text
			}
		}
	}
	return []types.ValidationError{{
		Kind:    kind,
		Source:  source,
		Line:    line,
		Message: "invalid YAML: " + message,
	}}
}

func trimDefinitions(path []string) []string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return path
}

// formatPath renders ["a", "b", "0", "c"] as a.b[0].c.
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if strings.HasPrefix(part, `"`) {
			if unquoted, err := literal.Unquote(part); err == nil {
				part = unquoted
			}
		}
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
