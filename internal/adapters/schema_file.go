package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// SchemaFileAdapter reads attribute fragments and stages synthesized
// schemas below TempDir.
type SchemaFileAdapter struct {
	TempDir string
}

var _ ports.SchemaStoragePort = SchemaFileAdapter{}

func NewSchemaFileAdapter(tempDir string) SchemaFileAdapter {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return SchemaFileAdapter{TempDir: tempDir}
}

func (a SchemaFileAdapter) LoadFragment(path string) (types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errbuilder.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return types.Rule{}, errbuilder.New().
			WithCode(code).
			WithMsg("attribute schema fragment not found: " + path).
			WithCause(err)
	}
	var rule types.Rule
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rule); err != nil {
		return types.Rule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse attribute schema fragment: " + path).
			WithCause(err)
	}
	return rule, nil
}

// Stage writes rule to <TempDir>/barclamp-<barclamp>/<fileName>.  The
// release func removes the whole staging directory.
func (a SchemaFileAdapter) Stage(barclamp string, fileName string, rule types.Rule) (string, func() error, error) {
	dir := filepath.Join(a.TempDir, "barclamp-"+barclamp)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create staging directory %s", dir)).
			WithCause(err)
	}
	release := func() error {
		return os.RemoveAll(dir)
	}

	data, err := yaml.Marshal(&rule)
	if err != nil {
		_ = release()
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to serialize synthesized schema").
			WithCause(err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = release()
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write synthesized schema %s", path)).
			WithCause(err)
	}
	return path, release, nil
}
