package adapters

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// ManifestFileAdapter loads crowbar.yml files.
type ManifestFileAdapter struct {
	validate *validator.Validate
}

var _ ports.ManifestPort = ManifestFileAdapter{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{validate: validator.New()}
}

func (a ManifestFileAdapter) LoadManifest(dir string) (types.Manifest, error) {
	path := filepath.Join(dir, types.ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Manifest{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("%s is not a barclamp: %s not found", dir, types.ManifestFileName)).
				WithCause(err)
		}
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read manifest: " + path).
			WithCause(err)
	}

	var manifest types.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse manifest yaml: " + path).
			WithCause(err)
	}
	manifest.Barclamp.Name = strings.TrimSpace(manifest.Barclamp.Name)
	if err := a.validate.Struct(manifest); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid manifest %s: %s", path, describeValidation(err))).
			WithCause(err)
	}
	return manifest, nil
}

func describeValidation(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s failed %s", manifestField(fieldError.Namespace()), fieldError.Tag()))
	}
	return strings.Join(messages, "; ")
}

// manifestField maps Manifest.Barclamp.Member[0] to barclamp.member[0].
func manifestField(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}
