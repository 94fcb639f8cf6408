package adapters

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// TemplateFileAdapter renders packaging templates with text/template.
// Missing keys are errors.
type TemplateFileAdapter struct{}

var _ ports.TemplateRendererPort = TemplateFileAdapter{}

func NewTemplateFileAdapter() TemplateFileAdapter {
	return TemplateFileAdapter{}
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"commaList": func(values []string) string {
		return strings.Join(values, ", ")
	},
}

func (TemplateFileAdapter) Render(templatePath string, dest string, mode uint32, data types.PackageTemplateData) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("packaging template not found: " + templatePath).
			WithCause(err)
	}
	tmpl, err := template.New(filepath.Base(templatePath)).
		Option("missingkey=error").
		Funcs(templateFuncs).
		Parse(string(raw))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse packaging template: " + templatePath).
			WithCause(err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to render %s for %s", templatePath, data.Name)).
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create directory for " + dest).
			WithCause(err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), os.FileMode(mode)); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + dest).
			WithCause(err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(dest, os.FileMode(mode)); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set mode of " + dest).
			WithCause(err)
	}
	return nil
}
