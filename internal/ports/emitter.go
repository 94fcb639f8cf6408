package ports

import (
	"context"

	"crowbar-packages/internal/types"
)

// PackageEmitterPort turns one barclamp into a distributable artefact.
type PackageEmitterPort interface {
	Backend() types.Backend
	Emit(ctx context.Context, barclamp types.Barclamp) error
}

// CommandRunnerPort runs an external tool inside dir and returns its
// combined output.  A non-zero exit is reported as an error next to the
// output.
type CommandRunnerPort interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// TemplateRendererPort renders a packaging template from the shared
// template root into dest.
type TemplateRendererPort interface {
	Render(templatePath string, dest string, mode uint32, data types.PackageTemplateData) error
}
