package adapters

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// RPMSpecTemplate is the spec file template below the base dir.
var RPMSpecTemplate = filepath.Join("rpm", "barclamp.spec.tmpl")

// RPMEmitter renders <package>.spec into the barclamp directory and runs
// rpmbuild there.
type RPMEmitter struct {
	Runner   ports.CommandRunnerPort
	Renderer ports.TemplateRendererPort
	Config   EmitterConfig
}

var _ ports.PackageEmitterPort = RPMEmitter{}

func NewRPMEmitter(runner ports.CommandRunnerPort, renderer ports.TemplateRendererPort, config EmitterConfig) RPMEmitter {
	return RPMEmitter{Runner: runner, Renderer: renderer, Config: config}
}

func (e RPMEmitter) Backend() types.Backend {
	return types.BackendRPM
}

func (e RPMEmitter) Emit(ctx context.Context, barclamp types.Barclamp) error {
	source, err := absoluteDir(barclamp.Path)
	if err != nil {
		return err
	}
	specName := barclamp.PackageName + ".spec"
	data := templateData(barclamp, source, e.Config, types.BackendRPM)
	if err := e.Renderer.Render(filepath.Join(e.Config.BaseDir, RPMSpecTemplate), filepath.Join(source, specName), 0o644, data); err != nil {
		return err
	}

	rpmbuild := binOrDefault(e.Config.RpmbuildBin, "rpmbuild")
	output, err := e.Runner.Run(ctx, source, rpmbuild, "-bb", "--define", "_sourcedir "+source, specName)
	if err != nil {
		return toolError(rpmbuild, barclamp, output, err)
	}
	log.Ctx(ctx).Info().Str("barclamp", barclamp.Name).Str("package", barclamp.PackageName).Msg("rpm built")
	return nil
}
