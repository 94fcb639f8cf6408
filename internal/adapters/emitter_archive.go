package adapters

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// ArchiveEmitter packs a barclamp directory into <dest>/<name>.tar.gz.
type ArchiveEmitter struct {
	Runner ports.CommandRunnerPort
	Config EmitterConfig
}

var _ ports.PackageEmitterPort = ArchiveEmitter{}

func NewArchiveEmitter(runner ports.CommandRunnerPort, config EmitterConfig) ArchiveEmitter {
	return ArchiveEmitter{Runner: runner, Config: config}
}

func (e ArchiveEmitter) Backend() types.Backend {
	return types.BackendArchive
}

func (e ArchiveEmitter) Emit(ctx context.Context, barclamp types.Barclamp) error {
	source, err := absoluteDir(barclamp.Path)
	if err != nil {
		return err
	}
	dest, err := absoluteDir(e.Config.Dest)
	if err != nil {
		return err
	}
	archive := filepath.Join(dest, barclamp.Name+".tar.gz")
	tar := binOrDefault(e.Config.TarBin, "tar")

	output, err := e.Runner.Run(ctx, filepath.Dir(source), tar, "-czf", archive, filepath.Base(source))
	if err != nil {
		return toolError(tar, barclamp, output, err)
	}
	log.Ctx(ctx).Info().Str("barclamp", barclamp.Name).Str("archive", archive).Msg("archive created")
	return nil
}
