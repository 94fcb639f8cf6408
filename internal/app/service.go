package app

import (
	"time"

	"crowbar-packages/internal/adapters"
	"crowbar-packages/internal/core"
	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// Config carries the resolved settings of one run.
type Config struct {
	BaseDir       string
	Dest          string
	PackagePrefix string
	CoreBarclamp  string
	TempDir       string

	TarBin              string
	RpmbuildBin         string
	DpkgBuildpackageBin string
}

type Service struct {
	Manifests ports.ManifestPort
	Compiler  ports.SchemaCompilerPort
	Documents ports.DocumentValidatorPort
	Schemas   ports.SchemaStoragePort
	Emitters  map[types.Backend]ports.PackageEmitterPort
	Config    Config
	Clock     func() time.Time
}

func NewService(config Config) Service {
	if config.PackagePrefix == "" {
		config.PackagePrefix = core.DefaultPackagePrefix
	}
	if config.CoreBarclamp == "" {
		config.CoreBarclamp = core.DefaultCoreBarclamp
	}
	if config.Dest == "" {
		config.Dest = "."
	}
	schemas := adapters.NewCUESchemaAdapter()
	runner := adapters.NewExecRunner()
	renderer := adapters.NewTemplateFileAdapter()
	emitterConfig := adapters.EmitterConfig{
		BaseDir:             config.BaseDir,
		Dest:                config.Dest,
		Prefix:              config.PackagePrefix,
		TarBin:              config.TarBin,
		RpmbuildBin:         config.RpmbuildBin,
		DpkgBuildpackageBin: config.DpkgBuildpackageBin,
	}
	return Service{
		Manifests: adapters.NewManifestFileAdapter(),
		Compiler:  schemas,
		Documents: schemas,
		Schemas:   adapters.NewSchemaFileAdapter(config.TempDir),
		Emitters: map[types.Backend]ports.PackageEmitterPort{
			types.BackendArchive: adapters.NewArchiveEmitter(runner, emitterConfig),
			types.BackendRPM:     adapters.NewRPMEmitter(runner, renderer, emitterConfig),
			types.BackendDeb:     adapters.NewDebEmitter(runner, renderer, emitterConfig),
		},
		Config: config,
		Clock:  time.Now,
	}
}
