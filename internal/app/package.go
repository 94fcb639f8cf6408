package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/core"
	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

// Package validates every barclamp and, unless ValidateOnly is set,
// resolves dependencies and builds a package per barclamp.  No backend
// runs unless all barclamps validated cleanly; the build phase stops at
// the first failure.
func (s Service) Package(ctx context.Context, req PackageRequest) (PackageResult, error) {
	if log.Ctx(ctx).GetLevel() == zerolog.Disabled {
		ctx = log.Logger.WithContext(ctx)
	}
	emitter, err := s.checkRequest(req)
	if err != nil {
		return PackageResult{}, err
	}

	barclamps, registry, err := s.loadBarclamps(ctx, req.Barclamps)
	if err != nil {
		return PackageResult{}, err
	}

	if err := s.validate(ctx, barclamps); err != nil {
		return PackageResult{Barclamps: barclamps}, err
	}
	if req.ValidateOnly {
		log.Ctx(ctx).Info().Int("barclamps", len(barclamps)).Msg("validation passed")
		return PackageResult{Barclamps: barclamps}, nil
	}

	solver := core.NewDependencySolver(s.Config.PackagePrefix, s.Config.CoreBarclamp)
	for i := range barclamps {
		deps, err := solver.Solve(ctx, barclamps[i], registry, emitter.Backend())
		if err != nil {
			return PackageResult{Barclamps: barclamps}, err
		}
		barclamps[i].Dependencies = deps
	}

	for _, barclamp := range barclamps {
		if err := emitter.Emit(ctx, barclamp); err != nil {
			return PackageResult{Barclamps: barclamps}, err
		}
	}
	return PackageResult{Barclamps: barclamps, Built: true}, nil
}

// checkRequest verifies the configuration and every barclamp directory
// before any barclamp is loaded.
func (s Service) checkRequest(req PackageRequest) (ports.PackageEmitterPort, error) {
	if strings.TrimSpace(s.Config.BaseDir) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("base directory is not set (CROWBAR_PACKAGES_BASE_DIR)")
	}
	if err := requireDir(s.Config.BaseDir, "base directory"); err != nil {
		return nil, err
	}
	if err := requireDir(s.Config.Dest, "destination directory"); err != nil {
		return nil, err
	}
	emitter, ok := s.Emitters[req.Backend]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("no emitter for package type %q", req.Backend))
	}
	if len(req.Barclamps) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one barclamp directory is required")
	}
	for _, dir := range req.Barclamps {
		manifest := filepath.Join(dir, types.ManifestFileName)
		if _, err := os.Stat(manifest); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("%s is not a barclamp: %s not found", dir, types.ManifestFileName)).
				WithCause(err)
		}
	}
	return emitter, nil
}

// loadBarclamps builds every descriptor and registers its groups before
// anything is resolved, so group references do not depend on argument
// order.
func (s Service) loadBarclamps(ctx context.Context, dirs []string) ([]types.Barclamp, *core.GroupRegistry, error) {
	barclamps := make([]types.Barclamp, 0, len(dirs))
	for _, dir := range dirs {
		manifest, err := s.Manifests.LoadManifest(dir)
		if err != nil {
			return nil, nil, err
		}
		barclamps = append(barclamps, core.NewBarclamp(ctx, dir, manifest, s.Clock(), s.Config.PackagePrefix))
	}
	registry := core.BuildGroupRegistry(barclamps)
	log.Ctx(ctx).Debug().Strs("groups", registry.Groups()).Msg("group registry built")
	return barclamps, registry, nil
}

func (s Service) validate(ctx context.Context, barclamps []types.Barclamp) error {
	validator := core.BarclampValidator{
		Compiler:  s.Compiler,
		Documents: s.Documents,
		Storage:   s.Schemas,
	}
	var found []types.ValidationError
	for _, barclamp := range barclamps {
		errs, err := validator.Validate(ctx, barclamp)
		if err != nil {
			return err
		}
		found = append(found, errs...)
	}
	if len(found) > 0 {
		return &types.ValidationFailure{Errors: found}
	}
	return nil
}

func requireDir(path string, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		code := errbuilder.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("%s %s does not exist", what, path)).
			WithCause(err)
	}
	if !info.IsDir() {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s %s is not a directory", what, path))
	}
	return nil
}
