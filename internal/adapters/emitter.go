package adapters

import (
	"fmt"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"crowbar-packages/internal/shared"
	"crowbar-packages/internal/types"
)

// InstallHelperPath is the module install helper below the base dir.
var InstallHelperPath = filepath.Join("bin", "barclamp_install")

// EmitterConfig holds the settings shared by all package emitters.
type EmitterConfig struct {
	BaseDir string
	Dest    string
	Prefix  string

	TarBin              string
	RpmbuildBin         string
	DpkgBuildpackageBin string
}

func templateData(barclamp types.Barclamp, sourceDir string, config EmitterConfig, backend types.Backend) types.PackageTemplateData {
	return types.PackageTemplateData{
		Name:             barclamp.Name,
		ManifestName:     barclamp.ManifestName,
		PackageName:      barclamp.PackageName,
		DisplayName:      barclamp.DisplayName,
		Description:      barclamp.Description,
		Version:          barclamp.Version,
		Prefix:           config.Prefix,
		Dependencies:     append([]string{}, barclamp.Dependencies...),
		RequiredPackages: shared.UniqueSortedStrings(barclamp.Manifest.RequiredPackages(backend)),
		SourceDir:        sourceDir,
		BaseDir:          config.BaseDir,
		InstallHelper:    filepath.Join(config.BaseDir, InstallHelperPath),
	}
}

func absoluteDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot resolve path %s", path)).
			WithCause(err)
	}
	return abs, nil
}

func toolError(tool string, barclamp types.Barclamp, output []byte, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("%s failed for barclamp %s", tool, barclamp.Name)).
		WithCause(shared.CommandError(output, err))
}

func binOrDefault(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
