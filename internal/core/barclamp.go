package core

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/shared"
	"crowbar-packages/internal/types"
)

// NewBarclamp builds the descriptor of the barclamp at path.  The manifest
// must already have passed LoadManifest checks.
func NewBarclamp(ctx context.Context, path string, manifest types.Manifest, now time.Time, prefix string) types.Barclamp {
	manifestName := strings.TrimSpace(manifest.Barclamp.Name)
	assert.NotEmpty(ctx, manifestName, "barclamp.name must be set")

	canonical := strings.ReplaceAll(manifestName, "_", "-")
	display := strings.TrimSpace(manifest.Barclamp.Display)
	if display == "" {
		display = manifestName
	}
	description := strings.TrimSpace(manifest.Barclamp.Description)
	if description == "" {
		description = "The " + display + " barclamp"
	}

	barclamp := types.Barclamp{
		Path:          path,
		Name:          filepath.Base(filepath.Clean(path)),
		ManifestName:  manifestName,
		CanonicalName: canonical,
		DisplayName:   display,
		Description:   description,
		Groups:        shared.UniqueSortedStrings(manifest.Barclamp.Member),
		Requires:      manifest.Barclamp.Requires,
		PackageName:   shared.PrefixedPackageName(prefix, canonical),
		Version:       BuildVersion(now),
		Manifest:      manifest,
	}
	log.Ctx(ctx).Debug().
		Str("barclamp", barclamp.Name).
		Str("package", barclamp.PackageName).
		Strs("groups", barclamp.Groups).
		Msg("barclamp loaded")
	return barclamp
}
