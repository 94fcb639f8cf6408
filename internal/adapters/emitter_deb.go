package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/syntax"

	"crowbar-packages/internal/core"
	"crowbar-packages/internal/ports"
	"crowbar-packages/internal/types"
)

const debMaintainer = "Crowbar Packager <crowbar@localhost>"

type debTemplate struct {
	name string
	mode uint32
}

var debTemplates = []debTemplate{
	{name: "control", mode: 0o644},
	{name: "rules", mode: 0o755},
	{name: "postinst", mode: 0o755},
}

// DebEmitter renders the debian/ directory of a barclamp and runs
// dpkg-buildpackage in it.
type DebEmitter struct {
	Runner   ports.CommandRunnerPort
	Renderer ports.TemplateRendererPort
	Config   EmitterConfig
}

var _ ports.PackageEmitterPort = DebEmitter{}

func NewDebEmitter(runner ports.CommandRunnerPort, renderer ports.TemplateRendererPort, config EmitterConfig) DebEmitter {
	return DebEmitter{Runner: runner, Renderer: renderer, Config: config}
}

func (e DebEmitter) Backend() types.Backend {
	return types.BackendDeb
}

func (e DebEmitter) Emit(ctx context.Context, barclamp types.Barclamp) error {
	built, err := core.ParseBuildVersion(barclamp.Version)
	if err != nil {
		return err
	}
	source, err := absoluteDir(barclamp.Path)
	if err != nil {
		return err
	}
	debianDir := filepath.Join(source, "debian")
	data := templateData(barclamp, source, e.Config, types.BackendDeb)
	for _, tmpl := range debTemplates {
		templatePath := filepath.Join(e.Config.BaseDir, "debian", tmpl.name+".tmpl")
		if err := e.Renderer.Render(templatePath, filepath.Join(debianDir, tmpl.name), tmpl.mode, data); err != nil {
			return err
		}
	}
	if err := checkShellScript(filepath.Join(debianDir, "postinst")); err != nil {
		return err
	}
	if err := writeChangelog(filepath.Join(debianDir, "changelog"), barclamp, built); err != nil {
		return err
	}

	dpkg := binOrDefault(e.Config.DpkgBuildpackageBin, "dpkg-buildpackage")
	output, err := e.Runner.Run(ctx, source, dpkg, "-b", "-us", "-uc")
	if err != nil {
		return toolError(dpkg, barclamp, output, err)
	}
	log.Ctx(ctx).Info().Str("barclamp", barclamp.Name).Str("package", barclamp.PackageName).Msg("deb built")
	return nil
}

// checkShellScript parses a rendered maintainer script so template
// mistakes surface before dpkg-buildpackage runs.
func checkShellScript(path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read " + path).
			WithCause(err)
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(string(script)), path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("rendered postinst is not a valid shell script").
			WithCause(err)
	}
	return nil
}

func writeChangelog(path string, barclamp types.Barclamp, built time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) unstable; urgency=low\n\n", barclamp.PackageName, barclamp.Version)
	fmt.Fprintf(&b, "  * Automated build of the %s barclamp.\n\n", barclamp.DisplayName)
	fmt.Fprintf(&b, " -- %s  %s\n", debMaintainer, built.UTC().Format(time.RFC1123Z))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	return nil
}
