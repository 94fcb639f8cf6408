package adapters

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog/log"

	"crowbar-packages/internal/ports"
)

// ExecRunner runs external tools with their working directory set to dir.
// The process working directory is never changed.
type ExecRunner struct{}

var _ ports.CommandRunnerPort = ExecRunner{}

func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	log.Debug().Str("dir", dir).Str("command", name).Strs("args", args).Msg("running command")
	return cmd.CombinedOutput()
}
