package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowbar-packages/internal/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newModule writes a minimal barclamp and returns its directory.
func newModule(t *testing.T, root string, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	writeFile(t, filepath.Join(dir, types.ManifestFileName), "barclamp:\n  name: "+name+"\n")
	return dir
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestRootCommandFlags(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"type", "dest", "validate-only"} {
		assert.NotNil(t, root.Flags().Lookup(name), "missing flag: %s", name)
	}
	for _, name := range []string{"config", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag: %s", name)
	}
	assert.Equal(t, "archive", root.Flags().Lookup("type").DefValue)
	assert.Equal(t, ".", root.Flags().Lookup("dest").DefValue)
}

func TestResolveString(t *testing.T) {
	resetViper(t)
	viper.Set("test_key", "from-config")

	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		set      bool
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value falls back to config",
			expected: "from-config",
		},
		{
			name:     "unchanged flag falls back to config",
			cmd:      &cobra.Command{Use: "test"},
			value:    "default",
			expected: "from-config",
		},
		{
			name:     "changed flag wins",
			cmd:      &cobra.Command{Use: "test"},
			value:    "explicit",
			set:      true,
			expected: "explicit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd != nil {
				tt.cmd.Flags().String("test-flag", "", "test flag")
				if tt.set {
					require.NoError(t, tt.cmd.Flags().Set("test-flag", tt.value))
				}
			}
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveBool(t *testing.T) {
	resetViper(t)

	assert.True(t, resolveBool(nil, true, "test_key", "test-flag"))
	assert.False(t, resolveBool(nil, false, "test_key", "test-flag"))

	viper.Set("test_key", true)
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("test-flag", false, "test flag")
	assert.True(t, resolveBool(cmd, false, "test_key", "test-flag"), "config applies when flag unset")

	require.NoError(t, cmd.Flags().Set("test-flag", "false"))
	assert.False(t, resolveBool(cmd, false, "test_key", "test-flag"), "explicit flag wins")
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")
	assert.False(t, flagChanged(nil, ""), "nil cmd with empty name")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	cmd.PersistentFlags().String("persistent", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")

	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
	require.NoError(t, cmd.PersistentFlags().Set("persistent", "val"))
	assert.True(t, flagChanged(cmd, "persistent"))
}

func TestExitCodeForError(t *testing.T) {
	assert.Equal(t, 0, exitCodeForError(nil))
	assert.Equal(t, 1, exitCodeForError(assert.AnError))
	assert.Equal(t, 1, exitCodeForError(&types.ValidationFailure{}))
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, &types.ValidationFailure{Errors: []types.ValidationError{
		{Kind: types.ValidationKindSchema, Source: "a.schema", Line: 1, Column: 7, Message: "bad rule"},
		{Kind: types.ValidationKindData, Source: "a.json", Path: "x.y", Message: "field is required but not present"},
	}})
	assert.Equal(t,
		"a.schema:1:7: schema error: bad rule\n"+
			"a.json: data error at x.y: field is required but not present\n",
		out.String())

	out.Reset()
	reportError(&out, assert.AnError)
	assert.Equal(t, "error: "+assert.AnError.Error()+"\n", out.String())
}

func TestRunHelpExitsOne(t *testing.T) {
	resetViper(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--help"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "crowbar-packages [flags] <module-dir>...")
	assert.Contains(t, stdout.String(), "--validate-only")
}

func TestRunVersion(t *testing.T) {
	resetViper(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "dev")
}

func TestRunRequiresModule(t *testing.T) {
	resetViper(t)
	var stdout, stderr bytes.Buffer

	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "requires at least 1 arg")
}

func TestRunUnknownType(t *testing.T) {
	resetViper(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--type", "zip", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `unknown package type "zip"`)
}

func TestRunMissingBaseDir(t *testing.T) {
	resetViper(t)
	t.Setenv("CROWBAR_PACKAGES_BASE_DIR", "")
	module := newModule(t, t.TempDir(), "crowbar")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--validate-only", module}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "CROWBAR_PACKAGES_BASE_DIR")
}

func TestRunValidateOnly(t *testing.T) {
	resetViper(t)
	root := t.TempDir()
	t.Setenv("CROWBAR_PACKAGES_BASE_DIR", root)
	module := newModule(t, root, "crowbar")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--validate-only", module}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
}

func TestRunValidationErrorsOnePerLine(t *testing.T) {
	resetViper(t)
	root := t.TempDir()
	t.Setenv("CROWBAR_PACKAGES_BASE_DIR", root)
	module := newModule(t, root, "network")
	dataDir := filepath.Join(module, "chef", "data_bags", "crowbar")
	writeFile(t, filepath.Join(dataDir, "broken.schema"), "type: sequence\n")
	writeFile(t, filepath.Join(dataDir, "other.schema"), "type: map\nmapping:\n  name: { type: str, required: true }\n")
	writeFile(t, filepath.Join(dataDir, "other.yml"), "label: x\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--log-level", "error", "--validate-only", module}, &stdout, &stderr)
	assert.Equal(t, 1, code)

	var reported []string
	for _, line := range strings.Split(stderr.String(), "\n") {
		if strings.Contains(line, " error") && strings.Contains(line, dataDir) {
			reported = append(reported, line)
		}
	}
	require.GreaterOrEqual(t, len(reported), 2, stderr.String())
	assert.Contains(t, reported[0], "broken.schema")
	assert.Contains(t, stderr.String(), "schema error")
	assert.Contains(t, stderr.String(), "data error")
}

func TestRunConfigFile(t *testing.T) {
	resetViper(t)
	root := t.TempDir()
	module := newModule(t, root, "crowbar")
	configPath := filepath.Join(root, "crowbar-packages.yaml")
	writeFile(t, configPath, "base_dir: "+root+"\ntype: deb\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--config", configPath, "--validate-only", module}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "deb", viper.GetString("type"))
}

func TestRunMissingConfigFile(t *testing.T) {
	resetViper(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to read config file")
}
