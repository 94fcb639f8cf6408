// Package testutil provides shared barclamp fixtures for the orchestrator
// and integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"crowbar-packages/internal/core"
	"crowbar-packages/internal/types"
)

// DNSTemplate is a well-formed proposal template for the dns fixture.
const DNSTemplate = `{
  "id": "bc-template-dns",
  "description": "DNS",
  "attributes": {"dns": {"domain": "example.com"}},
  "deployment": {
    "dns": {
      "crowbar-revision": 0,
      "elements": {},
      "element_order": [["dns-server"]],
      "config": {"environment": "dns-base-config", "mode": "full", "transitions": false, "transition_list": []}
    }
  }
}`

// Fixture is a scratch tree holding three barclamps (crowbar, network
// and dns) next to an empty base and destination directory.
type Fixture struct {
	Root    string
	BaseDir string
	DestDir string
	TempDir string
}

func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func NewFixture(t *testing.T) Fixture {
	t.Helper()
	root := t.TempDir()
	f := Fixture{
		Root:    root,
		BaseDir: filepath.Join(root, "base"),
		DestDir: filepath.Join(root, "dest"),
		TempDir: t.TempDir(),
	}
	require.NoError(t, os.MkdirAll(f.BaseDir, 0o755))
	require.NoError(t, os.MkdirAll(f.DestDir, 0o755))

	WriteFile(t, f.Manifest("crowbar"), "barclamp:\n  name: crowbar\n")
	WriteFile(t, f.Manifest("network"), "barclamp:\n  name: network\n  member: [infra]\n")
	WriteFile(t, f.Manifest("dns"),
		"barclamp:\n  name: dns\n  display: DNS\n  requires: ['@infra']\ndebs:\n  required_pkgs: [bind9]\n")
	WriteFile(t, filepath.Join(f.Dir("dns"), core.AttributeFragmentPath),
		"type: map\nmapping:\n  domain: { type: str, required: true }\n")
	WriteFile(t, f.DataFile("dns", core.TemplateID("dns")+".json"), DNSTemplate)
	return f
}

func (f Fixture) Dir(name string) string {
	return filepath.Join(f.Root, name)
}

func (f Fixture) Dirs(names ...string) []string {
	dirs := make([]string, 0, len(names))
	for _, name := range names {
		dirs = append(dirs, f.Dir(name))
	}
	return dirs
}

func (f Fixture) Manifest(name string) string {
	return filepath.Join(f.Dir(name), types.ManifestFileName)
}

// DataFile returns the path of a file in the barclamp's data bag directory.
func (f Fixture) DataFile(name string, file string) string {
	return filepath.Join(f.Dir(name), core.DataDir, file)
}
