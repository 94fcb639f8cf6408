package integration

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowbar-packages/internal/adapters"
	"crowbar-packages/internal/app"
	"crowbar-packages/internal/types"
	"crowbar-packages/tests/testutil"
)

var buildTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(_ context.Context, _ string, _ string, _ ...string) ([]byte, error) {
	r.calls++
	return nil, nil
}

func newService(f testutil.Fixture, config app.Config) app.Service {
	config.BaseDir = f.BaseDir
	config.Dest = f.DestDir
	config.TempDir = f.TempDir
	service := app.NewService(config)
	service.Clock = func() time.Time { return buildTime }
	return service
}

func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	reader := tar.NewReader(gz)

	var names []string
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, strings.TrimSuffix(header.Name, "/"))
	}
	return names
}

// TestPackageArchiveFlow runs validation, dependency resolution and the
// archive backend against real barclamp directories.
func TestPackageArchiveFlow(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}
	f := testutil.NewFixture(t)
	service := newService(f, app.Config{})

	result, err := service.Package(t.Context(), app.PackageRequest{
		Barclamps: f.Dirs("crowbar", "network", "dns"),
		Backend:   types.BackendArchive,
	})
	require.NoError(t, err)
	require.True(t, result.Built)

	for _, name := range []string{"crowbar", "network", "dns"} {
		assert.FileExists(t, filepath.Join(f.DestDir, name+".tar.gz"))
	}
	entries := archiveEntries(t, filepath.Join(f.DestDir, "dns.tar.gz"))
	assert.Contains(t, entries, "dns/"+types.ManifestFileName)
	assert.Contains(t, entries, "dns/chef/data_bags/crowbar/bc-template-dns.json")

	tmp, err := os.ReadDir(f.TempDir)
	require.NoError(t, err)
	assert.Empty(t, tmp, "synthesized schema was not removed")
}

// TestPackageDebFlow drives the deb backend with a stand-in for
// dpkg-buildpackage that records where and how it was called.
func TestPackageDebFlow(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	f := testutil.NewFixture(t)
	testutil.WriteFile(t, filepath.Join(f.BaseDir, "debian", "control.tmpl"),
		"Package: {{ .PackageName }}\nDepends: {{ commaList .Dependencies }}\nDescription: {{ .Description }}\n")
	testutil.WriteFile(t, filepath.Join(f.BaseDir, "debian", "rules.tmpl"), "#!/usr/bin/make -f\n%:\n\tdh $@\n")
	testutil.WriteFile(t, filepath.Join(f.BaseDir, "debian", "postinst.tmpl"),
		"#!/bin/sh\nset -e\n{{ .InstallHelper }} {{ .SourceDir }}\n")

	record := filepath.Join(f.Root, "dpkg.log")
	stub := filepath.Join(f.Root, "dpkg-buildpackage")
	testutil.WriteFile(t, stub, "#!/bin/sh\necho \"$(pwd -P) $*\" >> "+record+"\n")
	require.NoError(t, os.Chmod(stub, 0o755))

	service := newService(f, app.Config{DpkgBuildpackageBin: stub})
	_, err := service.Package(t.Context(), app.PackageRequest{
		Barclamps: f.Dirs("dns", "network", "crowbar"),
		Backend:   types.BackendDeb,
	})
	require.NoError(t, err)

	control, err := os.ReadFile(filepath.Join(f.Dir("dns"), "debian", "control"))
	require.NoError(t, err)
	assert.Equal(t,
		"Package: crowbar-barclamp-dns\n"+
			"Depends: crowbar-barclamp-bind9, crowbar-barclamp-network\n"+
			"Description: The DNS barclamp\n",
		string(control))

	changelog, err := os.ReadFile(filepath.Join(f.Dir("dns"), "debian", "changelog"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(changelog), "crowbar-barclamp-dns (20240102030405) unstable; urgency=low\n"))

	postinst, err := os.Stat(filepath.Join(f.Dir("dns"), "debian", "postinst"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), postinst.Mode().Perm())

	calls, err := os.ReadFile(record)
	require.NoError(t, err)
	var want []string
	for _, name := range []string{"dns", "network", "crowbar"} {
		dir, err := filepath.EvalSymlinks(f.Dir(name))
		require.NoError(t, err)
		want = append(want, dir+" -b -us -uc")
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSpace(string(calls)), "\n")); diff != "" {
		t.Fatalf("unexpected dpkg-buildpackage calls (-want +got):\n%s", diff)
	}
}

func TestPackageValidationBlocksBuild(t *testing.T) {
	f := testutil.NewFixture(t)
	testutil.WriteFile(t, f.DataFile("dns", "bc-template-dns.json"),
		strings.Replace(testutil.DNSTemplate, `"bc-template-dns"`, `"bc-template-ntp"`, 1))
	runner := &countingRunner{}
	service := newService(f, app.Config{})
	service.Emitters[types.BackendArchive] = adapters.NewArchiveEmitter(runner, adapters.EmitterConfig{Dest: f.DestDir})

	_, err := service.Package(t.Context(), app.PackageRequest{
		Barclamps: f.Dirs("crowbar", "network", "dns"),
		Backend:   types.BackendArchive,
	})
	var failure *types.ValidationFailure
	require.ErrorAs(t, err, &failure)

	var paths []string
	for _, validationErr := range failure.Errors {
		assert.Equal(t, types.ValidationKindData, validationErr.Kind)
		assert.Equal(t, f.DataFile("dns", "bc-template-dns.json"), validationErr.Source)
		paths = append(paths, validationErr.Path)
	}
	assert.Contains(t, paths, "id")
	assert.Zero(t, runner.calls, "no backend may run after a validation failure")
}

func TestPackageFailingToolAborts(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	f := testutil.NewFixture(t)
	service := newService(f, app.Config{TarBin: "false"})

	_, err := service.Package(t.Context(), app.PackageRequest{
		Barclamps: f.Dirs("crowbar", "network"),
		Backend:   types.BackendArchive,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false failed for barclamp crowbar")

	entries, err := os.ReadDir(f.DestDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
