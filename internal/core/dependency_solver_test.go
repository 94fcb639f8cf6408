package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowbar-packages/internal/types"
)

func TestDependencySolverSolve(t *testing.T) {
	registry := BuildGroupRegistry([]types.Barclamp{
		{CanonicalName: "network", Groups: []string{"core"}},
		{CanonicalName: "dns", Groups: []string{"core"}},
	})
	solver := NewDependencySolver("", "")

	tests := []struct {
		name     string
		barclamp types.Barclamp
		backend  types.Backend
		want     []string
	}{
		{
			name:     "implicit core dependency",
			barclamp: types.Barclamp{Name: "dns", CanonicalName: "dns"},
			backend:  types.BackendArchive,
			want:     []string{"crowbar-barclamp-crowbar"},
		},
		{
			name:     "core barclamp depends on nothing",
			barclamp: types.Barclamp{Name: "crowbar", CanonicalName: "crowbar"},
			backend:  types.BackendArchive,
			want:     []string{},
		},
		{
			name: "literals groups and backend packages",
			barclamp: types.Barclamp{
				Name:          "nova",
				CanonicalName: "nova",
				Requires:      []string{"@core", "keystone", "dns", " "},
				Manifest: types.Manifest{
					Debs: types.BackendPackages{RequiredPkgs: []string{"libvirt_bin", ""}},
					Rpms: types.BackendPackages{RequiredPkgs: []string{"qemu"}},
				},
			},
			backend: types.BackendDeb,
			want: []string{
				"crowbar-barclamp-dns",
				"crowbar-barclamp-keystone",
				"crowbar-barclamp-libvirt-bin",
				"crowbar-barclamp-network",
			},
		},
		{
			name: "rpm packages",
			barclamp: types.Barclamp{
				Name:          "nova",
				CanonicalName: "nova",
				Requires:      []string{"database_server"},
				Manifest: types.Manifest{
					Rpms: types.BackendPackages{RequiredPkgs: []string{"qemu"}},
				},
			},
			backend: types.BackendRPM,
			want:    []string{"crowbar-barclamp-database-server", "crowbar-barclamp-qemu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := solver.Solve(t.Context(), tt.barclamp, registry, tt.backend)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected dependencies (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDependencySolverUnknownGroup(t *testing.T) {
	solver := NewDependencySolver("crowbar-barclamp", "crowbar")
	barclamp := types.Barclamp{Name: "nova", CanonicalName: "nova", Requires: []string{"@storage"}}

	_, err := solver.Solve(t.Context(), barclamp, NewGroupRegistry(), types.BackendArchive)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), `unknown group "storage"`)
}

func TestDependencySolverCustomCore(t *testing.T) {
	solver := NewDependencySolver("acme", "platform")

	got, err := solver.Solve(t.Context(), types.Barclamp{CanonicalName: "dns"}, NewGroupRegistry(), types.BackendRPM)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-platform"}, got)

	got, err = solver.Solve(t.Context(), types.Barclamp{CanonicalName: "platform"}, NewGroupRegistry(), types.BackendRPM)
	require.NoError(t, err)
	assert.Empty(t, got)
}
