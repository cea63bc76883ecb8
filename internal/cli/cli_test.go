package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panel-configurator/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(&out, io.Discard).RootCommand()
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-10-01")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })

	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "panelconfig 1.2.3")
	assert.Contains(t, out, "commit: abc123")
}

func TestLayoutsCommand(t *testing.T) {
	t.Run("single panel", func(t *testing.T) {
		out, err := run(t, "layouts", "--panel", "sp")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "SP  9 cells"), out)
		assert.Contains(t, out, "rule forbid")
		assert.NotContains(t, out, "X2V")
	})

	t.Run("all panels", func(t *testing.T) {
		out, err := run(t, "layouts")
		require.NoError(t, err)
		for _, pt := range []string{"SP", "TAG", "IDPG", "DPH", "DPV", "X2V"} {
			assert.Contains(t, out, pt+"  ")
		}
		assert.Contains(t, out, "extra")
	})

	t.Run("unknown panel", func(t *testing.T) {
		_, err := run(t, "layouts", "--panel", "nope")
		assert.Error(t, err)
	})
}

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty panel", []string{"--panel", "SP", "--cell", "4", "--icon", "L1"}, "accepted: L1 at cell 4 on SP"},
		{"left column", []string{"--panel", "SP", "--cell", "0", "--icon", "G3"}, "rejected (zone_violation)"},
		{"second pir", []string{"--panel", "DPH", "--with", "7=PIR1", "--cell", "16", "--icon", "PIR2"}, "rejected (singleton_violation)"},
		{"occupied", []string{"--panel", "SP", "--with", "4=L1", "--cell", "4", "--icon", "L2"}, "rejected (cell_occupied)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"check"}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	t.Run("bad --with", func(t *testing.T) {
		_, err := run(t, "check", "--panel", "SP", "--with", "L1", "--icon", "L2")
		assert.ErrorContains(t, err, "CELL=ICON")
	})

	t.Run("unknown icon", func(t *testing.T) {
		_, err := run(t, "check", "--panel", "SP", "--icon", "NOPE")
		assert.Error(t, err)
	})

	t.Run("panel required", func(t *testing.T) {
		_, err := run(t, "check", "--icon", "L1")
		assert.Error(t, err)
	})
}

func TestNewServerMemoryCart(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetDataDir(t.TempDir())
	cfg.Storage.CartBackend = config.CartBackendMemory

	var logs bytes.Buffer
	srv, err := newServer(cfg, New(io.Discard, &logs).Logger)
	require.NoError(t, err)
	defer srv.Close()

	assert.Equal(t, cfg.GetServerAddr(), srv.http.Addr)
	assert.DirExists(t, filepath.Join(cfg.GetDataDir(), "exports"))
	assert.Contains(t, logs.String(), "in-memory cart")

	var banner bytes.Buffer
	printBanner(&banner, cfg, "panelconfig.yaml", srv.embedded)
	assert.Contains(t, banner.String(), "Panel Configurator Server")
	assert.Contains(t, banner.String(), "memory")
}
