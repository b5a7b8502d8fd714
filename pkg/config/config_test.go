package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/storage"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 2*time.Second, cfg.Editor.AutosaveWindow)
	assert.Equal(t, 30*time.Second, cfg.Editor.CursorStaleAfter)
	assert.Equal(t, 10, cfg.Storage.WorkspaceLimit)
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[server]
addr = ":9090"

[storage]
backend = "redis"

[editor]
autosave_window = "500ms"

[redis]
addr = "cache:6379"
db = 2
`))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Editor.AutosaveWindow)
	assert.Equal(t, Default().Editor.CursorStaleAfter, cfg.Editor.CursorStaleAfter)

	sc := cfg.StoreConfig()
	assert.Equal(t, "redis", sc.Backend)
	assert.Equal(t, "cache:6379", sc.Redis.Addr)
	assert.Equal(t, 2, sc.Redis.DB)
	assert.Equal(t, "flow:", sc.Redis.Prefix)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `[server`, "parse config"},
		{"unknown key", "[server]\nport = 1", "server.port"},
		{"bad backend", "[storage]\nbackend = \"sqlite\"", "storage.backend"},
		{"bad theme", "[editor]\ntheme = \"neon\"", "editor.theme"},
		{"zero window", "[editor]\nautosave_window = \"0s\"", "editor.autosavewindow"},
		{"bad endpoint", "[generator]\nendpoint = \"not a url\"", "generator.endpoint"},
		{"file without dir", "[storage]\nbackend = \"file\"\ndir = \"\"", "storage.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// A missing default file is not an error.
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)

	// A missing explicit file is.
	_, err = Load(filepath.Join(dir, "nope.toml"))
	assert.Error(t, err)

	path := DefaultPath()
	assert.Equal(t, filepath.Join(dir, "flow", "config.toml"), path)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[collab]\nbackend = \"redis\"\n"), 0o644))

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Collab.Backend)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := Decode(strings.NewReader("[storage]\ndir = \"~/maps\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "maps"), cfg.Storage.Dir)
}

func TestEncodeRoundTrip(t *testing.T) {
	want := Default()
	want.Server.AllowedOrigins = []string{"http://localhost:5173"}
	want.Generator.Endpoint = "https://gen.example.com/v1/maps"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
