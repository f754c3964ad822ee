package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/trace"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, taint.PolicyDefault, cfg.PolicyValue())
	assert.Equal(t, layout.Standard, cfg.Strategy)
	assert.Equal(t, CacheFile, cfg.Cache.Backend)
	assert.Nil(t, cfg.TraceOptions())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy = "TAINT_BRANCH"
strategy = "branch"

[canvas]
scale = 1200
single_branch = true

[cache]
backend = "redis"
ttl = "2h"
[cache.redis]
addr = "localhost:6379"

[server]
addr = ":9090"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, taint.PolicyTaintBranch, cfg.PolicyValue())
	assert.Equal(t, "branch", cfg.Strategy)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")

	opts := cfg.LayoutOptions()
	assert.Equal(t, 1200.0, opts.Scale)
	assert.True(t, opts.SingleBranch)
	assert.Equal(t, taint.PolicyTaintBranch, opts.Policy)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code apperrors.Code
	}{
		{"syntax", `policy = `, apperrors.ErrCodeInvalidInput},
		{"unknown key", `colour = "red"`, apperrors.ErrCodeInvalidInput},
		{"policy", `policy = "strict"`, apperrors.ErrCodeInvalidPolicy},
		{"strategy", `strategy = "radial"`, apperrors.ErrCodeUnsupportedStrategy},
		{"schema", "[trace]\nschema = \"wide\"", apperrors.ErrCodeInvalidInput},
		{"custom schema", "[trace.custom]\ntype = 1\nname = 1", apperrors.ErrCodeInvalidInput},
		{"redis addr", "[cache]\nbackend = \"redis\"", apperrors.ErrCodeInvalidInput},
		{"mongo uri", "[store]\nbackend = \"mongo\"", apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode(tt.toml, &cfg)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
		})
	}
}

func TestTraceOptions(t *testing.T) {
	cfg := Default()
	cfg.Trace.Schema = SchemaShort
	assert.Len(t, cfg.TraceOptions(), 1)

	custom := trace.DefaultSchema
	cfg.Trace.Custom = &custom
	assert.Len(t, cfg.TraceOptions(), 1)
}

func TestWrite_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Policy = string(taint.PolicyTaintBranch)
	cfg.Canvas.Scale = 640

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))

	got := Default()
	require.NoError(t, Decode(buf.String(), &got))
	assert.Equal(t, cfg, got)
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_CACHE_HOME", "/cache")
	t.Setenv("XDG_DATA_HOME", "/data")

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/cfg/taintview/config.toml", p)

	cfg := Default()
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/cache/taintview", dir)

	db, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, "/data/taintview/snapshots.db", db)

	cfg.Store.Path = "/tmp/x.db"
	db, _ = cfg.StorePath()
	assert.Equal(t, "/tmp/x.db", db)
}

func TestPaths_HomeFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	dir, err := Default().CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", AppName), dir)
}
