package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, env := range []string{EnvLogLevel, EnvLogFormat, EnvAddr} {
		t.Setenv(env, "")
	}
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
server:
  addr: ":9000"
  shutdown_timeout: 3s
prototypes:
  LFC1D:
    time_sample: "30"
  1D:
    resolution: "12"
`)
	t.Setenv(EnvAddr, ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, cfg.Convert.Parallel)

	r, err := spectrum.NewRegistry()
	require.NoError(t, err)
	r.RegisterDefaults()
	require.NoError(t, cfg.ApplyPrototypes(r))

	md, _ := r.Prototype("LFC1D")
	assert.Equal(t, 30.0, md.Float(spectrum.AttrTimeSample))
	md, _ = r.Prototype("1D")
	assert.Equal(t, 12, md.Resolution())
}

func TestValidateCollectsErrors(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: loud
  format: xml
convert:
  parallel: 0
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "logging: [1, 2"))
	assert.Error(t, err)
}

func TestApplyPrototypesUnknown(t *testing.T) {
	r, err := spectrum.NewRegistry()
	require.NoError(t, err)
	r.RegisterDefaults()

	cfg := Default()
	cfg.Prototypes = map[string]map[string]string{
		"3D": {"resolution": "8"},
		"2D": {"no_such": "1", "resolution": "10"},
	}
	err = cfg.ApplyPrototypes(r)
	assert.ErrorIs(t, err, spectrum.ErrUnknownType)
	assert.Len(t, multierr.Errors(err), 2)

	md, _ := r.Prototype("2D")
	assert.Equal(t, 10, md.Resolution())
}
