package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/spotgrid/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
service:
  name: spotgrid-test
database:
  database: spotgrid_test
classification:
  version: "t1"
  profile: production
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "spotgrid-test", cfg.Service.Name)
	assert.Equal(t, 8074, cfg.Service.Port)
	assert.Equal(t, 250, cfg.Service.BatchSize)
	assert.Equal(t, cfg.Service.CommitRatePerSecond, cfg.Service.CommitBurst)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "spotgrid_test", cfg.Database.Database)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, "t1", cfg.Classification.Version)
	assert.Equal(t, 360, cfg.Classification.ROSDurationThreshold())
	assert.Equal(t, 1020, cfg.Classification.LongDurationMinutes)
	assert.Equal(t, 0.5, cfg.Classification.Confidence.Floor)
}

func TestLoad_ProfileSelectsThreshold(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
classification:
  profile: alternate
`))
	require.NoError(t, err)

	assert.Equal(t, 240, cfg.Classification.ROSDurationThreshold())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SPOTGRID_PORT", "9999")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Service.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_UnknownFamilyLanguageIsFatal(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
classification:
  profile: production
  languages:
    - code: T
      tag: tl
  language_families:
    - name: broken
      preference: [T, ZZ]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `references unknown language "ZZ"`)
}

func TestLoad_InvalidLanguageTagIsFatal(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
classification:
  profile: production
  languages:
    - code: T
      tag: "not a tag!"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tag")
}

func TestLoad_BadWindowIsFatal(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
classification:
  profile: production
  ros_windows:
    - start: "26:00"
      end: "23:59"
`))
	require.Error(t, err)
}

func TestLoad_UnknownProfileIsFatal(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
classification:
  profile: staging
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no ros_duration_minutes entry")
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/spotgrid/config.yml")
	assert.Equal(t, "/etc/spotgrid/config.yml", config.GetConfigPath("config.yml"))
}
