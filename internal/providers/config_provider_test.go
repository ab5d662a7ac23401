package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbd/internal/structures"
)

const configYaml = `
baseline:
  namespace: baseline
  storageDir: /tmp/fbd
  refreshInterval: 5m
  saveInterval: 1m
ledger:
  url: http://ledger.local:8080
  tag: follower-baseline
encryption:
  mode: local
  keyFile: /etc/fbd/secret.key
webServer:
  host: 127.0.0.1
  port: 8080
logger:
  level: info
  mode: 420
  dir: /var/log/fbd
cache:
  enabled: true
  size: 16
metrics:
  enabled: true
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigProvider_LoadsAndAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, configYaml)
	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, "FollowerBaselineDaemon", conf.AppName)
	assert.Equal(t, path, conf.Path)
	assert.True(t, conf.Debug)

	assert.Equal(t, "baseline", conf.Baseline.Namespace)
	assert.Equal(t, 5*time.Minute, conf.Baseline.RefreshInterval)
	assert.Equal(t, 7*24*time.Hour, conf.Baseline.NotificationWindow)
	assert.Equal(t, 30*24*time.Hour, conf.Baseline.BackdateOffset)
	assert.Equal(t, 5*time.Second, conf.Ledger.QueryTimeout)

	assert.Equal(t, "http://ledger.local:8080", conf.Ledger.URL)
	assert.Equal(t, 8080, conf.WebServer.Port)
	assert.True(t, conf.Cache.Enabled)
	assert.Equal(t, 16, conf.Cache.Size)
}

func TestConfigProvider_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, configYaml)
	t.Setenv("FBD_LOG_LEVEL", "debug")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.Logger.Level)
}

func TestConfigProvider_MissingFile(t *testing.T) {
	viper.Reset()
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: "/nonexistent/config.yaml"})
	assert.Error(t, err)
}

func TestConfigProvider_InvalidConfigRejected(t *testing.T) {
	bad := `
baseline:
  namespace: baseline
  storageDir: /tmp/fbd
  refreshInterval: 5m
  saveInterval: 1m
ledger:
  url: not-a-url
  tag: follower-baseline
encryption:
  mode: local
webServer:
  host: 127.0.0.1
  port: 8080
logger:
  level: info
  mode: 420
  dir: /var/log/fbd
`
	path := writeConfigFile(t, bad)
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}
