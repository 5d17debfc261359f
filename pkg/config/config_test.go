/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/hostsentry/pkg/collector"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

const yamlConfig = `
aggregator_host: graylog.internal
aggregator_port: 12202
watched_paths:
  - /etc/shadow
  - /etc/sudoers
compression: gzip
interval: 5m
logging:
  level: debug
`

const jsonConfig = `{
  "aggregator_host": "graylog.internal",
  "aggregator_port": 12202,
  "watched_paths": ["/etc/shadow", "/etc/sudoers"],
  "compression": "gzip",
  "interval": "5m",
  "logging": {"level": "debug"}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func load(t *testing.T, path string) (*collector.Config, error) {
	t.Helper()

	cfg := collector.DefaultConfig()
	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, cfg)

	return cfg, err
}

func TestYAMLAndJSONLoadTheSameConfig(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	fromYAML, err := load(t, writeFile(t, "hostsentry.yaml", yamlConfig))
	require.NoError(t, err)

	fromJSON, err := load(t, writeFile(t, "hostsentry.json", jsonConfig))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, "graylog.internal", fromYAML.AggregatorHost)
	assert.Equal(t, 12202, fromYAML.AggregatorPort)
	assert.Equal(t, []string{"/etc/shadow", "/etc/sudoers"}, fromYAML.WatchedPaths)
	assert.Equal(t, "debug", fromYAML.Logging.Level)
	assert.Equal(t, models.Duration(5*time.Minute), fromYAML.Interval)

	// Absent keys keep their defaults.
	assert.Equal(t, "./logs", fromYAML.LogDirectory)
	assert.Equal(t, []string{"nmap", "metasploit", "john", "hashcat"}, fromYAML.SuspiciousProcessNames)
	assert.Equal(t, []string{"sudo", "-n"}, fromYAML.PrivilegedCommand)
}

func TestEmptyPathKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, collector.DefaultConfig(), cfg)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	_, err := load(t, writeFile(t, "bad.yml", "aggregator_port: 99999\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregator_port")
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	_, err := load(t, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = load(t, writeFile(t, "broken.json", "{"))
	require.Error(t, err)

	t.Setenv("CONFIG_SOURCE", "consul")

	_, err = load(t, "")
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("HOSTSENTRY_CONFIG_JSON", "")
	t.Setenv("HOSTSENTRY_AGGREGATOR_HOST", "10.1.2.3")
	t.Setenv("HOSTSENTRY_AGGREGATOR_PORT", "5140")
	t.Setenv("HOSTSENTRY_SUSPICIOUS_PROCESS_NAMES", "nmap, masscan")
	t.Setenv("HOSTSENTRY_PRIVILEGED_COMMAND", "")
	t.Setenv("HOSTSENTRY_LOGGING_DEBUG", "true")
	t.Setenv("HOSTSENTRY_INTERVAL", "30s")

	cfg, err := load(t, "ignored.json")
	require.NoError(t, err)

	assert.Equal(t, "10.1.2.3", cfg.AggregatorHost)
	assert.Equal(t, 5140, cfg.AggregatorPort)
	assert.Equal(t, []string{"nmap", "masscan"}, cfg.SuspiciousProcessNames)
	assert.Empty(t, cfg.PrivilegedCommand)
	assert.True(t, cfg.Logging.Debug)
	assert.Equal(t, models.Duration(30*time.Second), cfg.Interval)
	assert.Equal(t, "/var/log/auth.log", cfg.AuthLogPath)
}

func TestEnvSourceConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "EDGE_")
	t.Setenv("EDGE_CONFIG_JSON", `{"aggregator_host":"graylog","script_tag":"edge"}`)

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.Equal(t, "graylog", cfg.AggregatorHost)
	assert.Equal(t, "edge", cfg.ScriptTag)
	assert.Equal(t, 12201, cfg.AggregatorPort)
}

func TestEnvLoaderRejectsBadValues(t *testing.T) {
	t.Setenv("HOSTSENTRY_AGGREGATOR_PORT", "graylog")

	err := NewEnvConfigLoader(nil, DefaultEnvPrefix).Load(context.Background(), "", collector.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOSTSENTRY_AGGREGATOR_PORT")

	var notStruct int
	require.ErrorIs(t, NewEnvConfigLoader(nil, "X_").Load(context.Background(), "", &notStruct),
		ErrDstMustBePointerToStruct)
	require.ErrorIs(t, NewEnvConfigLoader(nil, "X_").Load(context.Background(), "", nil),
		ErrDstMustBeNonNilPointer)
}
