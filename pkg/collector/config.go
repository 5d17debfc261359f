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

package collector

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/carverauto/hostsentry/pkg/checker/fileaudit"
	"github.com/carverauto/hostsentry/pkg/checker/procscan"
	"github.com/carverauto/hostsentry/pkg/checker/sshauth"
	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
	"github.com/carverauto/hostsentry/pkg/natsutil"
)

const (
	defaultLogDirectory   = "./logs"
	defaultAggregatorHost = "localhost"
	defaultAggregatorPort = 12201
	maxPort               = 65535

	// LogFileName is the operational log written inside the log directory.
	LogFileName = "monitor.log"

	// MinInterval keeps periodic runs in distinct seconds, since backup file
	// names have one-second resolution.
	MinInterval = time.Second
)

var (
	errMissingHost      = errors.New("aggregator_host is required")
	errInvalidPort      = errors.New("aggregator_port must be between 1 and 65535")
	errNegativeInterval = errors.New("interval must not be negative")
	errShortInterval    = errors.New("interval must be zero or at least 1s")
)

// Config is the complete collector configuration.
type Config struct {
	LogDirectory           string          `json:"log_directory" yaml:"log_directory"`
	AggregatorHost         string          `json:"aggregator_host" yaml:"aggregator_host"`
	AggregatorPort         int             `json:"aggregator_port" yaml:"aggregator_port"`
	WatchedPaths           []string        `json:"watched_paths" yaml:"watched_paths"`
	SuspiciousProcessNames []string        `json:"suspicious_process_names" yaml:"suspicious_process_names"`
	AuthLogPath            string          `json:"auth_log_path" yaml:"auth_log_path"`
	FailedLoginMarker      string          `json:"failed_login_marker" yaml:"failed_login_marker"`
	PrivilegedCommand      []string        `json:"privileged_command" yaml:"privileged_command"`
	Compression            string          `json:"compression" yaml:"compression"`
	ScriptTag              string          `json:"script_tag" yaml:"script_tag"`
	NATSURL                string          `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	NATSSubject            string          `json:"nats_subject,omitempty" yaml:"nats_subject,omitempty"`
	NATSCredsFile          string          `json:"nats_creds_file,omitempty" yaml:"nats_creds_file,omitempty"`
	MetricsTextfile        string          `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`
	// Interval between runs; zero collects once. The -interval flag overrides it.
	Interval               models.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	Logging                *logger.Config  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		LogDirectory:           defaultLogDirectory,
		AggregatorHost:         defaultAggregatorHost,
		AggregatorPort:         defaultAggregatorPort,
		WatchedPaths:           fileaudit.DefaultWatchedPaths(),
		SuspiciousProcessNames: procscan.DefaultSuspiciousNames(),
		AuthLogPath:            sshauth.DefaultAuthLogPath,
		FailedLoginMarker:      sshauth.DefaultMarker,
		PrivilegedCommand:      sshauth.DefaultPrivilegedCommand(),
		Compression:            string(gelf.CompressionNone),
		ScriptTag:              gelf.DefaultScriptTag,
		NATSSubject:            natsutil.DefaultSubject,
		Logging:                logger.DefaultConfig(),
	}
}

// Normalize fills blank values with defaults. An explicitly empty
// privileged_command is kept so grep runs without a prefix.
func (c *Config) Normalize() {
	if c.LogDirectory == "" {
		c.LogDirectory = defaultLogDirectory
	}

	if len(c.WatchedPaths) == 0 {
		c.WatchedPaths = fileaudit.DefaultWatchedPaths()
	}

	if len(c.SuspiciousProcessNames) == 0 {
		c.SuspiciousProcessNames = procscan.DefaultSuspiciousNames()
	}

	if c.AuthLogPath == "" {
		c.AuthLogPath = sshauth.DefaultAuthLogPath
	}

	if c.FailedLoginMarker == "" {
		c.FailedLoginMarker = sshauth.DefaultMarker
	}

	if c.PrivilegedCommand == nil {
		c.PrivilegedCommand = sshauth.DefaultPrivilegedCommand()
	}

	if c.Compression == "" {
		c.Compression = string(gelf.CompressionNone)
	}

	if c.ScriptTag == "" {
		c.ScriptTag = gelf.DefaultScriptTag
	}

	if c.NATSSubject == "" {
		c.NATSSubject = natsutil.DefaultSubject
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.AggregatorHost == "" {
		return errMissingHost
	}

	if c.AggregatorPort < 1 || c.AggregatorPort > maxPort {
		return fmt.Errorf("%w: %d", errInvalidPort, c.AggregatorPort)
	}

	if _, err := gelf.ParseCompression(c.Compression); err != nil {
		return err
	}

	return ValidateInterval(time.Duration(c.Interval))
}

// ValidateInterval accepts zero (a single run) or any period of at least MinInterval.
func ValidateInterval(interval time.Duration) error {
	switch {
	case interval < 0:
		return errNegativeInterval
	case interval > 0 && interval < MinInterval:
		return fmt.Errorf("%w: %s", errShortInterval, interval)
	default:
		return nil
	}
}

// LogFilePath is where the operational log is appended.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.LogDirectory, LogFileName)
}

// UDPConfig derives the emitter settings. Call after Validate.
func (c *Config) UDPConfig() gelf.UDPConfig {
	compression, _ := gelf.ParseCompression(c.Compression)

	return gelf.UDPConfig{
		Host:        c.AggregatorHost,
		Port:        c.AggregatorPort,
		Compression: compression,
		Source:      gelf.Source{ScriptTag: c.ScriptTag},
	}
}

// NATSConfig derives the mirror publisher settings. ok is false when no URL is set.
func (c *Config) NATSConfig() (cfg natsutil.Config, ok bool) {
	if c.NATSURL == "" {
		return natsutil.Config{}, false
	}

	return natsutil.Config{
		URL:       c.NATSURL,
		Subject:   c.NATSSubject,
		CredsFile: c.NATSCredsFile,
		Source:    gelf.Source{ScriptTag: c.ScriptTag},
	}, true
}
