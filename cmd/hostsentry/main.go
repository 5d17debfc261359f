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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/hostsentry/pkg/backup"
	"github.com/carverauto/hostsentry/pkg/checker/fileaudit"
	"github.com/carverauto/hostsentry/pkg/checker/procscan"
	"github.com/carverauto/hostsentry/pkg/checker/sshauth"
	"github.com/carverauto/hostsentry/pkg/collector"
	"github.com/carverauto/hostsentry/pkg/config"
	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/lifecycle"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/metrics"
	"github.com/carverauto/hostsentry/pkg/natsutil"
	"github.com/carverauto/hostsentry/pkg/version"
)

const logDirMode = 0o750

func main() {
	if err := run(); err != nil {
		log.Fatalf("hostsentry failed: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a YAML or JSON config file (defaults are used when empty)")
	interval := flag.Duration("interval", 0, "Collect every interval until interrupted; 0 runs once (overrides the config interval)")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := collector.DefaultConfig()
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.LogDirectory, logDirMode); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logCfg := *cfg.Logging
	if logCfg.File == "" {
		logCfg.File = cfg.LogFilePath()
	}

	componentLogger, err := lifecycle.CreateComponentLogger("hostsentry", &logCfg)
	if err != nil {
		return fmt.Errorf("failed to create component logger: %w", err)
	}
	defer func() { _ = componentLogger.Close() }()

	c, closeEmitters, err := buildCollector(componentLogger, cfg)
	if err != nil {
		return err
	}
	defer closeEmitters()

	every := time.Duration(cfg.Interval)
	if flagSet("interval") {
		if err := collector.ValidateInterval(*interval); err != nil {
			return fmt.Errorf("invalid -interval: %w", err)
		}

		every = *interval
	}

	componentLogger.Info().
		Str("version", version.GetVersion()).
		Str("aggregator", fmt.Sprintf("%s:%d", cfg.AggregatorHost, cfg.AggregatorPort)).
		Str("log_directory", cfg.LogDirectory).
		Dur("interval", every).
		Msg("hostsentry starting")

	if every <= 0 {
		total := c.Run(ctx)
		componentLogger.Info().Int("total_events", total).Msg("Collection complete")

		return nil
	}

	runPeriodic(ctx, componentLogger, c, every)

	return nil
}

func flagSet(name string) bool {
	found := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})

	return found
}

func buildCollector(log logger.Logger, cfg *collector.Config) (*collector.Collector, func(), error) {
	runMetrics := metrics.NewRunMetrics(log, cfg.MetricsTextfile)

	udp, err := gelf.NewUDPEmitter(log, cfg.UDPConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF emitter: %w", err)
	}

	emitters := []gelf.Emitter{udp}
	closeEmitters := func() {}

	if natsCfg, ok := cfg.NATSConfig(); ok {
		publisher, err := natsutil.NewPublisher(log, natsCfg)
		if err != nil {
			log.Warn().Err(err).Str("url", natsCfg.URL).Msg("NATS mirror disabled")
		} else {
			emitters = append(emitters, publisher)
			closeEmitters = func() { _ = publisher.Close() }
		}
	}

	emitter := collector.CountFailures(gelf.Fanout(emitters...), runMetrics)

	c := collector.New(log, emitter, backup.NewWriter(log, cfg.LogDirectory), runMetrics,
		sshauth.NewService(log, emitter, sshauth.Config{
			AuthLogPath:       cfg.AuthLogPath,
			Marker:            cfg.FailedLoginMarker,
			PrivilegedCommand: cfg.PrivilegedCommand,
		}),
		fileaudit.NewService(log, emitter, cfg.WatchedPaths),
		procscan.NewService(log, emitter, cfg.SuspiciousProcessNames),
	)

	return c, closeEmitters, nil
}

// runPeriodic runs immediately and then on every tick. Runs never overlap.
func runPeriodic(ctx context.Context, log logger.Logger, c *collector.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		total := c.Run(ctx)
		log.Info().Int("total_events", total).Dur("next_in", interval).Msg("Collection complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return
		case <-ticker.C:
		}
	}
}
