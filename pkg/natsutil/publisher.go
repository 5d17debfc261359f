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

// Package natsutil mirrors collector envelopes onto NATS subjects.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/version"
)

const (
	DefaultSubject = "hostsentry.events"

	connectTimeout = 5 * time.Second
)

var errURLRequired = errors.New("nats url is required")

// Config configures NATS connectivity for the mirror publisher.
type Config struct {
	URL       string
	Subject   string
	CredsFile string
	Source    gelf.Source
}

// Publisher publishes the GELF envelope JSON of every message on
// <subject>.<tipo>. It implements gelf.Emitter.
type Publisher struct {
	nc      *nats.Conn
	subject string
	source  gelf.Source
	log     logger.Logger
	now     func() time.Time
}

// NewPublisher connects to NATS and returns a publisher for the configured subject.
func NewPublisher(log logger.Logger, cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errURLRequired
	}

	opts := []nats.Option{
		nats.Name(version.UserAgent()),
		nats.Timeout(connectTimeout),
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	src := cfg.Source
	if src.Host == "" {
		src.Host = gelf.Hostname()
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject", subject).
		Msg("Connected to NATS mirror")

	return &Publisher{
		nc:      nc,
		subject: subject,
		source:  src,
		log:     log,
		now:     time.Now,
	}, nil
}

// Send implements gelf.Emitter.
func (p *Publisher) Send(ctx context.Context, message string, level gelf.Level, fields map[string]any) error {
	env := gelf.NewEnvelope(ctx, p.source, message, level, fields, p.now())

	data, err := json.Marshal(env)
	if err != nil {
		return p.fail("marshal", err)
	}

	subject := p.subject + "." + env.Type()

	if err := p.nc.Publish(subject, data); err != nil {
		return p.fail("publish", err)
	}

	p.log.Debug().
		Str("subject", subject).
		Str("short_message", message).
		Msg("Published to NATS mirror")

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	err := p.nc.Drain()
	p.nc = nil

	return err
}

func (p *Publisher) fail(op string, err error) error {
	p.log.Error().Err(err).Str("op", op).Str("subject", p.subject).Msg("Failed to publish to NATS mirror")

	return &gelf.TransportError{Op: "nats " + op, Err: err}
}
