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

package gelf

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/carverauto/hostsentry/pkg/logger"
)

// UDPConfig is the aggregator endpoint and envelope settings.
type UDPConfig struct {
	Host        string
	Port        int
	Compression Compression
	Source      Source
}

// UDPEmitter writes each message as a single GELF UDP datagram.
// It keeps no socket open between sends.
type UDPEmitter struct {
	log         logger.Logger
	addr        string
	source      Source
	compression Compression
	dial        func(ctx context.Context, network, address string) (net.Conn, error)
	now         func() time.Time
}

func NewUDPEmitter(log logger.Logger, cfg UDPConfig) (*UDPEmitter, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, errMissingAddress
	}

	if _, err := ParseCompression(string(cfg.Compression)); err != nil {
		return nil, err
	}

	src := cfg.Source
	if src.Host == "" {
		src.Host = Hostname()
	}

	dialer := &net.Dialer{}

	return &UDPEmitter{
		log:         log,
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		source:      src,
		compression: cfg.Compression,
		dial:        dialer.DialContext,
		now:         time.Now,
	}, nil
}

// Addr returns the host:port datagrams are sent to.
func (e *UDPEmitter) Addr() string {
	return e.addr
}

// Send implements Emitter. Every failure is logged here and returned as a
// *TransportError; nothing is retried.
func (e *UDPEmitter) Send(ctx context.Context, message string, level Level, fields map[string]any) error {
	env := NewEnvelope(ctx, e.source, message, level, fields, e.now())

	payload, err := json.Marshal(env)
	if err != nil {
		return e.fail("marshal", message, err)
	}

	payload, err = e.compression.encode(payload)
	if err != nil {
		return e.fail("compress", message, err)
	}

	conn, err := e.dial(ctx, "udp", e.addr)
	if err != nil {
		return e.fail("dial", message, err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Write(payload); err != nil {
		return e.fail("write", message, err)
	}

	e.log.Debug().
		Str("addr", e.addr).
		Str("tipo", env.Type()).
		Int("bytes", len(payload)).
		Str("short_message", message).
		Msg("Sent to aggregator")

	return nil
}

func (e *UDPEmitter) fail(op, message string, err error) error {
	terr := &TransportError{Op: op, Err: err}

	e.log.Error().
		Err(err).
		Str("op", op).
		Str("addr", e.addr).
		Str("short_message", message).
		Msg("Failed to send to aggregator")

	return terr
}
