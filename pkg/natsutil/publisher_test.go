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

package natsutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
)

func runNATSServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestPublisherPublishesEnvelopeByType(t *testing.T) {
	t.Parallel()

	srv := runNATSServer(t)

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("hostsentry.events.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	pub, err := NewPublisher(logger.NewTestLogger(), Config{
		URL:    srv.ClientURL(),
		Source: gelf.Source{Host: "test-host"},
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = pub.Close() })

	ctx := gelf.ContextWithFields(context.Background(), map[string]any{"run_id": "run-42"})
	require.NoError(t, pub.Send(ctx, "Suspicious process detected: nmap", gelf.LevelAlert,
		map[string]any{"tipo": "suspicious_process", "process": "nmap"}))

	select {
	case msg := <-msgs:
		assert.Equal(t, "hostsentry.events.suspicious_process", msg.Subject)

		var env map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Data, &env))
		assert.Equal(t, "test-host", env["host"])
		assert.Equal(t, "nmap", env["_process"])
		assert.Equal(t, "run-42", env["_run_id"])
		assert.InDelta(t, 3, env["level"], 0)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received on mirror subject")
	}
}

func TestPublisherSendAfterCloseFails(t *testing.T) {
	t.Parallel()

	srv := runNATSServer(t)

	pub, err := NewPublisher(logger.NewTestLogger(), Config{URL: srv.ClientURL(), Subject: "custom"})
	require.NoError(t, err)

	nc := pub.nc
	nc.Close()

	err = pub.Send(context.Background(), "msg", gelf.LevelInfo, nil)

	var terr *gelf.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "nats publish", terr.Op)
}

func TestNewPublisherRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(logger.NewTestLogger(), Config{})
	require.ErrorIs(t, err, errURLRequired)
}
