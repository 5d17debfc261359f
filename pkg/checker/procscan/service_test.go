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

package procscan

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

var errTestListing = errors.New("proc not mounted")

const listingWithoutTools = `root 1 /sbin/init splash
root 412 /usr/sbin/sshd -D
alice 2201 /usr/bin/python3 server.py
`

func staticListing(listing string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return listing, nil
	}
}

func TestCollectSubstringMatchesInsideUnrelatedTokens(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	emitter := gelf.NewMockEmitter(ctrl)
	emitter.EXPECT().
		Send(gomock.Any(), "Suspicious process detected: nmap", gelf.LevelAlert,
			map[string]any{"tipo": "suspicious_process", "process": "nmap", "severity": "high"}).
		Return(nil)

	service := NewService(logger.NewTestLogger(), emitter, nil)
	service.lister = staticListing(listingWithoutTools + "bob 3100 /opt/tools/xnmapper --daemon\n")

	events := service.Collect(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, models.KindSuspiciousProcess, events[0].Kind)
	assert.Equal(t, "nmap", events[0].ProcessName)
	assert.Equal(t, models.SeverityHigh, events[0].Severity)
	assert.Empty(t, events[0].SourcePath)
}

func TestCollectCaseInsensitiveOneEventPerName(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	emitter := gelf.NewMockEmitter(ctrl)
	emitter.EXPECT().Send(gomock.Any(), gomock.Any(), gelf.LevelAlert, gomock.Any()).Return(nil).Times(2)

	service := NewService(logger.NewTestLogger(), emitter, []string{"nmap", "Hashcat", "john"})
	service.lister = staticListing(
		"root 10 NMAP -sS 10.0.0.0/24\nroot 11 nmap -p 22 host\nroot 12 /usr/bin/hashcat -m 0 hashes.txt\n")

	events := service.Collect(context.Background())
	require.Len(t, events, 2)
	assert.Equal(t, "nmap", events[0].ProcessName)
	assert.Equal(t, "Hashcat", events[1].ProcessName)

	for _, event := range events {
		assert.Equal(t, models.SeverityHigh, event.Severity)
	}
}

func TestCollectNoMatches(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	emitter := gelf.NewMockEmitter(ctrl)

	service := NewService(logger.NewTestLogger(), emitter, nil)
	service.lister = staticListing(listingWithoutTools)

	assert.Empty(t, service.Collect(context.Background()))
}

func TestCollectListingFailureIsEmpty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	emitter := gelf.NewMockEmitter(ctrl)

	service := NewService(logger.NewTestLogger(), emitter, nil)
	service.lister = func(context.Context) (string, error) {
		return "", errTestListing
	}

	assert.Empty(t, service.Collect(context.Background()))
}

func TestCollectKeepsEventsWhenEmissionFails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	emitter := gelf.NewMockEmitter(ctrl)
	emitter.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&gelf.TransportError{Op: "dial", Err: errTestListing}).Times(2)

	service := NewService(logger.NewTestLogger(), emitter, []string{"john", "metasploit"})
	service.lister = staticListing("root 1 john --wordlist=rockyou.txt\nroot 2 ruby /opt/metasploit/msfconsole\n")

	assert.Len(t, service.Collect(context.Background()), 2)
}

func TestListProcessesIncludesSelf(t *testing.T) {
	t.Parallel()

	listing, err := ListProcesses(context.Background())
	require.NoError(t, err)

	found := false

	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[1] == strconv.Itoa(os.Getpid()) {
			found = true
			break
		}
	}

	assert.True(t, found, "own pid should appear in the process listing")
}
