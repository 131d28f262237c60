// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// SendStats counts messages and bytes sent for one telemetry kind. Byte
// counts are whole frames as reported by the transport, kind tag included.
type SendStats struct {
	Messages  uint64
	BytesSent uint64
}

// KindStats is a snapshot row: one telemetry kind with its counters.
type KindStats struct {
	Kind  wire.TelemetryType
	Name  string
	Stats SendStats
}

// Statistics tracks bytes sent per telemetry kind plus a global total.
// It lives inside the engine instance; there is no process-wide state.
type Statistics struct {
	mu      sync.Mutex
	start   time.Time
	global  SendStats
	perKind map[wire.TelemetryType]SendStats
	names   map[wire.TelemetryType]string
}

func newStatistics() *Statistics {
	return &Statistics{
		start:   time.Now(),
		perKind: make(map[wire.TelemetryType]SendStats),
		names:   make(map[wire.TelemetryType]string),
	}
}

func (s *Statistics) setName(kind wire.TelemetryType, name string) {
	s.mu.Lock()
	s.names[kind] = name
	s.mu.Unlock()
}

func (s *Statistics) addBytesSent(kind wire.TelemetryType, n uint64) {
	s.mu.Lock()
	s.global.Messages++
	s.global.BytesSent += n
	stat := s.perKind[kind]
	stat.Messages++
	stat.BytesSent += n
	s.perKind[kind] = stat
	s.mu.Unlock()
}

// Global returns the totals across all kinds.
func (s *Statistics) Global() SendStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global
}

// Kind returns the counters and registered type name for one kind.
func (s *Statistics) Kind(kind wire.TelemetryType) (SendStats, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perKind[kind], s.names[kind]
}

// Snapshot returns per-kind rows for every kind that sent at least one
// message, sorted by kind ID.
func (s *Statistics) Snapshot() []KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]KindStats, 0, len(s.perKind))
	for kind, stat := range s.perKind {
		rows = append(rows, KindStats{Kind: kind, Name: s.names[kind], Stats: stat})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Kind < rows[j].Kind })
	return rows
}

// String returns a formatted summary.
func (s *Statistics) String() string {
	rows := s.Snapshot()
	global := s.Global()
	elapsed := time.Since(s.start)

	result := fmt.Sprintf("=== Telemetry Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Messages: %8d\n", global.Messages)
	result += fmt.Sprintf("Total Bytes:    %8d\n", global.BytesSent)
	for _, row := range rows {
		result += fmt.Sprintf("  %-25s %8d msgs %10d bytes\n", row.Kind, row.Stats.Messages, row.Stats.BytesSent)
	}
	return result
}
