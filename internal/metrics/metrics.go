package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Snapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Sessions    uint64            `json:"sessions"`
	Received    uint64            `json:"received"`
	Replied     uint64            `json:"replied"`
	Ignored     uint64            `json:"ignored"`
	Broadcast   BroadcastMetrics  `json:"broadcast"`
	RecvByType  map[string]uint64 `json:"recv_by_type"`
}

type BroadcastMetrics struct {
	New             uint64 `json:"new"`
	Duplicate       uint64 `json:"duplicate"`
	TopologyUpdates uint64 `json:"topology_updates"`
}

// Metrics is safe for concurrent use. A nil *Metrics discards every update.
type Metrics struct {
	sessions        atomic.Uint64
	received        atomic.Uint64
	replied         atomic.Uint64
	ignored         atomic.Uint64
	broadcastNew    atomic.Uint64
	broadcastDup    atomic.Uint64
	topologyUpdates atomic.Uint64

	mu         sync.Mutex
	recvByType map[string]uint64
}

func New() *Metrics {
	return &Metrics{recvByType: make(map[string]uint64)}
}

func (m *Metrics) IncSessions() {
	if m == nil {
		return
	}
	m.sessions.Add(1)
}

func (m *Metrics) IncRecv(msgType string) {
	if m == nil {
		return
	}
	m.received.Add(1)
	if msgType == "" {
		return
	}
	m.mu.Lock()
	if m.recvByType == nil {
		m.recvByType = make(map[string]uint64)
	}
	m.recvByType[msgType]++
	m.mu.Unlock()
}

func (m *Metrics) AddReplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.replied.Add(uint64(n))
}

func (m *Metrics) IncIgnored() {
	if m == nil {
		return
	}
	m.ignored.Add(1)
}

func (m *Metrics) IncBroadcastNew() {
	if m == nil {
		return
	}
	m.broadcastNew.Add(1)
}

func (m *Metrics) IncBroadcastDuplicate() {
	if m == nil {
		return
	}
	m.broadcastDup.Add(1)
}

func (m *Metrics) IncTopologyUpdate() {
	if m == nil {
		return
	}
	m.topologyUpdates.Add(1)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{GeneratedAt: time.Now().UTC(), RecvByType: map[string]uint64{}}
	}
	m.mu.Lock()
	byType := make(map[string]uint64, len(m.recvByType))
	for k, v := range m.recvByType {
		byType[k] = v
	}
	m.mu.Unlock()
	return Snapshot{
		GeneratedAt: time.Now().UTC(),
		Sessions:    m.sessions.Load(),
		Received:    m.received.Load(),
		Replied:     m.replied.Load(),
		Ignored:     m.ignored.Load(),
		Broadcast: BroadcastMetrics{
			New:             m.broadcastNew.Load(),
			Duplicate:       m.broadcastDup.Load(),
			TopologyUpdates: m.topologyUpdates.Load(),
		},
		RecvByType: byType,
	}
}

func (m *Metrics) WriteSnapshot(path string) error {
	if path == "" {
		return nil
	}
	snap := m.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
