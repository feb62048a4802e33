package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := New()
	m.IncSessions()
	m.IncRecv("echo")
	m.IncRecv("echo")
	m.IncRecv("read")
	m.AddReplied(2)
	m.AddReplied(0)
	m.IncIgnored()
	m.IncBroadcastNew()
	m.IncBroadcastDuplicate()
	m.IncBroadcastDuplicate()
	m.IncTopologyUpdate()
	snap := m.Snapshot()
	if snap.Sessions != 1 {
		t.Fatalf("expected sessions=1, got %d", snap.Sessions)
	}
	if snap.Received != 3 {
		t.Fatalf("expected received=3, got %d", snap.Received)
	}
	if snap.RecvByType["echo"] != 2 || snap.RecvByType["read"] != 1 {
		t.Fatalf("unexpected recv_by_type: %v", snap.RecvByType)
	}
	if snap.Replied != 2 || snap.Ignored != 1 {
		t.Fatalf("expected replied/ignored 2/1, got %d/%d", snap.Replied, snap.Ignored)
	}
	if snap.Broadcast.New != 1 || snap.Broadcast.Duplicate != 2 || snap.Broadcast.TopologyUpdates != 1 {
		t.Fatalf("unexpected broadcast counts: %+v", snap.Broadcast)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncSessions()
	m.IncRecv("echo")
	m.AddReplied(1)
	m.IncIgnored()
	m.IncBroadcastNew()
	m.IncBroadcastDuplicate()
	m.IncTopologyUpdate()
	snap := m.Snapshot()
	if snap.Received != 0 || snap.RecvByType == nil {
		t.Fatalf("unexpected nil snapshot: %+v", snap)
	}
}

func TestMetricsConcurrentRecv(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncRecv("broadcast")
			}
		}()
	}
	wg.Wait()
	snap := m.Snapshot()
	if snap.Received != 800 || snap.RecvByType["broadcast"] != 800 {
		t.Fatalf("expected 800 broadcasts, got %d/%d", snap.Received, snap.RecvByType["broadcast"])
	}
}

func TestWriteSnapshot(t *testing.T) {
	m := New()
	m.IncRecv("generate")
	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := m.WriteSnapshot(path); err != nil {
		t.Fatalf("write snapshot failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot failed: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot failed: %v", err)
	}
	if snap.RecvByType["generate"] != 1 {
		t.Fatalf("expected generate=1, got %v", snap.RecvByType)
	}
	if err := m.WriteSnapshot(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
