package stream

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(sourceID, sequence uint32) *protocol.Header {
	return &protocol.Header{
		SourceID:       sourceID,
		SequenceNumber: sequence,
		MessageType:    10000,
		PayloadSize:    40,
	}
}

func TestRecordCreatesSession(t *testing.T) {
	mgr := NewManager(testLogger(), time.Minute, nil)
	defer mgr.Stop()

	created, gap := mgr.Record(header(7, 0))
	if !created {
		t.Error("Expected first frame to create a session")
	}
	if gap {
		t.Error("Expected no gap on first frame")
	}

	created, _ = mgr.Record(header(7, 1))
	if created {
		t.Error("Expected second frame to reuse the session")
	}

	if mgr.GetActiveSessionCount() != 1 {
		t.Errorf("Expected 1 active session, got %d", mgr.GetActiveSessionCount())
	}

	session, exists := mgr.GetSession(7)
	if !exists {
		t.Fatal("Expected session for source 7")
	}

	info := session.Info()
	if info.FramesReceived != 2 {
		t.Errorf("Expected 2 frames received, got %d", info.FramesReceived)
	}
	if info.BytesReceived != 2*(protocol.HeaderSize+40) {
		t.Errorf("Expected %d bytes received, got %d", 2*(protocol.HeaderSize+40), info.BytesReceived)
	}
	if info.FramesByType[10000] != 2 {
		t.Errorf("Expected 2 frames of type 10000, got %d", info.FramesByType[10000])
	}
}

func TestRecordDetectsSequenceGaps(t *testing.T) {
	mgr := NewManager(testLogger(), time.Minute, nil)
	defer mgr.Stop()

	sequences := []struct {
		sequence  uint32
		expectGap bool
	}{
		{10, false}, // first frame never gaps
		{11, false},
		{12, false},
		{20, true}, // jumped forward
		{21, false},
		{21, true}, // repeated
	}

	var gaps uint64
	for _, s := range sequences {
		_, gap := mgr.Record(header(1, s.sequence))
		if gap != s.expectGap {
			t.Errorf("Sequence %d: expected gap=%v, got %v", s.sequence, s.expectGap, gap)
		}
		if gap {
			gaps++
		}
	}

	session, _ := mgr.GetSession(1)
	if info := session.Info(); info.SequenceGaps != gaps {
		t.Errorf("Expected %d gaps recorded, got %d", gaps, info.SequenceGaps)
	}
}

func TestIndependentSources(t *testing.T) {
	mgr := NewManager(testLogger(), time.Minute, nil)
	defer mgr.Stop()

	// Interleaved sources with independent counters must not gap
	mgr.Record(header(1, 100))
	mgr.Record(header(2, 500))
	_, gap := mgr.Record(header(1, 101))
	if gap {
		t.Error("Expected no gap for source 1")
	}
	_, gap = mgr.Record(header(2, 501))
	if gap {
		t.Error("Expected no gap for source 2")
	}

	if mgr.GetActiveSessionCount() != 2 {
		t.Errorf("Expected 2 active sessions, got %d", mgr.GetActiveSessionCount())
	}
}

func TestSnapshot(t *testing.T) {
	mgr := NewManager(testLogger(), time.Minute, nil)
	defer mgr.Stop()

	mgr.Record(header(1, 0))
	mgr.Record(header(2, 0))

	infos := mgr.Snapshot()
	if len(infos) != 2 {
		t.Fatalf("Expected 2 session infos, got %d", len(infos))
	}

	seen := make(map[uint32]bool)
	for _, info := range infos {
		seen[info.SourceID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("Expected sources 1 and 2 in snapshot, got %v", seen)
	}
}

func TestRemoveSession(t *testing.T) {
	mgr := NewManager(testLogger(), time.Minute, nil)
	defer mgr.Stop()

	mgr.Record(header(1, 0))

	if !mgr.RemoveSession(1) {
		t.Error("Expected RemoveSession to report success")
	}
	if mgr.RemoveSession(1) {
		t.Error("Expected second RemoveSession to report failure")
	}
	if mgr.GetActiveSessionCount() != 0 {
		t.Errorf("Expected 0 active sessions, got %d", mgr.GetActiveSessionCount())
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	var expired []*Session
	mgr := NewManager(testLogger(), 10*time.Millisecond, func(s *Session) {
		expired = append(expired, s)
	})
	defer mgr.Stop()

	mgr.Record(header(1, 0))
	time.Sleep(20 * time.Millisecond)

	// Drive the cleanup directly rather than waiting for the ticker
	mgr.cleanupExpiredSessions()

	if mgr.GetActiveSessionCount() != 0 {
		t.Errorf("Expected session to expire, %d still active", mgr.GetActiveSessionCount())
	}
	if len(expired) != 1 || expired[0].SourceID != 1 {
		t.Errorf("Expected expiry callback for source 1, got %v", expired)
	}
}
