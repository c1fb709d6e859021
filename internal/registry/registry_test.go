package registry_test

import (
	"testing"

	"github.com/dantte-lp/v2gsim/internal/registry"
)

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.SessionStarted("10.0.0.1:1234")

	if got := r.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	r.SetProtocol("10.0.0.1:1234", "ISO_15118_2")
	r.SetSessionID("10.0.0.1:1234", "aabbccdd")
	r.StateTransition("10.0.0.1:1234", "SupportedAppProtocol", "SessionSetup")
	r.FrameSent("10.0.0.1:1234")
	r.FrameReceived("10.0.0.1:1234")

	entry, ok := r.Get("10.0.0.1:1234")
	if !ok {
		t.Fatal("Get() = false, want true for a live session")
	}
	if entry.Protocol != "ISO_15118_2" {
		t.Errorf("entry.Protocol = %q, want ISO_15118_2", entry.Protocol)
	}
	if entry.SessionID != "aabbccdd" {
		t.Errorf("entry.SessionID = %q, want aabbccdd", entry.SessionID)
	}
	if entry.State != "SessionSetup" {
		t.Errorf("entry.State = %q, want SessionSetup", entry.State)
	}

	r.SessionStopped("10.0.0.1:1234", true)

	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 after SessionStopped", got)
	}
	if _, ok := r.Get("10.0.0.1:1234"); ok {
		t.Error("Get() = true, want false for a stopped session")
	}

	if got := r.Counters.SessionsStarted.Load(); got != 1 {
		t.Errorf("Counters.SessionsStarted = %d, want 1", got)
	}
	if got := r.Counters.SessionsSuccessful.Load(); got != 1 {
		t.Errorf("Counters.SessionsSuccessful = %d, want 1", got)
	}
	if got := r.Counters.FramesSent.Load(); got != 1 {
		t.Errorf("Counters.FramesSent = %d, want 1", got)
	}
}

func TestRegistrySnapshotSortedByPeer(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.SessionStarted("10.0.0.2:1")
	r.SessionStarted("10.0.0.1:1")
	r.SessionStarted("10.0.0.3:1")

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() len = %d, want 3", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Peer > snap[i].Peer {
			t.Errorf("Snapshot() not sorted: %q before %q", snap[i-1].Peer, snap[i].Peer)
		}
	}
}

func TestRegistryUnknownPeerCountersStillIncrement(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.FrameDropped("never-registered")
	r.Timeout("never-registered")

	if got := r.Counters.FramesDropped.Load(); got != 1 {
		t.Errorf("Counters.FramesDropped = %d, want 1", got)
	}
	if got := r.Counters.Timeouts.Load(); got != 1 {
		t.Errorf("Counters.Timeouts = %d, want 1", got)
	}
}
