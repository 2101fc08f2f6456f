package tracker

import (
	"testing"

	"github.com/mkettner/comscore-go/internal/comscore"
)

// TestStateManager_InitialState tests the constructor defaults
func TestStateManager_InitialState(t *testing.T) {
	_, sm, _ := newTestSession(t, testMetadata())

	if sm.State() != comscore.StateInitialized {
		t.Errorf("State() = %v, want initialized", sm.State())
	}
	snap := sm.Snapshot()
	if snap.Buffering || snap.Ended || snap.InAd || snap.AdOffset != 0 {
		t.Errorf("Snapshot() = %+v, want cleared flags", snap)
	}
	if snap.InstanceID != 1 {
		t.Errorf("Snapshot().InstanceID = %d, want 1", snap.InstanceID)
	}
	if snap.Metadata == nil || snap.Metadata.UniqueID != "ep-100" {
		t.Errorf("Snapshot().Metadata = %+v, want ep-100", snap.Metadata)
	}
}

// TestStateManager_InvalidTransitionRejected tests that a rejected
// transition leaves the state and the connector untouched.
func TestStateManager_InvalidTransitionRejected(t *testing.T) {
	_, sm, rec := newTestSession(t, testMetadata())

	// initialized may not pause
	sm.TransitionToPaused("pause")

	if sm.State() != comscore.StateInitialized {
		t.Errorf("State() = %v, want initialized", sm.State())
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("connector calls = %v, want none", rec.Methods())
	}
}

// TestStateManager_TransitionSideEffects tests the connector notification
// emitted by each transition kind.
func TestStateManager_TransitionSideEffects(t *testing.T) {
	_, sm, rec := newTestSession(t, testMetadata())

	sm.TransitionToVideo("play")
	if rec.Count("notifyPlay") != 1 {
		t.Errorf("notifyPlay count = %d, want 1", rec.Count("notifyPlay"))
	}

	sm.TransitionToPaused("pause")
	if sm.State() != comscore.StatePausedVideo {
		t.Errorf("State() = %v, want paused_video", sm.State())
	}
	if rec.Count("notifyPause") != 1 {
		t.Errorf("notifyPause count = %d, want 1", rec.Count("notifyPause"))
	}

	sm.TransitionToAdvertisement("ad_begin")
	if rec.Count("notifyPlay") != 2 {
		t.Errorf("notifyPlay count = %d, want 2", rec.Count("notifyPlay"))
	}
	sm.TransitionToPaused("ad_pause")
	if sm.State() != comscore.StatePausedAd {
		t.Errorf("State() = %v, want paused_ad", sm.State())
	}

	sm.TransitionToStopped("stop")
	if rec.Count("notifyEnd") != 1 {
		t.Errorf("notifyEnd count = %d, want 1", rec.Count("notifyEnd"))
	}
}

// TestStateManager_StopIsIdempotent tests that repeated stops emit exactly
// one end notification.
func TestStateManager_StopIsIdempotent(t *testing.T) {
	_, sm, rec := newTestSession(t, testMetadata())

	sm.TransitionToVideo("play")
	sm.TransitionToStopped("stop")
	sm.TransitionToStopped("stop")
	sm.TransitionToStopped("stop")

	if sm.State() != comscore.StateStopped {
		t.Errorf("State() = %v, want stopped", sm.State())
	}
	if rec.Count("notifyEnd") != 1 {
		t.Errorf("notifyEnd count = %d, want 1", rec.Count("notifyEnd"))
	}
}

// TestStateManager_ValidationDisabled tests that any transition passes with
// validation off.
func TestStateManager_ValidationDisabled(t *testing.T) {
	rec := comscore.NewRecorder(1)
	ctx := NewContext(rec, testMetadata(), testConfig())
	sm := NewStateManager(ctx, false)

	sm.TransitionToPaused("pause")
	// pause still needs a playing state to pick a target
	if sm.State() != comscore.StateInitialized {
		t.Errorf("State() = %v, want initialized", sm.State())
	}

	sm.TransitionToVideo("play")
	sm.TransitionToVideo("play")
	if rec.Count("notifyPlay") != 2 {
		t.Errorf("notifyPlay count = %d, want 2", rec.Count("notifyPlay"))
	}
}

// TestStateManager_ListenerPanicIsolated tests that a panicking listener
// does not block the transition or later listeners.
func TestStateManager_ListenerPanicIsolated(t *testing.T) {
	_, sm, _ := newTestSession(t, testMetadata())

	var seen []comscore.State
	sm.AddStateChangeListener(func(from, to comscore.State, reason string) {
		panic("listener failure")
	})
	sm.AddStateChangeListener(func(from, to comscore.State, reason string) {
		seen = append(seen, to)
	})

	sm.TransitionToVideo("play")

	if sm.State() != comscore.StateVideo {
		t.Errorf("State() = %v, want video", sm.State())
	}
	if len(seen) != 1 || seen[0] != comscore.StateVideo {
		t.Errorf("listener saw %v, want [video]", seen)
	}
}

// TestStateManager_ListenerOrder tests listener invocation order and payload
func TestStateManager_ListenerOrder(t *testing.T) {
	_, sm, _ := newTestSession(t, testMetadata())

	var order []int
	sm.AddStateChangeListener(func(from, to comscore.State, reason string) {
		if from != comscore.StateInitialized || to != comscore.StateVideo || reason != "play" {
			t.Errorf("listener payload = %v -> %v (%s)", from, to, reason)
		}
		order = append(order, 1)
	})
	sm.AddStateChangeListener(func(from, to comscore.State, reason string) {
		order = append(order, 2)
	})

	sm.TransitionToVideo("play")

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("listener order = %v, want [1 2]", order)
	}
}

// TestStateManager_Reset tests that reset restores the initial identity
func TestStateManager_Reset(t *testing.T) {
	_, sm, rec := newTestSession(t, testMetadata())

	sm.TransitionToVideo("play")
	sm.SetBuffering(true)
	sm.SetInAd(true)
	sm.SetAdOffset(-1)
	sm.SetEnded(true)
	sm.SetCurrentMetadata(&comscore.ContentMetadata{UniqueID: "other"})

	sm.Reset()

	if sm.State() != comscore.StateInitialized {
		t.Errorf("State() = %v, want initialized", sm.State())
	}
	snap := sm.Snapshot()
	if snap.Buffering || snap.Ended || snap.InAd || snap.AdOffset != 0 {
		t.Errorf("Snapshot() = %+v, want cleared flags", snap)
	}
	if got := sm.CurrentMetadata().UniqueID; got != "ep-100" {
		t.Errorf("CurrentMetadata().UniqueID = %v, want ep-100", got)
	}
	// reset itself must not touch the connector
	if rec.Count("notifyEnd") != 0 {
		t.Errorf("notifyEnd count = %d, want 0", rec.Count("notifyEnd"))
	}
}

// TestStateManager_SetCurrentMetadata tests the eager metadata push
func TestStateManager_SetCurrentMetadata(t *testing.T) {
	_, sm, rec := newTestSession(t, testMetadata())

	sm.SetCurrentMetadata(&comscore.ContentMetadata{UniqueID: "ep-200"})
	call, err := rec.LastCall("setMetadata")
	if err != nil {
		t.Fatalf("LastCall(setMetadata) error = %v", err)
	}
	if call.Metadata.UniqueID != "ep-200" {
		t.Errorf("pushed UniqueID = %v, want ep-200", call.Metadata.UniqueID)
	}

	sm.SetCurrentMetadata(nil)
	if rec.Count("setMetadata") != 1 {
		t.Errorf("setMetadata count = %d, want 1 (nil not pushed)", rec.Count("setMetadata"))
	}
}
