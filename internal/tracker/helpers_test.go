package tracker

import (
	"testing"

	"github.com/mkettner/comscore-go/internal/comscore"
)

func testConfig() comscore.Configuration {
	return comscore.Configuration{
		PublisherID:     "pub-test",
		ApplicationName: "player-test",
		UserConsent:     comscore.ConsentGranted,
	}
}

func testMetadata() *comscore.ContentMetadata {
	return &comscore.ContentMetadata{
		MediaType:     comscore.MediaTypeLongFormOnDemand,
		UniqueID:      "ep-100",
		ProgramTitle:  "Evening Show",
		EpisodeTitle:  "Pilot",
		PublisherName: "Example TV",
		LengthMs:      600000,
	}
}

func liveMetadata() *comscore.ContentMetadata {
	return &comscore.ContentMetadata{
		MediaType:     comscore.MediaTypeLive,
		UniqueID:      "channel-5",
		StationTitle:  "Channel Five",
		PublisherName: "Example TV",
		LengthMs:      0,
	}
}

// newTestSession builds a context and state manager over a recording
// connector.
func newTestSession(t *testing.T, metadata *comscore.ContentMetadata) (*Context, *StateManager, *comscore.Recorder) {
	t.Helper()
	rec := comscore.NewRecorder(1)
	ctx := NewContext(rec, metadata, testConfig())
	sm := NewStateManager(ctx, true)
	return ctx, sm, rec
}

// newTestPlugin builds a fully enabled plugin over a recording connector
func newTestPlugin(t *testing.T, metadata *comscore.ContentMetadata) (*Plugin, *comscore.Recorder) {
	t.Helper()
	rec := comscore.NewRecorder(1)
	p, err := NewPlugin(rec, metadata, testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewPlugin() error = %v", err)
	}
	rec.Reset() // drop the construction-time metadata push
	return p, rec
}

func intPtr(v int) *int             { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }
