package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkettner/comscore-go/internal/comscore"
)

// TestAdvertisementHandler_MidRollRoundTrip runs a full ad break inside
// content playback and checks the metadata is restored byte for byte.
func TestAdvertisementHandler_MidRollRoundTrip(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)

	sm.TransitionToVideo("play")

	h.HandleAdBreakBegin(AdBreakBeginParams{AdBreakID: "b1", AdCount: 1, AdBreakPositionMs: float64Ptr(120000)})
	h.HandleAdBegin(AdBeginParams{AdID: "ad-1", AdDurationMs: int64Ptr(15000), AdPositionMs: float64Ptr(120000)})

	assert.Equal(t, comscore.StateAdvertisement, sm.State())
	assert.True(t, sm.InAd())

	envelope, err := rec.LastCall("setMetadata")
	require.NoError(t, err)
	require.NotNil(t, envelope.Metadata.Advertisement)
	assert.Equal(t, "ad-1", envelope.Metadata.Advertisement.UniqueID)
	assert.Equal(t, int64(15000), envelope.Metadata.Advertisement.LengthMs)
	assert.Equal(t, comscore.AdTypeOnDemandMidRoll, envelope.Metadata.Advertisement.MediaType)
	assert.Equal(t, "ep-100", envelope.Metadata.Advertisement.RelatedContent.UniqueID)

	h.HandleAdEnd(AdEndParams{AdID: "ad-1", Completed: boolPtr(true)})
	h.HandleAdBreakEnd(AdBreakEndParams{AdBreakID: "b1"})

	assert.Equal(t, comscore.StateVideo, sm.State())
	assert.False(t, sm.InAd())
	assert.Equal(t, float64(0), sm.AdOffset())

	restored, err := rec.LastCall("setMetadata")
	require.NoError(t, err)
	assert.Nil(t, restored.Metadata.Advertisement)
	assert.Equal(t, testMetadata(), restored.Metadata)
}

// TestAdvertisementHandler_AdTypeInference covers explicit and position
// based type inference.
func TestAdvertisementHandler_AdTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		metadata *comscore.ContentMetadata
		params   AdBeginParams
		want     comscore.AdType
	}{
		{
			name:     "explicit preroll",
			metadata: testMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000), AdType: "preroll"},
			want:     comscore.AdTypeOnDemandPreRoll,
		},
		{
			name:     "explicit postroll",
			metadata: testMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000), AdType: "postroll"},
			want:     comscore.AdTypeOnDemandPostRoll,
		},
		{
			name:     "position zero infers preroll",
			metadata: testMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000), AdPositionMs: float64Ptr(0)},
			want:     comscore.AdTypeOnDemandPreRoll,
		},
		{
			name:     "positive position infers midroll",
			metadata: testMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000), AdPositionMs: float64Ptr(30000)},
			want:     comscore.AdTypeOnDemandMidRoll,
		},
		{
			name:     "no position stays unclassified",
			metadata: testMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000)},
			want:     comscore.AdTypeOther,
		},
		{
			name:     "live content forces live ad",
			metadata: liveMetadata(),
			params:   AdBeginParams{AdID: "a", AdDurationMs: int64Ptr(1000), AdType: "preroll"},
			want:     comscore.AdTypeLive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, sm, _ := newTestSession(t, tt.metadata)
			h := NewAdvertisementHandler(ctx, sm)
			sm.TransitionToVideo("play")

			h.HandleAdBegin(tt.params)

			require.NotNil(t, h.CurrentAdMetadata())
			assert.Equal(t, tt.want, h.CurrentAdMetadata().MediaType)
		})
	}
}

// TestAdvertisementHandler_NegativePositionRejected tests that a negative
// ad position aborts tracking for that ad only.
func TestAdvertisementHandler_NegativePositionRejected(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)
	sm.TransitionToVideo("play")
	rec.Reset()

	h.HandleAdBegin(AdBeginParams{AdID: "bad", AdDurationMs: int64Ptr(1000), AdPositionMs: float64Ptr(-5000)})

	assert.Nil(t, h.CurrentAdMetadata())
	assert.False(t, sm.InAd())
	assert.Equal(t, comscore.StateVideo, sm.State())
	assert.Empty(t, rec.Calls())

	// the handler still tracks the next well-formed ad
	h.HandleAdBegin(AdBeginParams{AdID: "good", AdDurationMs: int64Ptr(1000), AdPositionMs: float64Ptr(0)})
	assert.NotNil(t, h.CurrentAdMetadata())
	assert.Equal(t, comscore.StateAdvertisement, sm.State())
}

// TestAdvertisementHandler_PostRollSentinelSurvivesAdEnd tests that an ad
// end without a content resume keeps the post-roll guard armed.
func TestAdvertisementHandler_PostRollSentinelSurvivesAdEnd(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	ads := NewAdvertisementHandler(ctx, sm)
	playback := NewPlaybackHandler(ctx, sm)

	sm.TransitionToVideo("play")
	ads.HandleAdBreakBegin(AdBreakBeginParams{AdBreakPositionMs: float64Ptr(-1)})
	ads.HandleAdEnd(AdEndParams{})
	rec.Reset()

	playback.HandlePlay()

	assert.Negative(t, sm.AdOffset())
	assert.Zero(t, rec.Count("notifyPlay"))
}

// TestAdvertisementHandler_ContentResume tests the escape hatch
func TestAdvertisementHandler_ContentResume(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)

	sm.TransitionToVideo("play")
	h.HandleAdBreakBegin(AdBreakBeginParams{AdBreakID: "b1", AdBreakPositionMs: float64Ptr(-1)})
	h.HandleAdBegin(AdBeginParams{AdID: "ad-1", AdDurationMs: int64Ptr(1000), AdType: "midroll"})
	require.Equal(t, comscore.StateAdvertisement, sm.State())

	h.HandleContentResume()

	assert.Equal(t, comscore.StateVideo, sm.State())
	assert.False(t, sm.InAd())
	assert.False(t, h.InAdBreak())
	assert.Nil(t, h.CurrentAdMetadata())
	assert.Equal(t, float64(0), sm.AdOffset())

	restored, err := rec.LastCall("setMetadata")
	require.NoError(t, err)
	assert.Nil(t, restored.Metadata.Advertisement)
}

// TestAdvertisementHandler_PauseResume tests ad pause and resume gating
func TestAdvertisementHandler_PauseResume(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)

	// pause outside an ad is rejected
	h.HandleAdPause()
	assert.Equal(t, comscore.StateInitialized, sm.State())

	sm.TransitionToVideo("play")
	h.HandleAdBreakBegin(AdBreakBeginParams{AdBreakID: "b1"})
	h.HandleAdBegin(AdBeginParams{AdID: "ad-1", AdDurationMs: int64Ptr(1000), AdType: "midroll"})

	h.HandleAdPause()
	assert.Equal(t, comscore.StatePausedAd, sm.State())
	assert.Equal(t, 1, rec.Count("notifyPause"))

	h.HandleAdResume()
	assert.Equal(t, comscore.StateAdvertisement, sm.State())
}

// TestAdvertisementHandler_Skip tests skip label stamping
func TestAdvertisementHandler_Skip(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)

	sm.TransitionToVideo("play")
	h.HandleAdBreakBegin(AdBreakBeginParams{AdBreakID: "b1"})
	h.HandleAdBegin(AdBeginParams{AdID: "ad-1", AdDurationMs: int64Ptr(15000), AdType: "midroll"})

	h.HandleAdSkip(AdSkipParams{AdID: "ad-1", SkipPositionMs: float64Ptr(5000)})

	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "true", call.Metadata.CustomLabels["adSkipped"])
	assert.Equal(t, "5000", call.Metadata.CustomLabels["skipPosition"])

	marker, err := rec.LastCall("startFromPosition")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), marker.Value)

	// skip leaves the state machine to the follow-up events
	assert.Equal(t, comscore.StateAdvertisement, sm.State())
}

// TestAdvertisementHandler_ValidateAndForceClean tests the consistency
// check and recovery.
func TestAdvertisementHandler_ValidateAndForceClean(t *testing.T) {
	ctx, sm, _ := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)

	assert.Empty(t, h.ValidateAdBreakState())

	sm.SetInAd(true) // flag set without any ad tracked
	issues := h.ValidateAdBreakState()
	assert.NotEmpty(t, issues)

	h.ForceCleanAdState()
	assert.Empty(t, h.ValidateAdBreakState())
	assert.False(t, sm.InAd())
}

// TestAdvertisementHandler_Statistics tests the activity counters
func TestAdvertisementHandler_Statistics(t *testing.T) {
	ctx, sm, _ := newTestSession(t, testMetadata())
	h := NewAdvertisementHandler(ctx, sm)
	sm.TransitionToVideo("play")

	h.HandleAdBreakBegin(AdBreakBeginParams{AdBreakID: "b1", AdCount: 2})
	h.HandleAdBegin(AdBeginParams{AdID: "a1", AdDurationMs: int64Ptr(1000), AdType: "midroll"})
	h.HandleAdEnd(AdEndParams{AdID: "a1", Completed: boolPtr(true)})
	h.HandleAdBegin(AdBeginParams{AdID: "a2", AdDurationMs: int64Ptr(1000), AdType: "midroll"})
	h.HandleAdSkip(AdSkipParams{AdID: "a2"})
	h.HandleAdEnd(AdEndParams{AdID: "a2", Completed: boolPtr(false)})
	h.HandleAdBreakEnd(AdBreakEndParams{AdBreakID: "b1"})

	stats := h.Statistics()
	assert.Equal(t, 2, stats.AdsBegun)
	assert.Equal(t, 1, stats.AdsCompleted)
	assert.Equal(t, 1, stats.AdsSkipped)
	assert.Equal(t, 1, stats.BreaksBegun)

	h.Reset()
	assert.Equal(t, AdStatistics{}, h.Statistics())
}
