package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQualityHandler_BitrateThreshold tests that only significant bitrate
// moves are pushed.
func TestQualityHandler_BitrateThreshold(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleBitrateChange(4_000_000)
	assert.Equal(t, 1, rec.Count("update"))

	// 10% move stays below the 20% threshold
	h.HandleBitrateChange(4_400_000)
	assert.Equal(t, 1, rec.Count("update"))

	// 50% move crosses it
	h.HandleBitrateChange(6_600_000)
	assert.Equal(t, 2, rec.Count("update"))

	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "6600000", call.Metadata.CustomLabels["bitrate"])

	stats := h.Statistics()
	assert.Equal(t, 3, stats.ByKind["bitrate"])
	assert.Equal(t, 2, stats.SignificantPushes)
}

// TestQualityHandler_VolumeThreshold tests the absolute volume threshold
func TestQualityHandler_VolumeThreshold(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	// starts at full volume; a small dip is not pushed
	h.HandleVolumeChange(0.95)
	assert.Zero(t, rec.Count("update"))

	h.HandleVolumeChange(0.5)
	assert.Equal(t, 1, rec.Count("update"))

	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "0.50", call.Metadata.CustomLabels["volume"])
}

// TestQualityHandler_QualityChange tests rendition switch pushing
func TestQualityHandler_QualityChange(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleQualityChange(QualityChangeParams{Quality: "720p", BitrateBps: int64Ptr(3_000_000), Width: 1280, Height: 720})
	assert.Equal(t, 1, rec.Count("update"))

	// same resolution, tiny bitrate move: recorded but not pushed
	h.HandleQualityChange(QualityChangeParams{Quality: "720p", BitrateBps: int64Ptr(3_100_000), Width: 1280, Height: 720})
	assert.Equal(t, 1, rec.Count("update"))

	// resolution change always pushes
	h.HandleQualityChange(QualityChangeParams{Quality: "1080p", BitrateBps: int64Ptr(3_200_000), Width: 1920, Height: 1080})
	assert.Equal(t, 2, rec.Count("update"))

	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "1920x1080", call.Metadata.CustomLabels["resolution"])
}

// TestQualityHandler_MuteDeduplicated tests mute edge triggering
func TestQualityHandler_MuteDeduplicated(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleMuteChange(true)
	h.HandleMuteChange(true)
	h.HandleMuteChange(false)

	assert.Equal(t, 2, rec.Count("update"))
	assert.False(t, h.CurrentState().Muted)
}

// TestQualityHandler_SubtitleTracks tests subtitle selection labels
func TestQualityHandler_SubtitleTracks(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleSubtitleTrackChange(SubtitleTrackParams{TrackID: "sub-de", Language: "de"})
	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "true", call.Metadata.CustomLabels["subtitlesEnabled"])
	assert.Equal(t, "de", call.Metadata.CustomLabels["subtitleLanguage"])

	h.HandleSubtitleTrackChange(SubtitleTrackParams{})
	call, err = rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "false", call.Metadata.CustomLabels["subtitlesEnabled"])
}

// TestQualityHandler_AudioTrack tests audio selection labels
func TestQualityHandler_AudioTrack(t *testing.T) {
	ctx, sm, rec := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleAudioTrackChange(AudioTrackParams{TrackID: "aud-en", Language: "en", Label: "English"})

	call, err := rec.LastCall("update")
	require.NoError(t, err)
	assert.Equal(t, "aud-en", call.Metadata.CustomLabels["audioTrack"])
	assert.Equal(t, "en", call.Metadata.CustomLabels["audioTrackLanguage"])
	assert.Equal(t, "aud-en", h.CurrentState().AudioTrack)
}

// TestQualityHandler_HistoryBounded tests the history cap and reset
func TestQualityHandler_HistoryBounded(t *testing.T) {
	ctx, sm, _ := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	for i := 0; i < maxQualityHistory+10; i++ {
		h.HandleBitrateChange(int64(1_000_000 + i))
	}
	assert.Len(t, h.History(), maxQualityHistory)

	h.Reset()
	assert.Empty(t, h.History())
	assert.Equal(t, 1.0, h.CurrentState().Volume)
}

// TestQualityHandler_Statistics tests the aggregate counters
func TestQualityHandler_Statistics(t *testing.T) {
	ctx, sm, _ := newTestSession(t, testMetadata())
	h := NewQualityHandler(ctx, sm)

	h.HandleQualityChange(QualityChangeParams{Quality: "720p", BitrateBps: int64Ptr(2_000_000)})
	h.HandleQualityChange(QualityChangeParams{Quality: "1080p", BitrateBps: int64Ptr(5_000_000)})
	h.HandleQualityChange(QualityChangeParams{Quality: "1080p", BitrateBps: int64Ptr(5_000_000)})
	h.HandleBitrateChange(6_000_000)

	stats := h.Statistics()
	assert.Equal(t, 4, stats.TotalChanges)
	assert.Equal(t, 3, stats.ByKind["quality"])
	assert.Equal(t, 1, stats.ByKind["bitrate"])
	assert.Equal(t, "1080p", stats.MostCommonQuality)
	assert.Equal(t, int64(4_500_000), stats.AverageBitrateBps)

	h.Reset()
	stats = h.Statistics()
	assert.Zero(t, stats.TotalChanges)
	assert.Zero(t, stats.AverageBitrateBps)
	assert.Empty(t, stats.MostCommonQuality)
}
