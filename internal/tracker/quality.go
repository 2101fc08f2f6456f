package tracker

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

const (
	// bitrateChangeThreshold is the relative bitrate change below which a
	// rendition switch is recorded but not pushed to the connector.
	bitrateChangeThreshold = 0.20

	// volumeChangeThreshold is the absolute volume change below which a
	// volume event is recorded but not pushed.
	volumeChangeThreshold = 0.10

	maxQualityHistory = 50
)

// QualityState is the last reported rendition and audio setup
type QualityState struct {
	Quality       string  `json:"quality"`
	BitrateBps    int64   `json:"bitrate_bps"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	AudioTrack    string  `json:"audio_track"`
	SubtitleTrack string  `json:"subtitle_track"`
	Volume        float64 `json:"volume"`
	Muted         bool    `json:"muted"`
}

// QualityChange is one entry of the bounded quality change history
type QualityChange struct {
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// QualityStatistics summarizes recorded quality activity
type QualityStatistics struct {
	TotalChanges      int            `json:"total_changes"`
	ByKind            map[string]int `json:"by_kind"`
	SignificantPushes int            `json:"significant_pushes"`
	AverageBitrateBps int64          `json:"average_bitrate_bps"`
	MostCommonQuality string         `json:"most_common_quality"`
}

// QualityHandler tracks rendition switches, audio and subtitle selection,
// and volume. Small fluctuations are recorded locally; only changes beyond
// the thresholds are pushed to the connector as metadata labels.
type QualityHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger

	state          QualityState
	history        []QualityChange
	byKind         map[string]int
	pushes         int
	total          int
	bitrateSamples []int64
	qualityCounts  map[string]int
}

// NewQualityHandler creates a quality handler with full volume and no
// tracks selected.
func NewQualityHandler(ctx *Context, sm *StateManager) *QualityHandler {
	return &QualityHandler{
		ctx:           ctx,
		sm:            sm,
		log:           logger.ForInstance("quality_handler", ctx.InstanceID()),
		state:         QualityState{Volume: 1.0},
		byKind:        make(map[string]int),
		qualityCounts: make(map[string]int),
	}
}

// HandleQualityChange records a rendition switch and pushes it when the
// bitrate moved beyond the threshold or the resolution changed.
func (h *QualityHandler) HandleQualityChange(params QualityChangeParams) {
	prev := h.state
	h.state.Quality = params.Quality
	if params.Quality != "" {
		h.qualityCounts[params.Quality]++
	}
	if params.BitrateBps != nil {
		h.state.BitrateBps = *params.BitrateBps
		h.sampleBitrate(*params.BitrateBps)
	}
	if params.Width > 0 {
		h.state.Width = params.Width
	}
	if params.Height > 0 {
		h.state.Height = params.Height
	}
	h.record("quality", params.Quality)

	resolutionChanged := h.state.Width != prev.Width || h.state.Height != prev.Height
	if !resolutionChanged && !bitrateChangedSignificantly(prev.BitrateBps, h.state.BitrateBps) {
		return
	}
	h.pushLabels(comscore.Labels{
		"quality":    h.state.Quality,
		"bitrate":    strconv.FormatInt(h.state.BitrateBps, 10),
		"resolution": fmt.Sprintf("%dx%d", h.state.Width, h.state.Height),
	})
}

// HandleBitrateChange records a bitrate change and pushes it when it moved
// beyond the threshold.
func (h *QualityHandler) HandleBitrateChange(bitrateBps int64) {
	prev := h.state.BitrateBps
	h.state.BitrateBps = bitrateBps
	h.sampleBitrate(bitrateBps)
	h.record("bitrate", strconv.FormatInt(bitrateBps, 10))

	if !bitrateChangedSignificantly(prev, bitrateBps) {
		return
	}
	h.pushLabels(comscore.Labels{"bitrate": strconv.FormatInt(bitrateBps, 10)})
}

// HandleAudioTrackChange records and pushes an audio track selection
func (h *QualityHandler) HandleAudioTrackChange(params AudioTrackParams) {
	h.state.AudioTrack = params.TrackID
	h.record("audio_track", params.TrackID)
	h.pushLabels(comscore.Labels{
		"audioTrack":         params.TrackID,
		"audioTrackLanguage": params.Language,
	})
}

// HandleVolumeChange records a volume change and pushes it when it moved
// beyond the threshold.
func (h *QualityHandler) HandleVolumeChange(volume float64) {
	prev := h.state.Volume
	h.state.Volume = volume
	h.record("volume", fmt.Sprintf("%.2f", volume))

	if math.Abs(volume-prev) < volumeChangeThreshold {
		return
	}
	h.pushLabels(comscore.Labels{"volume": fmt.Sprintf("%.2f", volume)})
}

// HandleMuteChange records and pushes a mute toggle
func (h *QualityHandler) HandleMuteChange(muted bool) {
	if muted == h.state.Muted {
		return
	}
	h.state.Muted = muted
	h.record("mute", strconv.FormatBool(muted))
	h.pushLabels(comscore.Labels{"muted": strconv.FormatBool(muted)})
}

// HandleSubtitleTrackChange records and pushes a subtitle selection. An
// empty track id means subtitles were turned off.
func (h *QualityHandler) HandleSubtitleTrackChange(params SubtitleTrackParams) {
	h.state.SubtitleTrack = params.TrackID
	h.record("subtitle_track", params.TrackID)

	labels := comscore.Labels{"subtitlesEnabled": strconv.FormatBool(params.TrackID != "")}
	if params.TrackID != "" {
		labels["subtitleTrack"] = params.TrackID
		labels["subtitleLanguage"] = params.Language
	}
	h.pushLabels(labels)
}

// CurrentState returns a copy of the last reported quality state
func (h *QualityHandler) CurrentState() QualityState {
	return h.state
}

// History returns a copy of the bounded quality change history
func (h *QualityHandler) History() []QualityChange {
	out := make([]QualityChange, len(h.history))
	copy(out, h.history)
	return out
}

// Statistics returns counters over the recorded quality changes
func (h *QualityHandler) Statistics() QualityStatistics {
	byKind := make(map[string]int, len(h.byKind))
	for k, v := range h.byKind {
		byKind[k] = v
	}
	return QualityStatistics{
		TotalChanges:      h.total,
		ByKind:            byKind,
		SignificantPushes: h.pushes,
		AverageBitrateBps: averageBitrate(h.bitrateSamples),
		MostCommonQuality: mostCommon(h.qualityCounts),
	}
}

// Reset clears the recorded state, history and counters
func (h *QualityHandler) Reset() {
	h.state = QualityState{Volume: 1.0}
	h.history = nil
	h.byKind = make(map[string]int)
	h.pushes = 0
	h.total = 0
	h.bitrateSamples = nil
	h.qualityCounts = make(map[string]int)
}

func (h *QualityHandler) record(kind, detail string) {
	if len(h.history) >= maxQualityHistory {
		h.history = h.history[1:]
	}
	h.history = append(h.history, QualityChange{Kind: kind, Detail: detail, Timestamp: time.Now()})
	h.byKind[kind]++
	h.total++
}

func (h *QualityHandler) sampleBitrate(bitrateBps int64) {
	if bitrateBps <= 0 {
		return
	}
	if len(h.bitrateSamples) >= maxQualityHistory {
		h.bitrateSamples = h.bitrateSamples[1:]
	}
	h.bitrateSamples = append(h.bitrateSamples, bitrateBps)
}

// pushLabels sends the labels as a stateless update on the current metadata
func (h *QualityHandler) pushLabels(labels comscore.Labels) {
	current := h.sm.CurrentMetadata()
	if current == nil {
		current = h.ctx.Metadata()
	}
	if current == nil {
		h.log.Debug().Msg("quality change before metadata, skipping push")
		return
	}
	updated := current.WithLabels(labels)
	h.ctx.Connector.Update(updated)
	h.sm.storeCurrentMetadata(updated)
	h.pushes++
}

func bitrateChangedSignificantly(prev, next int64) bool {
	if prev <= 0 {
		return next > 0
	}
	return math.Abs(float64(next-prev))/float64(prev) > bitrateChangeThreshold
}

func averageBitrate(samples []int64) int64 {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, s := range samples {
		sum += s
	}
	return sum / int64(len(samples))
}

func mostCommon(counts map[string]int) string {
	best, bestCount := "", 0
	for k, v := range counts {
		if v > bestCount || (v == bestCount && k < best) {
			best, bestCount = k, v
		}
	}
	return best
}
