package tracker

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

// PlaybackHandler translates core playback events (play, pause, seek,
// buffering, end) into state transitions and direct connector calls.
//
// Positions and durations on this handler are in seconds; the plugin
// converts from the millisecond event boundary.
type PlaybackHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger
}

// NewPlaybackHandler creates a playback handler bound to the session's
// state manager.
func NewPlaybackHandler(ctx *Context, sm *StateManager) *PlaybackHandler {
	return &PlaybackHandler{
		ctx: ctx,
		sm:  sm,
		log: logger.ForInstance("playback_handler", ctx.InstanceID()),
	}
}

// HandleSourceChange rebinds the instance to a new asset: the tracking state
// is reset, the current metadata is dropped until the new asset's metadata
// loads, and a fresh playback session is created.
func (h *PlaybackHandler) HandleSourceChange() {
	h.log.Debug().Msg("source changed")
	h.sm.Reset()
	h.sm.SetCurrentMetadata(nil)
	h.ctx.Connector.CreatePlaybackSession()
}

// HandlePlay starts or resumes playback. A play after the asset ended opens
// a fresh playback session first. A play arriving after a post-roll ad break
// was announced (negative ad offset) is swallowed, because a session may not
// restart behind the post-roll boundary.
func (h *PlaybackHandler) HandlePlay() {
	if h.sm.Ended() {
		h.log.Debug().Msg("play after end, starting new session")
		h.sm.SetEnded(false)
		h.ctx.Connector.CreatePlaybackSession()
		h.sm.SetAdOffset(0)
		if m := h.ctx.Metadata(); m != nil {
			h.sm.SetCurrentMetadata(m.Clone())
		}
	}

	switch {
	case h.sm.State() == comscore.StateAdvertisement:
		h.sm.TransitionToAdvertisement("play")
	case h.sm.AdOffset() < 0:
		// no content follows a post-roll
		h.log.Debug().
			Float64("ad_offset", h.sm.AdOffset()).
			Msg("ignoring play after post-roll break")
	case h.sm.State() == comscore.StateVideo:
		h.ctx.Connector.NotifyPlay()
	default:
		h.sm.TransitionToVideo("play")
	}
}

// HandlePause pauses playback on either side of the ad boundary
func (h *PlaybackHandler) HandlePause() {
	h.sm.TransitionToPaused("pause")
}

// HandleStop stops playback and ends the session
func (h *PlaybackHandler) HandleStop() {
	h.sm.TransitionToStopped("stop")
}

// HandleEnd marks the asset as played to completion and ends the session.
// The ended flag makes the next play open a new session.
func (h *PlaybackHandler) HandleEnd() {
	h.sm.TransitionToStopped("ended")
	h.sm.SetEnded(true)
}

// HandleSeek reports a seek to timeSec. The seek-start notification always
// precedes the position report. For streams without a known duration (live
// and DVR report 0 or NaN) the absolute position is still reported, anchored
// to the player's own timeline.
func (h *PlaybackHandler) HandleSeek(timeSec, durationSec float64) {
	h.ctx.Connector.NotifySeekStart()
	if durationSec <= 0 || math.IsNaN(durationSec) {
		h.log.Debug().
			Float64("time", timeSec).
			Msg("seek on stream without known duration")
	}
	h.ctx.Connector.StartFromPosition(int64(timeSec * 1000))
}

// HandleSeeked reports a completed seek, same contract as HandleSeek
func (h *PlaybackHandler) HandleSeeked(timeSec, durationSec float64) {
	h.HandleSeek(timeSec, durationSec)
}

// HandleBuffering tracks the player's buffering flag edge-triggered: repeats
// of the same flag are dropped. A buffer start is only recorded and reported
// while the state and the ad flag agree (ad state during an ad, video state
// outside one); a suppressed start leaves the flag clear, so the matching
// falling edge is dropped too and no unpaired buffer stop reaches the
// connector.
func (h *PlaybackHandler) HandleBuffering(buffering bool) {
	if buffering == h.sm.Buffering() {
		return
	}

	if buffering {
		state := h.sm.State()
		inAd := h.sm.InAd()
		if (state == comscore.StateAdvertisement && inAd) ||
			(state == comscore.StateVideo && !inAd) {
			h.sm.SetBuffering(true)
			h.ctx.Connector.NotifyBufferStart()
		}
		return
	}
	h.sm.SetBuffering(false)
	h.ctx.Connector.NotifyBufferStop()
}

// HandleRateChange reports a playback rate change straight through
func (h *PlaybackHandler) HandleRateChange(rate float64) {
	h.ctx.Connector.NotifyChangePlaybackRate(rate)
}

// HandleProgress records a periodic playhead report. Progress is bookkeeping
// only; the vendor library derives watch time from the lifecycle edges.
func (h *PlaybackHandler) HandleProgress(positionSec, durationSec float64) {
	h.log.Trace().
		Float64("position", positionSec).
		Float64("duration", durationSec).
		Msg("progress")
}
