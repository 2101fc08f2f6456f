package tracker

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

const unknownAdBreakID = "unknown_break"

// AdStatistics counts ad activity since the handler was created or last
// reset.
type AdStatistics struct {
	AdsBegun     int           `json:"ads_begun"`
	AdsCompleted int           `json:"ads_completed"`
	AdsSkipped   int           `json:"ads_skipped"`
	BreaksBegun  int           `json:"breaks_begun"`
	TotalAdTime  time.Duration `json:"total_ad_time"`
}

// AdvertisementHandler tracks ad breaks and individual ad creatives. It
// builds the ad metadata envelope pushed during an ad and restores the bare
// content metadata when the ad ends.
type AdvertisementHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger

	currentAd      *comscore.AdvertisementMetadata
	currentBreakID string
	breakStartedAt time.Time
	adStartedAt    time.Time
	adsInBreak     int
	stats          AdStatistics
}

// NewAdvertisementHandler creates an ad handler bound to the session's
// state manager.
func NewAdvertisementHandler(ctx *Context, sm *StateManager) *AdvertisementHandler {
	return &AdvertisementHandler{
		ctx: ctx,
		sm:  sm,
		log: logger.ForInstance("advertisement_handler", ctx.InstanceID()),
	}
}

// HandleAdBreakBegin opens an ad break. A negative break position marks a
// post-roll break, which arms the post-roll guard in the playback handler.
func (h *AdvertisementHandler) HandleAdBreakBegin(params AdBreakBeginParams) {
	h.currentBreakID = params.AdBreakID
	if h.currentBreakID == "" {
		h.currentBreakID = unknownAdBreakID
	}
	h.breakStartedAt = time.Now()
	h.adsInBreak = params.AdCount
	h.stats.BreaksBegun++

	if params.AdBreakPositionMs != nil {
		h.sm.SetAdOffset(*params.AdBreakPositionMs)
	}

	h.log.Debug().
		Str("break_id", h.currentBreakID).
		Int("ad_count", h.adsInBreak).
		Msg("ad break begin")
}

// HandleAdBreakEnd closes the current ad break and clears the break
// position. An ad still open at break end is force-closed.
func (h *AdvertisementHandler) HandleAdBreakEnd(params AdBreakEndParams) {
	if h.currentBreakID == "" {
		h.log.Warn().Str("break_id", params.AdBreakID).Msg("ad break end without open break")
		return
	}
	h.log.Debug().
		Str("break_id", h.currentBreakID).
		Dur("break_duration", time.Since(h.breakStartedAt)).
		Msg("ad break end")

	if h.sm.InAd() {
		h.log.Warn().Msg("ad break ended while an ad was still open")
		h.sm.SetInAd(false)
		h.currentAd = nil
	}
	h.currentBreakID = ""
	h.breakStartedAt = time.Time{}
	h.adsInBreak = 0
	h.sm.SetAdOffset(0)
}

// HandleAdBegin starts tracking a single ad creative: it validates the
// reported parameters, infers the ad type when the player did not name one,
// pushes the ad metadata envelope and transitions to ad playback.
//
// Validation errors abort tracking for this ad only; warnings are logged
// and tracking proceeds.
func (h *AdvertisementHandler) HandleAdBegin(params AdBeginParams) {
	warnings, errs := validateAdBegin(params)
	for _, w := range warnings {
		h.log.Warn().Str("ad_id", params.AdID).Msg(w)
	}
	if len(errs) > 0 {
		h.log.Error().
			Str("ad_id", params.AdID).
			Strs("errors", errs).
			Msg("ad begin rejected")
		return
	}

	adType := h.inferAdType(params)
	var durationMs int64
	if params.AdDurationMs != nil {
		durationMs = *params.AdDurationMs
	}

	builder := comscore.NewAdMetadataBuilder().
		MediaType(adType).
		Length(durationMs).
		RelatedContent(h.ctx.Metadata())
	if params.AdID != "" {
		builder.UniqueID(params.AdID)
	}

	labels := comscore.Labels{}
	if h.currentBreakID != "" {
		labels["adBreakId"] = h.currentBreakID
	}
	if params.AdPositionMs != nil {
		labels["adPosition"] = fmt.Sprintf("%.0f", *params.AdPositionMs)
	}
	if len(labels) > 0 {
		builder.CustomLabels(labels)
	}

	adMeta, err := builder.Build()
	if err != nil {
		h.log.Error().Err(err).Str("ad_id", params.AdID).Msg("ad metadata build failed")
		return
	}

	h.currentAd = adMeta
	h.adStartedAt = time.Now()
	h.stats.AdsBegun++
	h.sm.SetInAd(true)
	if params.AdPositionMs != nil {
		h.sm.SetAdOffset(*params.AdPositionMs)
	}

	h.sm.SetCurrentMetadata(h.adEnvelope(adMeta))
	h.sm.TransitionToAdvertisement("ad_begin")
}

// HandleAdEnd stops tracking the current ad and restores the bare content
// metadata. Playback falls through to the video state unless the ad break
// is still open and the ad was explicitly reported incomplete.
func (h *AdvertisementHandler) HandleAdEnd(params AdEndParams) {
	if h.currentAd != nil && !h.adStartedAt.IsZero() {
		watched := time.Since(h.adStartedAt)
		h.stats.TotalAdTime += watched
		h.log.Debug().
			Str("ad_id", params.AdID).
			Dur("ad_duration", watched).
			Msg("ad end")
	}

	completed := params.Completed == nil || *params.Completed
	if completed && h.currentAd != nil {
		h.stats.AdsCompleted++
	}

	h.sm.SetInAd(false)
	h.currentAd = nil
	h.adStartedAt = time.Time{}

	if m := h.ctx.Metadata(); m != nil {
		h.sm.SetCurrentMetadata(m.Clone())
	}

	if (h.currentBreakID == "" || completed) && comscore.IsAdState(h.sm.State()) {
		h.sm.TransitionToVideo("ad_end")
	}
}

// HandleAdPause pauses the current ad
func (h *AdvertisementHandler) HandleAdPause() {
	if h.sm.State() != comscore.StateAdvertisement {
		h.log.Warn().Str("state", h.sm.State().String()).Msg("ad pause outside ad playback")
		return
	}
	h.sm.TransitionToPaused("ad_pause")
}

// HandleAdResume resumes a paused ad
func (h *AdvertisementHandler) HandleAdResume() {
	if h.sm.State() != comscore.StatePausedAd {
		h.log.Warn().Str("state", h.sm.State().String()).Msg("ad resume outside paused ad")
		return
	}
	h.sm.TransitionToAdvertisement("ad_resume")
}

// HandleAdSkip records the viewer skipping the current ad. The skip is
// stamped onto the metadata envelope as labels; the state machine is left
// alone because the player follows up with its own ad end or content resume.
func (h *AdvertisementHandler) HandleAdSkip(params AdSkipParams) {
	if h.currentAd == nil {
		h.log.Warn().Str("ad_id", params.AdID).Msg("ad skip without open ad")
		return
	}
	h.stats.AdsSkipped++

	labels := comscore.Labels{"adSkipped": "true"}
	if params.SkipPositionMs != nil {
		labels["skipPosition"] = fmt.Sprintf("%.0f", *params.SkipPositionMs)
		h.ctx.Connector.StartFromPosition(int64(*params.SkipPositionMs))
	}
	if current := h.sm.CurrentMetadata(); current != nil {
		updated := current.WithLabels(labels)
		h.ctx.Connector.Update(updated)
		h.sm.storeCurrentMetadata(updated)
	}
}

// HandleContentResume is the escape hatch for players that report resuming
// content without properly closing the ad or the break first. It clears all
// ad state, restores the content metadata and forces playback back to the
// video state.
func (h *AdvertisementHandler) HandleContentResume() {
	h.sm.SetInAd(false)
	h.currentAd = nil
	h.currentBreakID = ""
	h.breakStartedAt = time.Time{}
	h.adStartedAt = time.Time{}
	h.adsInBreak = 0
	h.sm.SetAdOffset(0)

	if m := h.ctx.Metadata(); m != nil {
		h.sm.SetCurrentMetadata(m.Clone())
	}

	state := h.sm.State()
	if comscore.IsAdState(state) || comscore.IsPausedState(state) {
		h.sm.TransitionToVideo("content_resume")
	}
}

// SetAdMetadata overrides the tracked ad metadata directly, for hosts that
// build richer ad metadata than the event parameters can carry. The envelope
// is pushed immediately when an ad is open.
func (h *AdvertisementHandler) SetAdMetadata(meta *comscore.AdvertisementMetadata) {
	h.currentAd = meta
	if meta != nil && h.sm.InAd() {
		h.sm.SetCurrentMetadata(h.adEnvelope(meta))
	}
}

// CurrentAdMetadata returns the metadata of the ad currently tracked, or
// nil outside an ad.
func (h *AdvertisementHandler) CurrentAdMetadata() *comscore.AdvertisementMetadata {
	return h.currentAd
}

// InAdBreak reports whether an ad break is currently open
func (h *AdvertisementHandler) InAdBreak() bool {
	return h.currentBreakID != ""
}

// CurrentAdBreakID returns the id of the open ad break, or "" when none is
// open.
func (h *AdvertisementHandler) CurrentAdBreakID() string {
	return h.currentBreakID
}

// Statistics returns a copy of the ad activity counters
func (h *AdvertisementHandler) Statistics() AdStatistics {
	return h.stats
}

// ValidateAdBreakState returns a list of inconsistencies between the
// handler's break bookkeeping and the state manager's flags. An empty list
// means the ad state is coherent.
func (h *AdvertisementHandler) ValidateAdBreakState() []string {
	var issues []string
	if h.sm.InAd() && h.currentAd == nil {
		issues = append(issues, "ad flag set but no ad metadata tracked")
	}
	if h.currentAd != nil && !h.sm.InAd() {
		issues = append(issues, "ad metadata tracked but ad flag clear")
	}
	if h.sm.InAd() && h.currentBreakID == "" {
		issues = append(issues, "ad open outside an ad break")
	}
	if comscore.IsAdState(h.sm.State()) && !h.sm.InAd() {
		issues = append(issues, "ad playback state without ad flag")
	}
	return issues
}

// ForceCleanAdState clears all ad bookkeeping without touching the state
// machine, for recovery after ValidateAdBreakState reported inconsistencies.
func (h *AdvertisementHandler) ForceCleanAdState() {
	h.log.Warn().Msg("forcing ad state clean")
	h.currentAd = nil
	h.currentBreakID = ""
	h.breakStartedAt = time.Time{}
	h.adStartedAt = time.Time{}
	h.adsInBreak = 0
	h.sm.SetInAd(false)
	h.sm.SetAdOffset(0)
}

// Reset clears all ad bookkeeping and counters
func (h *AdvertisementHandler) Reset() {
	h.ForceCleanAdState()
	h.stats = AdStatistics{}
}

func (h *AdvertisementHandler) adEnvelope(adMeta *comscore.AdvertisementMetadata) *comscore.ContentMetadata {
	base := h.ctx.Metadata()
	if base == nil {
		base = &comscore.ContentMetadata{}
	}
	return base.WithAdvertisement(adMeta)
}

// inferAdType maps the reported ad type string, falling back to position
// based inference: an ad at position zero is a pre-roll, anything else a
// mid-roll, and no position at all stays unclassified. Ads inside live
// content are always live ads.
func (h *AdvertisementHandler) inferAdType(params AdBeginParams) comscore.AdType {
	if m := h.ctx.Metadata(); m != nil && m.IsLive() {
		return comscore.AdTypeLive
	}
	switch params.AdType {
	case "preroll":
		return comscore.AdTypeOnDemandPreRoll
	case "midroll":
		return comscore.AdTypeOnDemandMidRoll
	case "postroll":
		return comscore.AdTypeOnDemandPostRoll
	}
	if params.AdPositionMs == nil {
		return comscore.AdTypeOther
	}
	if *params.AdPositionMs == 0 {
		return comscore.AdTypeOnDemandPreRoll
	}
	return comscore.AdTypeOnDemandMidRoll
}

func validateAdBegin(params AdBeginParams) (warnings, errs []string) {
	if params.AdID == "" {
		warnings = append(warnings, "ad begin without ad id")
	}
	if params.AdDurationMs == nil || *params.AdDurationMs <= 0 {
		warnings = append(warnings, "ad begin without positive duration")
	}
	switch params.AdType {
	case "", "preroll", "midroll", "postroll":
	default:
		warnings = append(warnings, "unknown ad type "+params.AdType)
	}
	if params.AdPositionMs != nil && *params.AdPositionMs < 0 {
		errs = append(errs, "negative ad position")
	}
	return warnings, errs
}
