package tracker

import (
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

const (
	// DefaultDurationChangeThreshold is the relative duration change above
	// which on-demand content is treated as a different asset and a new
	// playback session is created.
	DefaultDurationChangeThreshold = 0.10

	maxMetadataHistory = 20
)

// significantMetadataFields are the fields whose change alone justifies
// pushing updated metadata to the connector.
var significantMetadataFields = map[string]bool{
	"uniqueId":      true,
	"programTitle":  true,
	"episodeTitle":  true,
	"length":        true,
	"publisherName": true,
	"stationTitle":  true,
}

// MetadataChange is one entry of the handler's bounded change history
type MetadataChange struct {
	ChangeType     string
	AffectedFields []string
	Timestamp      time.Time
	Previous       *comscore.ContentMetadata
	New            *comscore.ContentMetadata
}

// MetadataStatistics summarizes the handler's bookkeeping
type MetadataStatistics struct {
	TotalChanges  int            `json:"total_changes"`
	ByType        map[string]int `json:"by_type"`
	Loaded        bool           `json:"loaded"`
	DurationKnown bool           `json:"duration_known"`
}

// MetadataHandler keeps the tracked asset's metadata in sync with what the
// player reports. It detects live versus on-demand content, recreates the
// playback session when the duration changes enough to indicate a different
// asset, and keeps a bounded history of metadata changes for diagnostics.
type MetadataHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger

	current         *comscore.ContentMetadata
	history         []MetadataChange
	byType          map[string]int
	total           int
	loaded          bool
	durationKnown   bool
	lastDurationSec *float64
	threshold       float64
}

// NewMetadataHandler creates a metadata handler using the default duration
// change threshold.
func NewMetadataHandler(ctx *Context, sm *StateManager) *MetadataHandler {
	return &MetadataHandler{
		ctx:       ctx,
		sm:        sm,
		log:       logger.ForInstance("metadata_handler", ctx.InstanceID()),
		current:   ctx.Metadata().Clone(),
		byType:    make(map[string]int),
		threshold: DefaultDurationChangeThreshold,
	}
}

// SetDurationChangeThreshold overrides the relative duration change above
// which a new playback session is created.
func (h *MetadataHandler) SetDurationChangeThreshold(threshold float64) {
	h.threshold = threshold
}

// HandleMetadataLoaded replaces the tracked metadata with what the player
// loaded, pushes it to the connector and stamps content type labels.
func (h *MetadataHandler) HandleMetadataLoaded(params MetadataParams) {
	h.loaded = true
	if params.Metadata == nil {
		h.log.Warn().Msg("metadata loaded without metadata")
		return
	}

	h.recordChange("load", h.current, params.Metadata)
	h.current = params.Metadata.Clone()
	h.ctx.UpdateMetadata(h.current)
	h.durationKnown = !math.IsNaN(h.current.LengthMs) && h.current.LengthMs > 0

	if !h.sm.InAd() {
		h.sm.SetCurrentMetadata(h.current.Clone())
		h.pushContentTypeLabels()
	}
}

// HandleMetadataUpdate merges a metadata update from the player. Only
// changes to significant fields are pushed to the connector; everything else
// is recorded in the history only.
func (h *MetadataHandler) HandleMetadataUpdate(params MetadataParams) {
	if params.Metadata == nil {
		h.log.Warn().Msg("metadata update without metadata")
		return
	}
	if !h.loaded {
		h.log.Warn().Msg("metadata update before load")
	}

	fields := diffMetadataFields(h.current, params.Metadata)
	h.recordChange("update", h.current, params.Metadata)
	h.current = params.Metadata.Clone()
	h.ctx.UpdateMetadata(h.current)

	if !hasSignificantChanges(fields) {
		h.log.Debug().Strs("fields", fields).Msg("metadata update without significant changes")
		return
	}
	if !h.sm.InAd() {
		h.ctx.Connector.Update(h.current)
		h.sm.storeCurrentMetadata(h.current.Clone())
	}
}

// HandleDurationChange processes a new stream duration in seconds. A flip
// between live and on-demand, or an on-demand duration change beyond the
// threshold, is treated as a different asset and opens a new playback
// session.
func (h *MetadataHandler) HandleDurationChange(durationSec float64) {
	prev := h.lastDurationSec
	d := durationSec
	h.lastDurationSec = &d

	if prev != nil && isLiveDuration(*prev) != isLiveDuration(d) {
		h.log.Info().
			Bool("live", isLiveDuration(d)).
			Msg("content type changed")
		h.pushContentTypeLabels()
	}
	if h.shouldCreateNewSession(prev, d) {
		h.log.Info().
			Float64("duration", d).
			Msg("duration change indicates new asset, creating playback session")
		h.ctx.Connector.CreatePlaybackSession()
	}

	h.durationKnown = !math.IsNaN(d) && d > 0

	if h.current == nil {
		return
	}
	updated := h.current.Clone()
	updated.LengthMs = d * 1000
	h.recordChange("duration_change", h.current, updated)
	h.current = updated
	h.ctx.UpdateMetadata(updated)
	if !h.sm.InAd() {
		h.ctx.Connector.Update(updated)
		h.sm.storeCurrentMetadata(updated.Clone())
	}
}

// HandleSourceChange drops the tracked metadata until the new asset's
// metadata loads.
func (h *MetadataHandler) HandleSourceChange() {
	h.current = nil
	h.loaded = false
	h.durationKnown = false
	h.lastDurationSec = nil
}

// CurrentMetadata returns the metadata currently tracked for the asset
func (h *MetadataHandler) CurrentMetadata() *comscore.ContentMetadata {
	return h.current
}

// IsLiveContent reports whether the tracked asset is live
func (h *MetadataHandler) IsLiveContent() bool {
	return h.current != nil && h.current.IsLive()
}

// ContentType returns "live", "vod" or "unknown"
func (h *MetadataHandler) ContentType() string {
	if h.current == nil {
		return "unknown"
	}
	if h.current.IsLive() {
		return "live"
	}
	return "vod"
}

// History returns a copy of the bounded metadata change history
func (h *MetadataHandler) History() []MetadataChange {
	out := make([]MetadataChange, len(h.history))
	copy(out, h.history)
	return out
}

// Statistics returns counters over the recorded metadata changes
func (h *MetadataHandler) Statistics() MetadataStatistics {
	byType := make(map[string]int, len(h.byType))
	for k, v := range h.byType {
		byType[k] = v
	}
	return MetadataStatistics{
		TotalChanges:  h.total,
		ByType:        byType,
		Loaded:        h.loaded,
		DurationKnown: h.durationKnown,
	}
}

// CheckCompleteness returns the metadata fields still missing for a full
// report. An empty list means the metadata is complete.
func (h *MetadataHandler) CheckCompleteness() []string {
	var missing []string
	if h.current == nil {
		return []string{"metadata"}
	}
	if h.current.UniqueID == "" {
		missing = append(missing, "uniqueId")
	}
	if h.current.ProgramTitle == "" {
		missing = append(missing, "programTitle")
	}
	if h.current.EpisodeTitle == "" {
		missing = append(missing, "episodeTitle")
	}
	if h.current.PublisherName == "" {
		missing = append(missing, "publisherName")
	}
	if h.current.MediaType == "" {
		missing = append(missing, "mediaType")
	}
	if !h.current.IsLive() && h.current.LengthMs <= 0 {
		missing = append(missing, "length")
	}
	return missing
}

// ForceSync re-pushes the tracked metadata to the connector, for recovery
// after the host suspects the vendor library holds stale metadata.
func (h *MetadataHandler) ForceSync() {
	if h.current == nil {
		h.log.Warn().Msg("force sync without metadata")
		return
	}
	h.sm.SetCurrentMetadata(h.current.Clone())
}

// SetDvrWindow reports the DVR window length for live content
func (h *MetadataHandler) SetDvrWindow(lengthSec float64) {
	if !h.IsLiveContent() {
		h.log.Warn().Msg("dvr window set on non-live content")
		return
	}
	h.ctx.Connector.SetDvrWindowLength(int64(lengthSec * 1000))
}

// Reset clears the handler back to the constructor-supplied metadata
func (h *MetadataHandler) Reset() {
	h.current = h.ctx.Original().Clone()
	h.history = nil
	h.byType = make(map[string]int)
	h.total = 0
	h.loaded = false
	h.durationKnown = false
	h.lastDurationSec = nil
}

func (h *MetadataHandler) recordChange(changeType string, prev, next *comscore.ContentMetadata) {
	change := MetadataChange{
		ChangeType:     changeType,
		AffectedFields: diffMetadataFields(prev, next),
		Timestamp:      time.Now(),
		Previous:       prev.Clone(),
		New:            next.Clone(),
	}
	if len(h.history) >= maxMetadataHistory {
		h.history = h.history[1:]
	}
	h.history = append(h.history, change)
	h.byType[changeType]++
	h.total++
}

// pushContentTypeLabels stamps the detected content type onto the current
// metadata and sends it as a stateless update.
func (h *MetadataHandler) pushContentTypeLabels() {
	if h.current == nil {
		return
	}
	live := h.current.IsLive()
	contentType := "vod"
	if live {
		contentType = "live"
	}
	labeled := h.current.WithLabels(comscore.Labels{
		"detectedContentType": contentType,
		"isLiveStream":        strconv.FormatBool(live),
		"durationKnown":       strconv.FormatBool(h.durationKnown),
	})
	h.ctx.Connector.Update(labeled)
	if !h.sm.InAd() {
		h.sm.storeCurrentMetadata(labeled)
	}
}

func (h *MetadataHandler) shouldCreateNewSession(prev *float64, next float64) bool {
	if prev == nil {
		return false
	}
	prevLive := isLiveDuration(*prev)
	nextLive := isLiveDuration(next)
	if prevLive != nextLive {
		return true
	}
	if prevLive || *prev <= 0 {
		return false
	}
	return math.Abs(next-*prev) / *prev > h.threshold
}

func isLiveDuration(d float64) bool {
	return d == 0 || math.IsNaN(d)
}

func hasSignificantChanges(fields []string) bool {
	for _, f := range fields {
		if significantMetadataFields[f] {
			return true
		}
	}
	return false
}

// diffMetadataFields compares the fields the change history and the
// significance check care about.
func diffMetadataFields(prev, next *comscore.ContentMetadata) []string {
	if prev == nil && next == nil {
		return nil
	}
	if prev == nil || next == nil {
		return []string{"metadata"}
	}
	var fields []string
	if prev.UniqueID != next.UniqueID {
		fields = append(fields, "uniqueId")
	}
	if prev.ProgramTitle != next.ProgramTitle {
		fields = append(fields, "programTitle")
	}
	if prev.EpisodeTitle != next.EpisodeTitle {
		fields = append(fields, "episodeTitle")
	}
	if prev.LengthMs != next.LengthMs && !(math.IsNaN(prev.LengthMs) && math.IsNaN(next.LengthMs)) {
		fields = append(fields, "length")
	}
	if prev.PublisherName != next.PublisherName {
		fields = append(fields, "publisherName")
	}
	if prev.StationTitle != next.StationTitle {
		fields = append(fields, "stationTitle")
	}
	if prev.MediaType != next.MediaType {
		fields = append(fields, "mediaType")
	}
	if prev.GenreName != next.GenreName {
		fields = append(fields, "genreName")
	}
	if prev.ClipURL != next.ClipURL {
		fields = append(fields, "clipUrl")
	}
	return fields
}
