package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

// Capabilities selects which event categories the plugin tracks. A disabled
// category drops its events silently.
type Capabilities struct {
	Playback      bool
	Advertisement bool
	Metadata      bool
	Quality       bool
	Application   bool
	Errors        bool
}

// DefaultCapabilities enables every event category
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Playback:      true,
		Advertisement: true,
		Metadata:      true,
		Quality:       true,
		Application:   true,
		Errors:        true,
	}
}

// Options tunes a plugin instance beyond the session configuration
type Options struct {
	Capabilities Capabilities

	// SkipTransitionValidation bypasses the allowed-transition table.
	// Meant for players with unreliable event ordering.
	SkipTransitionValidation bool
}

// DefaultOptions enables all capabilities with transition validation on
func DefaultOptions() Options {
	return Options{Capabilities: DefaultCapabilities()}
}

// Plugin is the tracking entry point for one player instance. The host
// player forwards its lifecycle events to the On methods; the plugin routes
// them to the enabled handlers, which drive the state machine and the
// connector.
//
// All positions and durations on the On methods are in milliseconds.
//
// A plugin instance is single-threaded; see the package comment.
type Plugin struct {
	ctx  *Context
	sm   *StateManager
	log  zerolog.Logger
	opts Options

	playback    *PlaybackHandler
	ads         *AdvertisementHandler
	metadata    *MetadataHandler
	quality     *QualityHandler
	application *ApplicationHandler
	errors      *ErrorHandler

	destroyed bool
}

// NewPlugin creates a plugin for one player instance. The connector carries
// the calls to the vendor library, metadata describes the initially bound
// asset and config the publisher setup. The configuration is validated up
// front so a misconfigured host fails at startup rather than silently
// reporting nothing.
func NewPlugin(connector comscore.Connector, metadata *comscore.ContentMetadata, config comscore.Configuration, opts Options) (*Plugin, error) {
	if connector == nil {
		return nil, fmt.Errorf("connector is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := NewContext(connector, metadata, config)
	sm := NewStateManager(ctx, !opts.SkipTransitionValidation)

	p := &Plugin{
		ctx:  ctx,
		sm:   sm,
		log:  logger.ForInstance("plugin", ctx.InstanceID()),
		opts: opts,
	}
	caps := opts.Capabilities
	if caps.Playback {
		p.playback = NewPlaybackHandler(ctx, sm)
	}
	if caps.Advertisement {
		p.ads = NewAdvertisementHandler(ctx, sm)
	}
	if caps.Metadata {
		p.metadata = NewMetadataHandler(ctx, sm)
	}
	if caps.Quality {
		p.quality = NewQualityHandler(ctx, sm)
	}
	if caps.Application {
		p.application = NewApplicationHandler(ctx, sm)
	}
	if caps.Errors {
		p.errors = NewErrorHandler(ctx, sm)
	}

	if metadata != nil {
		connector.SetMetadata(metadata)
	}
	p.log.Info().
		Str("publisher_id", config.PublisherID).
		Str("update_mode", string(config.EffectiveUpdateMode())).
		Msg("plugin created")
	return p, nil
}

// InstanceID returns the connector's opaque instance identifier
func (p *Plugin) InstanceID() int {
	return p.ctx.InstanceID()
}

// State returns the current playback state
func (p *Plugin) State() comscore.State {
	return p.sm.State()
}

// Snapshot returns the state manager's current tracking flags
func (p *Plugin) Snapshot() Snapshot {
	return p.sm.Snapshot()
}

// StateManager exposes the state machine, mainly for listeners
func (p *Plugin) StateManager() *StateManager {
	return p.sm
}

// Advertisement returns the ad handler, or nil when ads are disabled
func (p *Plugin) Advertisement() *AdvertisementHandler { return p.ads }

// Metadata returns the metadata handler, or nil when disabled
func (p *Plugin) Metadata() *MetadataHandler { return p.metadata }

// Quality returns the quality handler, or nil when disabled
func (p *Plugin) Quality() *QualityHandler { return p.quality }

// Errors returns the error handler, or nil when disabled
func (p *Plugin) Errors() *ErrorHandler { return p.errors }

// Capabilities reports which event categories this instance tracks
func (p *Plugin) Capabilities() Capabilities { return p.opts.Capabilities }

// Update replaces the bound asset's metadata and pushes it as a stateless
// update.
func (p *Plugin) Update(metadata *comscore.ContentMetadata) {
	if p.dropped("update") || metadata == nil {
		return
	}
	p.ctx.UpdateMetadata(metadata)
	p.ctx.Connector.Update(metadata)
}

// SetPersistentLabel sets one label that persists across playback sessions
func (p *Plugin) SetPersistentLabel(name, value string) {
	if p.dropped("setPersistentLabel") {
		return
	}
	p.ctx.Connector.SetPersistentLabel(name, value)
}

// SetPersistentLabels sets labels that persist across playback sessions
func (p *Plugin) SetPersistentLabels(labels map[string]string) {
	if p.dropped("setPersistentLabels") {
		return
	}
	p.ctx.Connector.SetPersistentLabels(labels)
}

// Playback events

func (p *Plugin) OnSourceChange() {
	if p.dropped("sourceChange") || p.playback == nil {
		return
	}
	if p.metadata != nil {
		p.metadata.HandleSourceChange()
	}
	p.playback.HandleSourceChange()
}

func (p *Plugin) OnPlay() {
	if p.dropped("play") || p.playback == nil {
		return
	}
	p.playback.HandlePlay()
}

func (p *Plugin) OnPause() {
	if p.dropped("pause") || p.playback == nil {
		return
	}
	p.playback.HandlePause()
}

func (p *Plugin) OnStop() {
	if p.dropped("stop") || p.playback == nil {
		return
	}
	p.playback.HandleStop()
}

func (p *Plugin) OnEnd() {
	if p.dropped("end") || p.playback == nil {
		return
	}
	p.playback.HandleEnd()
}

func (p *Plugin) OnSeek(params SeekParams) {
	if p.dropped("seek") || p.playback == nil {
		return
	}
	p.playback.HandleSeek(params.PositionMs/1000, params.DurationMs/1000)
}

func (p *Plugin) OnSeeked(params SeekParams) {
	if p.dropped("seeked") || p.playback == nil {
		return
	}
	p.playback.HandleSeeked(params.PositionMs/1000, params.DurationMs/1000)
}

func (p *Plugin) OnBuffering(params BufferingParams) {
	if p.dropped("buffering") || p.playback == nil {
		return
	}
	p.playback.HandleBuffering(params.Buffering)
}

func (p *Plugin) OnProgress(params ProgressParams) {
	if p.dropped("progress") || p.playback == nil {
		return
	}
	p.playback.HandleProgress(params.PositionMs/1000, params.DurationMs/1000)
}

func (p *Plugin) OnPlaybackRateChange(params RateChangeParams) {
	if p.dropped("rateChange") || p.playback == nil {
		return
	}
	p.playback.HandleRateChange(params.Rate)
}

// Metadata events

func (p *Plugin) OnMetadataLoaded(params MetadataParams) {
	if p.dropped("metadataLoaded") || p.metadata == nil {
		return
	}
	p.metadata.HandleMetadataLoaded(params)
}

func (p *Plugin) OnMetadataUpdate(params MetadataParams) {
	if p.dropped("metadataUpdate") || p.metadata == nil {
		return
	}
	p.metadata.HandleMetadataUpdate(params)
}

func (p *Plugin) OnDurationChange(params DurationChangeParams) {
	if p.dropped("durationChange") || p.metadata == nil {
		return
	}
	p.metadata.HandleDurationChange(params.DurationMs / 1000)
}

// Advertisement events

func (p *Plugin) OnAdBreakBegin(params AdBreakBeginParams) {
	if p.dropped("adBreakBegin") || p.ads == nil {
		return
	}
	p.ads.HandleAdBreakBegin(params)
}

func (p *Plugin) OnAdBreakEnd(params AdBreakEndParams) {
	if p.dropped("adBreakEnd") || p.ads == nil {
		return
	}
	p.ads.HandleAdBreakEnd(params)
}

func (p *Plugin) OnAdBegin(params AdBeginParams) {
	if p.dropped("adBegin") || p.ads == nil {
		return
	}
	p.ads.HandleAdBegin(params)
}

func (p *Plugin) OnAdEnd(params AdEndParams) {
	if p.dropped("adEnd") || p.ads == nil {
		return
	}
	p.ads.HandleAdEnd(params)
}

func (p *Plugin) OnAdPause() {
	if p.dropped("adPause") || p.ads == nil {
		return
	}
	p.ads.HandleAdPause()
}

func (p *Plugin) OnAdResume() {
	if p.dropped("adResume") || p.ads == nil {
		return
	}
	p.ads.HandleAdResume()
}

func (p *Plugin) OnAdSkip(params AdSkipParams) {
	if p.dropped("adSkip") || p.ads == nil {
		return
	}
	p.ads.HandleAdSkip(params)
}

func (p *Plugin) OnContentResume() {
	if p.dropped("contentResume") || p.ads == nil {
		return
	}
	p.ads.HandleContentResume()
}

// Error events

func (p *Plugin) OnError(params ErrorParams) {
	if p.dropped("error") || p.errors == nil {
		return
	}
	p.errors.HandleError(params)
}

func (p *Plugin) OnContentProtectionError(params ErrorParams) {
	if p.dropped("contentProtectionError") || p.errors == nil {
		return
	}
	p.errors.HandleContentProtectionError(params)
}

func (p *Plugin) OnNetworkError(params ErrorParams) {
	if p.dropped("networkError") || p.errors == nil {
		return
	}
	p.errors.HandleNetworkError(params)
}

func (p *Plugin) OnStreamError(params ErrorParams) {
	if p.dropped("streamError") || p.errors == nil {
		return
	}
	p.errors.HandleStreamError(params)
}

// Quality events

func (p *Plugin) OnQualityChange(params QualityChangeParams) {
	if p.dropped("qualityChange") || p.quality == nil {
		return
	}
	p.quality.HandleQualityChange(params)
}

func (p *Plugin) OnBitrateChange(bitrateBps int64) {
	if p.dropped("bitrateChange") || p.quality == nil {
		return
	}
	p.quality.HandleBitrateChange(bitrateBps)
}

func (p *Plugin) OnAudioTrackChange(params AudioTrackParams) {
	if p.dropped("audioTrackChange") || p.quality == nil {
		return
	}
	p.quality.HandleAudioTrackChange(params)
}

func (p *Plugin) OnVolumeChange(params VolumeParams) {
	if p.dropped("volumeChange") || p.quality == nil {
		return
	}
	p.quality.HandleVolumeChange(params.Volume)
}

func (p *Plugin) OnMuteChange(params MuteParams) {
	if p.dropped("muteChange") || p.quality == nil {
		return
	}
	p.quality.HandleMuteChange(params.Muted)
}

func (p *Plugin) OnSubtitleTrackChange(params SubtitleTrackParams) {
	if p.dropped("subtitleTrackChange") || p.quality == nil {
		return
	}
	p.quality.HandleSubtitleTrackChange(params)
}

// Application events

func (p *Plugin) OnApplicationForeground() {
	if p.dropped("applicationForeground") || p.application == nil {
		return
	}
	p.application.HandleForeground()
}

func (p *Plugin) OnApplicationBackground() {
	if p.dropped("applicationBackground") || p.application == nil {
		return
	}
	p.application.HandleBackground()
}

func (p *Plugin) OnApplicationActive() {
	if p.dropped("applicationActive") || p.application == nil {
		return
	}
	p.application.HandleActive()
}

func (p *Plugin) OnApplicationInactive() {
	if p.dropped("applicationInactive") || p.application == nil {
		return
	}
	p.application.HandleInactive()
}

// Direct connector pass-throughs

func (p *Plugin) OnStartFromPosition(params PositionParams) {
	if p.dropped("startFromPosition") {
		return
	}
	p.ctx.Connector.StartFromPosition(params.PositionMs)
}

func (p *Plugin) OnStartFromDvrWindowOffset(params DvrWindowParams) {
	if p.dropped("startFromDvrWindowOffset") {
		return
	}
	p.ctx.Connector.StartFromDvrWindowOffset(params.LengthMs)
}

func (p *Plugin) OnSetDvrWindowLength(params DvrWindowParams) {
	if p.dropped("setDvrWindowLength") {
		return
	}
	p.ctx.Connector.SetDvrWindowLength(params.LengthMs)
}

// OnCreatePlaybackSession forces a new vendor session for the current
// asset without waiting for a source change.
func (p *Plugin) OnCreatePlaybackSession() {
	if p.dropped("createPlaybackSession") {
		return
	}
	p.ctx.Connector.CreatePlaybackSession()
}

// Reset ends any open session and restores the plugin to its initial state
// so the same instance can track the asset from the start again.
func (p *Plugin) Reset() {
	if p.destroyed {
		return
	}
	p.log.Debug().Msg("plugin reset")
	p.ctx.Connector.NotifyEnd()
	p.ctx.Reset()
	p.sm.Reset()
	if p.ads != nil {
		p.ads.Reset()
	}
	if p.metadata != nil {
		p.metadata.Reset()
	}
	if p.quality != nil {
		p.quality.Reset()
	}
	if p.application != nil {
		p.application.Reset()
	}
	if p.errors != nil {
		p.errors.Reset()
	}
}

// Destroy releases the vendor instance. The first call wins; the plugin
// drops all events afterwards.
func (p *Plugin) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.log.Info().Msg("plugin destroyed")
	p.ctx.Connector.Destroy()
}

// Destroyed reports whether Destroy has been called
func (p *Plugin) Destroyed() bool {
	return p.destroyed
}

func (p *Plugin) dropped(event string) bool {
	if p.destroyed {
		p.log.Warn().Str("event", event).Msg("event after destroy dropped")
		return true
	}
	return false
}
