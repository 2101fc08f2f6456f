package tracker

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

// StateChangeFunc observes completed state transitions. Listeners run
// synchronously on the transition; a panicking listener is recovered and
// logged and never blocks the transition or later listeners.
type StateChangeFunc func(from, to comscore.State, reason string)

// Snapshot is a point-in-time copy of the state manager's tracking flags,
// used by diagnostics and the simulator.
type Snapshot struct {
	InstanceID int                       `json:"instance_id"`
	State      comscore.State            `json:"state"`
	Metadata   *comscore.ContentMetadata `json:"metadata,omitempty"`
	Buffering  bool                      `json:"buffering"`
	Ended      bool                      `json:"ended"`
	InAd       bool                      `json:"in_ad"`
	AdOffset   float64                   `json:"ad_offset"`
	Changed    time.Time                 `json:"changed"`
}

// StateManager owns the playback state machine for one tracked instance. It
// validates transitions against the allowed-transition table, mirrors
// lifecycle edges to the connector (play on entering a playing state, pause
// on pausing, end on stopping) and keeps the session flags the handlers
// coordinate through.
//
// Not safe for concurrent use; see the package comment.
type StateManager struct {
	ctx *Context
	log zerolog.Logger

	state      comscore.State
	metadata   *comscore.ContentMetadata
	buffering  bool
	ended      bool
	inAd       bool
	adOffset   float64
	lastChange time.Time
	validate   bool
	listeners  []StateChangeFunc
}

// NewStateManager creates a state manager in the initialized state, bound to
// the context's connector and seeded with the context's content metadata.
// When validate is false the transition table is bypassed and every
// requested transition is performed.
func NewStateManager(ctx *Context, validate bool) *StateManager {
	return &StateManager{
		ctx:        ctx,
		log:        logger.ForInstance("state_manager", ctx.InstanceID()),
		state:      comscore.StateInitialized,
		metadata:   ctx.Metadata().Clone(),
		validate:   validate,
		lastChange: time.Now(),
	}
}

// State returns the current playback state
func (sm *StateManager) State() comscore.State {
	return sm.state
}

// Snapshot returns a copy of the current tracking flags
func (sm *StateManager) Snapshot() Snapshot {
	return Snapshot{
		InstanceID: sm.ctx.InstanceID(),
		State:      sm.state,
		Metadata:   sm.metadata.Clone(),
		Buffering:  sm.buffering,
		Ended:      sm.ended,
		InAd:       sm.inAd,
		AdOffset:   sm.adOffset,
		Changed:    sm.lastChange,
	}
}

// CurrentMetadata returns the metadata most recently pushed for this
// instance, which during an ad is the ad envelope rather than the bare
// content metadata.
func (sm *StateManager) CurrentMetadata() *comscore.ContentMetadata {
	return sm.metadata
}

// SetCurrentMetadata stores metadata as the instance's current metadata and,
// when non-nil, immediately forwards it to the connector.
func (sm *StateManager) SetCurrentMetadata(metadata *comscore.ContentMetadata) {
	sm.metadata = metadata
	if metadata != nil {
		sm.ctx.Connector.SetMetadata(metadata)
	}
}

// storeCurrentMetadata stores metadata without pushing it to the connector,
// for handlers that already sent it through an update call.
func (sm *StateManager) storeCurrentMetadata(metadata *comscore.ContentMetadata) {
	sm.metadata = metadata
}

func (sm *StateManager) Buffering() bool   { return sm.buffering }
func (sm *StateManager) Ended() bool       { return sm.ended }
func (sm *StateManager) InAd() bool        { return sm.inAd }
func (sm *StateManager) AdOffset() float64 { return sm.adOffset }

// SetBuffering records the player's buffering flag
func (sm *StateManager) SetBuffering(buffering bool) { sm.buffering = buffering }

// SetEnded records whether playback has reached the end of the asset
func (sm *StateManager) SetEnded(ended bool) { sm.ended = ended }

// SetInAd records whether an ad creative is currently tracked
func (sm *StateManager) SetInAd(inAd bool) { sm.inAd = inAd }

// SetAdOffset records the position of the current or upcoming ad break in
// milliseconds. Negative values mark a post-roll break.
func (sm *StateManager) SetAdOffset(offset float64) { sm.adOffset = offset }

// AddStateChangeListener registers a listener for completed transitions
func (sm *StateManager) AddStateChangeListener(fn StateChangeFunc) {
	sm.listeners = append(sm.listeners, fn)
}

// CanTransitionTo reports whether the state machine may move to target from
// the current state. Always true when validation is disabled.
func (sm *StateManager) CanTransitionTo(target comscore.State) bool {
	if !sm.validate {
		return true
	}
	return sm.state.CanTransitionTo(target)
}

// SetCurrentState force-sets the state without table validation or connector
// side effects. Listeners still fire. Intended for recovery paths only;
// normal flow goes through the TransitionTo methods.
func (sm *StateManager) SetCurrentState(target comscore.State, reason string) {
	from := sm.state
	sm.state = target
	sm.lastChange = time.Now()
	sm.log.Warn().
		Str("from", from.String()).
		Str("to", target.String()).
		Str("reason", reason).
		Msg("state force-set outside transition table")
	sm.notifyListeners(from, target, reason)
}

// TransitionToStopped moves to the stopped state and notifies the connector
// that the session ended. Calling it while already stopped is a no-op, so
// the end notification fires at most once per session.
func (sm *StateManager) TransitionToStopped(reason string) {
	if sm.state == comscore.StateStopped {
		sm.log.Debug().Str("reason", reason).Msg("already stopped")
		return
	}
	if !sm.performTransition(comscore.StateStopped, reason) {
		return
	}
	sm.ctx.Connector.NotifyEnd()
}

// TransitionToPaused pauses playback, choosing the paused state matching the
// side of the ad boundary we are on. Only the two playing states may pause;
// anything else is rejected with a warning.
func (sm *StateManager) TransitionToPaused(reason string) {
	target := comscore.PausedStateFor(sm.state)
	if target == "" {
		sm.log.Warn().
			Str("from", sm.state.String()).
			Str("reason", reason).
			Msg("pause requested outside a playing state")
		return
	}
	if !sm.performTransition(target, reason) {
		return
	}
	sm.ctx.Connector.NotifyPause()
}

// TransitionToAdvertisement moves to ad playback and notifies play
func (sm *StateManager) TransitionToAdvertisement(reason string) {
	if !sm.performTransition(comscore.StateAdvertisement, reason) {
		return
	}
	sm.ctx.Connector.NotifyPlay()
}

// TransitionToVideo moves to content playback and notifies play
func (sm *StateManager) TransitionToVideo(reason string) {
	if !sm.performTransition(comscore.StateVideo, reason) {
		return
	}
	sm.ctx.Connector.NotifyPlay()
}

// Reset restores the manager to its initial state: initialized, all flags
// cleared, metadata back to the context's canonical content metadata. It
// performs no connector calls; callers that need the open session ended
// notify the connector themselves before resetting.
func (sm *StateManager) Reset() {
	from := sm.state
	sm.state = comscore.StateInitialized
	sm.buffering = false
	sm.ended = false
	sm.inAd = false
	sm.adOffset = 0
	sm.metadata = sm.ctx.Original().Clone()
	sm.lastChange = time.Now()
	sm.log.Debug().Msg("state manager reset")
	sm.notifyListeners(from, comscore.StateInitialized, "reset")
}

func (sm *StateManager) performTransition(target comscore.State, reason string) bool {
	if !sm.CanTransitionTo(target) {
		sm.log.Error().
			Str("from", sm.state.String()).
			Str("to", target.String()).
			Str("reason", reason).
			Msg("invalid state transition rejected")
		return false
	}
	from := sm.state
	sm.state = target
	sm.lastChange = time.Now()
	sm.log.Debug().
		Str("from", from.String()).
		Str("to", target.String()).
		Str("reason", reason).
		Msg("state transition")
	sm.notifyListeners(from, target, reason)
	return true
}

func (sm *StateManager) notifyListeners(from, to comscore.State, reason string) {
	for i, fn := range sm.listeners {
		sm.callListener(i, fn, from, to, reason)
	}
}

func (sm *StateManager) callListener(i int, fn StateChangeFunc, from, to comscore.State, reason string) {
	defer func() {
		if r := recover(); r != nil {
			sm.log.Error().
				Int("listener", i).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("state change listener panicked")
		}
	}()
	fn(from, to, reason)
}
