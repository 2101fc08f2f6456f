package tracker

import (
	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

// ApplicationHandler reacts to the host application moving between
// foreground and background and between active and inactive. What happens
// depends on the configured update mode: with foreground-only tracking a
// backgrounded app pauses the measurement and the playing state is restored
// when the app returns; with foreground-and-background tracking the events
// are recorded only; with updates disabled they are ignored.
type ApplicationHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger

	foreground  bool
	active      bool
	stateBefore comscore.State
}

// NewApplicationHandler creates an application handler assuming a
// foregrounded, active app.
func NewApplicationHandler(ctx *Context, sm *StateManager) *ApplicationHandler {
	return &ApplicationHandler{
		ctx:        ctx,
		sm:         sm,
		log:        logger.ForInstance("application_handler", ctx.InstanceID()),
		foreground: true,
		active:     true,
	}
}

// HandleForeground reports the app returning to the foreground
func (h *ApplicationHandler) HandleForeground() {
	if h.foreground {
		return
	}
	h.foreground = true
	h.log.Debug().Msg("application foregrounded")
	if h.mode() == comscore.UpdateModeForegroundOnly {
		h.restorePlayback("foreground")
	}
}

// HandleBackground reports the app moving to the background
func (h *ApplicationHandler) HandleBackground() {
	if !h.foreground {
		return
	}
	h.foreground = false
	h.log.Debug().Msg("application backgrounded")
	if h.mode() == comscore.UpdateModeForegroundOnly {
		h.suspendPlayback("background")
	}
}

// HandleActive reports the app regaining focus
func (h *ApplicationHandler) HandleActive() {
	if h.active {
		return
	}
	h.active = true
	h.log.Debug().Msg("application active")
	if h.mode() == comscore.UpdateModeForegroundOnly && h.foreground {
		h.restorePlayback("active")
	}
}

// HandleInactive reports the app losing focus while still visible
func (h *ApplicationHandler) HandleInactive() {
	if !h.active {
		return
	}
	h.active = false
	h.log.Debug().Msg("application inactive")
	if h.mode() == comscore.UpdateModeForegroundOnly {
		h.suspendPlayback("inactive")
	}
}

// IsForeground reports whether the app is currently foregrounded
func (h *ApplicationHandler) IsForeground() bool {
	return h.foreground
}

// IsActive reports whether the app currently has focus
func (h *ApplicationHandler) IsActive() bool {
	return h.active
}

// Reset restores the handler to a foregrounded, active app
func (h *ApplicationHandler) Reset() {
	h.foreground = true
	h.active = true
	h.stateBefore = ""
}

func (h *ApplicationHandler) mode() comscore.UpdateMode {
	return h.ctx.Config.EffectiveUpdateMode()
}

// suspendPlayback pauses the measurement while remembering the playing
// state so it can be restored when the app returns.
func (h *ApplicationHandler) suspendPlayback(reason string) {
	if h.mode() == comscore.UpdateModeDisabled {
		return
	}
	state := h.sm.State()
	if !comscore.IsPlayingState(state) {
		return
	}
	h.stateBefore = state
	h.sm.TransitionToPaused(reason)
}

// restorePlayback resumes the measurement in the state playback was in
// before the app was suspended.
func (h *ApplicationHandler) restorePlayback(reason string) {
	if h.stateBefore == "" {
		return
	}
	target := h.stateBefore
	h.stateBefore = ""
	switch target {
	case comscore.StateAdvertisement:
		h.sm.TransitionToAdvertisement(reason)
	case comscore.StateVideo:
		h.sm.TransitionToVideo(reason)
	}
}
