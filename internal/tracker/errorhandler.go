package tracker

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/logger"
)

// ErrorCategory classifies player errors for counting and fatality rules
type ErrorCategory string

const (
	ErrorCategoryGeneral ErrorCategory = "general"
	ErrorCategoryDRM     ErrorCategory = "drm"
	ErrorCategoryNetwork ErrorCategory = "network"
	ErrorCategoryStream  ErrorCategory = "stream"
)

const (
	maxErrorHistory = 50

	// recentErrorWindow is the lookback for the Recent statistic
	recentErrorWindow = 5 * time.Minute
)

// ErrorInfo is one recorded player error
type ErrorInfo struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  ErrorCategory     `json:"category"`
	Fatal     bool              `json:"fatal"`
	Timestamp time.Time         `json:"timestamp"`
	State     comscore.State    `json:"state"`
	Context   map[string]string `json:"context,omitempty"`
}

// ErrorStatistics summarizes recorded errors. Recent counts errors recorded
// inside the last recentErrorWindow.
type ErrorStatistics struct {
	Total      int                   `json:"total"`
	Fatal      int                   `json:"fatal"`
	Recent     int                   `json:"recent"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
}

// ErrorHandler classifies player errors, decides which are fatal and drives
// the matching state transitions: fatal errors stop the session with error
// labels stamped onto the metadata, recoverable errors pause playback until
// the player resumes.
type ErrorHandler struct {
	ctx *Context
	sm  *StateManager
	log zerolog.Logger

	current      *ErrorInfo
	inErrorState bool
	history      []ErrorInfo
	byCategory   map[ErrorCategory]int
	fatalCount   int
	total        int
}

// NewErrorHandler creates an error handler bound to the session's state
// manager.
func NewErrorHandler(ctx *Context, sm *StateManager) *ErrorHandler {
	return &ErrorHandler{
		ctx:        ctx,
		sm:         sm,
		log:        logger.ForInstance("error_handler", ctx.InstanceID()),
		byCategory: make(map[ErrorCategory]int),
	}
}

// HandleError processes a general player error. It is fatal only when the
// player explicitly marked it so.
func (h *ErrorHandler) HandleError(params ErrorParams) {
	fatal := params.IsFatal != nil && *params.IsFatal
	info := h.buildInfo(params, ErrorCategoryGeneral, fatal)
	h.process(info)
}

// HandleContentProtectionError processes a DRM error. DRM errors are fatal
// unless the player explicitly marked them recoverable.
func (h *ErrorHandler) HandleContentProtectionError(params ErrorParams) {
	fatal := params.IsFatal == nil || *params.IsFatal
	info := h.buildInfo(params, ErrorCategoryDRM, fatal)
	if params.DRMType != "" {
		info.Context["drmType"] = params.DRMType
	}
	h.process(info)
}

// HandleNetworkError processes a network error, deriving fatality from the
// HTTP status code when the player did not classify the error itself.
func (h *ErrorHandler) HandleNetworkError(params ErrorParams) {
	fatal := isNetworkErrorFatal(params)
	info := h.buildInfo(params, ErrorCategoryNetwork, fatal)
	if params.StatusCode != nil {
		info.Context["statusCode"] = strconv.Itoa(*params.StatusCode)
	}
	if params.URL != "" {
		info.Context["url"] = params.URL
	}
	h.process(info)
}

// HandleStreamError processes a stream format or decode error. When the
// failing stream differs from the tracked asset a new playback session is
// opened, because the player has silently moved to different content.
func (h *ErrorHandler) HandleStreamError(params ErrorParams) {
	fatal := params.IsFatal != nil && *params.IsFatal
	info := h.buildInfo(params, ErrorCategoryStream, fatal)
	if params.StreamURL != "" {
		info.Context["streamUrl"] = params.StreamURL
	}
	if params.BitrateBps != nil {
		info.Context["bitrate"] = strconv.FormatInt(*params.BitrateBps, 10)
	}

	if !fatal && params.StreamURL != "" {
		if m := h.ctx.Metadata(); m != nil && m.ClipURL != "" && m.ClipURL != params.StreamURL {
			h.log.Info().
				Str("stream_url", params.StreamURL).
				Msg("stream error on different asset, creating playback session")
			h.ctx.Connector.CreatePlaybackSession()
		}
	}
	h.process(info)
}

// NotifyErrorResolved clears the active error after the player recovered
func (h *ErrorHandler) NotifyErrorResolved() {
	if !h.inErrorState {
		return
	}
	h.log.Debug().Msg("error resolved")
	h.current = nil
	h.inErrorState = false
}

// ClearErrorState drops the active error without any recovery signal from
// the player.
func (h *ErrorHandler) ClearErrorState() {
	h.current = nil
	h.inErrorState = false
}

// HasActiveBlockingError reports whether a fatal error stopped the session
// and has not been cleared since.
func (h *ErrorHandler) HasActiveBlockingError() bool {
	return h.inErrorState && h.current != nil && h.current.Fatal
}

// CurrentError returns the active error, or nil when none is active
func (h *ErrorHandler) CurrentError() *ErrorInfo {
	return h.current
}

// History returns a copy of the bounded error history
func (h *ErrorHandler) History() []ErrorInfo {
	out := make([]ErrorInfo, len(h.history))
	copy(out, h.history)
	return out
}

// Statistics returns counters over all recorded errors
func (h *ErrorHandler) Statistics() ErrorStatistics {
	byCategory := make(map[ErrorCategory]int, len(h.byCategory))
	for k, v := range h.byCategory {
		byCategory[k] = v
	}
	cutoff := time.Now().Add(-recentErrorWindow)
	recent := 0
	for _, info := range h.history {
		if info.Timestamp.After(cutoff) {
			recent++
		}
	}
	return ErrorStatistics{
		Total:      h.total,
		Fatal:      h.fatalCount,
		Recent:     recent,
		ByCategory: byCategory,
	}
}

// Reset clears the active error, the history and all counters
func (h *ErrorHandler) Reset() {
	h.current = nil
	h.inErrorState = false
	h.history = nil
	h.byCategory = make(map[ErrorCategory]int)
	h.fatalCount = 0
	h.total = 0
}

func (h *ErrorHandler) buildInfo(params ErrorParams, category ErrorCategory, fatal bool) ErrorInfo {
	return ErrorInfo{
		Code:      params.ErrorCode,
		Message:   params.ErrorMessage,
		Category:  category,
		Fatal:     fatal,
		Timestamp: time.Now(),
		State:     h.sm.State(),
		Context:   make(map[string]string),
	}
}

func (h *ErrorHandler) process(info ErrorInfo) {
	h.current = &info
	h.inErrorState = true
	h.byCategory[info.Category]++
	h.total++
	if info.Fatal {
		h.fatalCount++
	}
	if len(h.history) >= maxErrorHistory {
		h.history = h.history[1:]
	}
	h.history = append(h.history, info)

	evt := h.log.Warn()
	if info.Fatal {
		evt = h.log.Error()
	}
	evt.
		Str("code", info.Code).
		Str("category", string(info.Category)).
		Bool("fatal", info.Fatal).
		Str("state", info.State.String()).
		Msg(info.Message)

	if info.Fatal {
		h.stampErrorLabels(info)
		h.sm.TransitionToStopped("fatal_error")
		return
	}
	if comscore.IsPlayingState(h.sm.State()) {
		h.sm.TransitionToPaused("error_recovery")
	}
}

// stampErrorLabels sends the error details as labels on the last known
// metadata so the ended session carries the failure cause.
func (h *ErrorHandler) stampErrorLabels(info ErrorInfo) {
	current := h.sm.CurrentMetadata()
	if current == nil {
		current = h.ctx.Metadata()
	}
	if current == nil {
		return
	}
	labels := comscore.Labels{
		"errorCode":     info.Code,
		"errorCategory": string(info.Category),
		"errorFatal":    "true",
	}
	for k, v := range info.Context {
		labels["error_"+k] = v
	}
	h.ctx.Connector.Update(current.WithLabels(labels))
}

// isNetworkErrorFatal applies the status code rules: client errors are fatal
// except the retryable 408 and 429, server errors are retryable except 501
// and 505. An explicit classification from the player wins.
func isNetworkErrorFatal(params ErrorParams) bool {
	if params.IsFatal != nil {
		return *params.IsFatal
	}
	if params.StatusCode == nil {
		return false
	}
	code := *params.StatusCode
	switch {
	case code >= 400 && code < 500:
		return code != 408 && code != 429
	case code >= 500 && code < 600:
		return code == 501 || code == 505
	default:
		return false
	}
}
