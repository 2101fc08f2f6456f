// Package comscore defines the core types shared across the tracking SDK:
// playback states, content and advertisement metadata, per-session
// configuration, and the connector contract through which vendor
// notifications are emitted.
package comscore

// State represents the current playback state of a tracked session
type State string

// Playback state constants
const (
	StateInitialized   State = "initialized"   // Session created, nothing played yet
	StateStopped       State = "stopped"       // Playback ended or aborted
	StatePausedAd      State = "paused_ad"     // Advertisement paused
	StatePausedVideo   State = "paused_video"  // Content paused
	StateAdvertisement State = "advertisement" // Advertisement playing
	StateVideo         State = "video"         // Content playing
)

// validTransitions is the authoritative adjacency table. Transitions not
// listed here are rejected by the state manager when validation is enabled.
var validTransitions = map[State][]State{
	StateInitialized:   {StateVideo, StateAdvertisement, StateStopped},
	StateStopped:       {StateInitialized, StateVideo, StateAdvertisement},
	StateVideo:         {StatePausedVideo, StateAdvertisement, StateStopped},
	StatePausedVideo:   {StateVideo, StateAdvertisement, StateStopped},
	StateAdvertisement: {StatePausedAd, StateVideo, StateStopped},
	StatePausedAd:      {StateAdvertisement, StateVideo, StateStopped},
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is a known valid value
func (s State) IsValid() bool {
	switch s {
	case StateInitialized, StateStopped, StatePausedAd, StatePausedVideo, StateAdvertisement, StateVideo:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from the current state to target is
// allowed by the adjacency table
func (s State) CanTransitionTo(target State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsPlayingState reports whether state is an active playback state
func IsPlayingState(s State) bool {
	return s == StateVideo || s == StateAdvertisement
}

// IsPausedState reports whether state is a paused state
func IsPausedState(s State) bool {
	return s == StatePausedVideo || s == StatePausedAd
}

// IsAdState reports whether state is advertisement-related
func IsAdState(s State) bool {
	return s == StateAdvertisement || s == StatePausedAd
}

// IsContentState reports whether state is content-related
func IsContentState(s State) bool {
	return s == StateVideo || s == StatePausedVideo
}

// PausedStateFor maps a playing state to its paused counterpart.
// Returns the zero State for states with no counterpart.
func PausedStateFor(playing State) State {
	switch playing {
	case StateVideo:
		return StatePausedVideo
	case StateAdvertisement:
		return StatePausedAd
	default:
		return ""
	}
}

// PlayingStateFor maps a paused state to its playing counterpart.
// Returns the zero State for states with no counterpart.
func PlayingStateFor(paused State) State {
	switch paused {
	case StatePausedVideo:
		return StateVideo
	case StatePausedAd:
		return StateAdvertisement
	default:
		return ""
	}
}
