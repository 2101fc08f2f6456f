package comscore

import (
	"testing"
)

// TestState_String tests the String method
func TestState_String(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"initialized", StateInitialized, "initialized"},
		{"stopped", StateStopped, "stopped"},
		{"paused_ad", StatePausedAd, "paused_ad"},
		{"paused_video", StatePausedVideo, "paused_video"},
		{"advertisement", StateAdvertisement, "advertisement"},
		{"video", StateVideo, "video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestState_IsValid tests the IsValid method
func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"initialized is valid", StateInitialized, true},
		{"stopped is valid", StateStopped, true},
		{"paused_ad is valid", StatePausedAd, true},
		{"paused_video is valid", StatePausedVideo, true},
		{"advertisement is valid", StateAdvertisement, true},
		{"video is valid", StateVideo, true},
		{"invalid state", State("playing"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestState_CanTransitionTo tests the allowed-transition table
func TestState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"initialized to video", StateInitialized, StateVideo, true},
		{"initialized to advertisement", StateInitialized, StateAdvertisement, true},
		{"initialized to stopped", StateInitialized, StateStopped, true},
		{"initialized to paused_video", StateInitialized, StatePausedVideo, false},
		{"video to paused_video", StateVideo, StatePausedVideo, true},
		{"video to advertisement", StateVideo, StateAdvertisement, true},
		{"video to stopped", StateVideo, StateStopped, true},
		{"video to paused_ad", StateVideo, StatePausedAd, false},
		{"video to video", StateVideo, StateVideo, false},
		{"paused_video to video", StatePausedVideo, StateVideo, true},
		{"paused_video to advertisement", StatePausedVideo, StateAdvertisement, true},
		{"paused_video to stopped", StatePausedVideo, StateStopped, true},
		{"paused_video to paused_ad", StatePausedVideo, StatePausedAd, false},
		{"advertisement to paused_ad", StateAdvertisement, StatePausedAd, true},
		{"advertisement to video", StateAdvertisement, StateVideo, true},
		{"advertisement to stopped", StateAdvertisement, StateStopped, true},
		{"advertisement to paused_video", StateAdvertisement, StatePausedVideo, false},
		{"paused_ad to advertisement", StatePausedAd, StateAdvertisement, true},
		{"paused_ad to video", StatePausedAd, StateVideo, true},
		{"paused_ad to stopped", StatePausedAd, StateStopped, true},
		{"paused_ad to paused_video", StatePausedAd, StatePausedVideo, false},
		{"stopped to video", StateStopped, StateVideo, true},
		{"stopped to advertisement", StateStopped, StateAdvertisement, true},
		{"stopped to stopped", StateStopped, StateStopped, false},
		{"stopped to initialized", StateStopped, StateInitialized, true},
		{"stopped to paused_video", StateStopped, StatePausedVideo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestState_CanTransitionTo_Exhaustive cross-checks every pair against the
// table so no transition is allowed by accident.
func TestState_CanTransitionTo_Exhaustive(t *testing.T) {
	states := []State{
		StateInitialized,
		StateStopped,
		StatePausedAd,
		StatePausedVideo,
		StateAdvertisement,
		StateVideo,
	}

	allowed := map[State]map[State]bool{
		StateInitialized:   {StateVideo: true, StateAdvertisement: true, StateStopped: true},
		StateVideo:         {StatePausedVideo: true, StateAdvertisement: true, StateStopped: true},
		StatePausedVideo:   {StateVideo: true, StateAdvertisement: true, StateStopped: true},
		StateAdvertisement: {StatePausedAd: true, StateVideo: true, StateStopped: true},
		StatePausedAd:      {StateAdvertisement: true, StateVideo: true, StateStopped: true},
		StateStopped:       {StateInitialized: true, StateVideo: true, StateAdvertisement: true},
	}

	for _, from := range states {
		for _, to := range states {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

// TestStatePredicates tests the playing, paused, ad and content groupings
func TestStatePredicates(t *testing.T) {
	tests := []struct {
		state   State
		playing bool
		paused  bool
		ad      bool
		content bool
	}{
		{StateInitialized, false, false, false, false},
		{StateStopped, false, false, false, false},
		{StateVideo, true, false, false, true},
		{StateAdvertisement, true, false, true, false},
		{StatePausedVideo, false, true, false, true},
		{StatePausedAd, false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := IsPlayingState(tt.state); got != tt.playing {
				t.Errorf("IsPlayingState(%s) = %v, want %v", tt.state, got, tt.playing)
			}
			if got := IsPausedState(tt.state); got != tt.paused {
				t.Errorf("IsPausedState(%s) = %v, want %v", tt.state, got, tt.paused)
			}
			if got := IsAdState(tt.state); got != tt.ad {
				t.Errorf("IsAdState(%s) = %v, want %v", tt.state, got, tt.ad)
			}
			if got := IsContentState(tt.state); got != tt.content {
				t.Errorf("IsContentState(%s) = %v, want %v", tt.state, got, tt.content)
			}
		})
	}
}

// TestPausedStateFor tests the playing-to-paused mapping
func TestPausedStateFor(t *testing.T) {
	tests := []struct {
		name    string
		playing State
		want    State
	}{
		{"video pauses to paused_video", StateVideo, StatePausedVideo},
		{"advertisement pauses to paused_ad", StateAdvertisement, StatePausedAd},
		{"stopped has no paused state", StateStopped, ""},
		{"initialized has no paused state", StateInitialized, ""},
		{"paused_video has no paused state", StatePausedVideo, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PausedStateFor(tt.playing); got != tt.want {
				t.Errorf("PausedStateFor(%s) = %v, want %v", tt.playing, got, tt.want)
			}
		})
	}
}

// TestPlayingStateFor tests the paused-to-playing mapping
func TestPlayingStateFor(t *testing.T) {
	tests := []struct {
		name   string
		paused State
		want   State
	}{
		{"paused_video resumes to video", StatePausedVideo, StateVideo},
		{"paused_ad resumes to advertisement", StatePausedAd, StateAdvertisement},
		{"video has no playing state", StateVideo, ""},
		{"stopped has no playing state", StateStopped, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlayingStateFor(tt.paused); got != tt.want {
				t.Errorf("PlayingStateFor(%s) = %v, want %v", tt.paused, got, tt.want)
			}
		})
	}
}
