package tracker

import (
	"github.com/mkettner/comscore-go/internal/comscore"
)

// Event parameter structs for the plugin's dispatch surface. All positions
// and durations at this boundary are in milliseconds, matching what players
// report; handlers convert to seconds internally. Optional fields use
// pointers so "not reported" is distinguishable from a zero value.

// MetadataParams carries asset metadata delivered by the player
type MetadataParams struct {
	Metadata *comscore.ContentMetadata
}

// SeekParams describes a seek target together with the stream duration known
// at seek time. DurationMs of 0 or NaN means the duration is unknown, which
// is how live and DVR streams report themselves.
type SeekParams struct {
	PositionMs float64
	DurationMs float64
}

// ProgressParams carries a periodic playhead report
type ProgressParams struct {
	PositionMs float64
	DurationMs float64
}

// DurationChangeParams carries a new stream duration. 0 or NaN means the
// stream became live or lost its known duration.
type DurationChangeParams struct {
	DurationMs float64
}

// RateChangeParams carries a playback rate change (1.0 is normal speed)
type RateChangeParams struct {
	Rate float64
}

// BufferingParams reports a change of the player's buffering flag
type BufferingParams struct {
	Buffering bool
}

// AdBeginParams describes the start of a single ad creative
type AdBeginParams struct {
	AdID         string
	AdType       string
	AdDurationMs *int64
	AdPositionMs *float64
}

// AdEndParams describes the end of a single ad creative. Completed is nil
// when the player did not report whether the ad ran to completion.
type AdEndParams struct {
	AdID      string
	Completed *bool
}

// AdSkipParams describes the viewer skipping the current ad
type AdSkipParams struct {
	AdID           string
	SkipPositionMs *float64
}

// AdBreakBeginParams describes the start of an ad break. A negative
// AdBreakPositionMs marks a post-roll break.
type AdBreakBeginParams struct {
	AdBreakID         string
	AdCount           int
	AdBreakPositionMs *float64
}

// AdBreakEndParams describes the end of an ad break
type AdBreakEndParams struct {
	AdBreakID string
}

// ErrorParams describes a player error. IsFatal is nil when the player did
// not classify the error; the handler then applies its own rules.
type ErrorParams struct {
	ErrorCode    string
	ErrorMessage string
	ErrorType    string
	IsFatal      *bool
	StatusCode   *int
	URL          string
	DRMType      string
	StreamURL    string
	BitrateBps   *int64
}

// QualityChangeParams describes a rendition switch
type QualityChangeParams struct {
	Quality    string
	BitrateBps *int64
	Width      int
	Height     int
}

// AudioTrackParams describes an audio track selection
type AudioTrackParams struct {
	TrackID  string
	Language string
	Label    string
}

// VolumeParams carries a volume level in the range [0, 1]
type VolumeParams struct {
	Volume float64
}

// MuteParams reports the player's mute flag
type MuteParams struct {
	Muted bool
}

// SubtitleTrackParams describes a subtitle track selection. An empty TrackID
// means subtitles were turned off.
type SubtitleTrackParams struct {
	TrackID  string
	Language string
	Label    string
}

// PositionParams carries an absolute playback position for direct connector
// pass-throughs such as start-from-position.
type PositionParams struct {
	PositionMs int64
}

// DvrWindowParams carries a DVR window length or offset in milliseconds
type DvrWindowParams struct {
	LengthMs int64
}
