package comscore

import "math"

// MediaType classifies a content asset for audience measurement
type MediaType string

// Content media type constants
const (
	MediaTypeLongFormOnDemand               MediaType = "longFormOnDemand"
	MediaTypeShortFormOnDemand              MediaType = "shortFormOnDemand"
	MediaTypeLive                           MediaType = "live"
	MediaTypeUserGeneratedLongFormOnDemand  MediaType = "userGeneratedLongFormOnDemand"
	MediaTypeUserGeneratedShortFormOnDemand MediaType = "userGeneratedShortFormOnDemand"
	MediaTypeUserGeneratedLive              MediaType = "userGeneratedLive"
	MediaTypeBumper                         MediaType = "bumper"
	MediaTypeOther                          MediaType = "other"
)

// DeliveryMode describes how content is delivered
type DeliveryMode string

// Delivery mode constants
const (
	DeliveryModeLinear   DeliveryMode = "linear"
	DeliveryModeOnDemand DeliveryMode = "ondemand"
)

// AdvertisementLoad describes whether the digital stream carries the same
// advertisement load as the TV airing
type AdvertisementLoad string

// Advertisement load constants
const (
	AdLoadSameAsTv AdvertisementLoad = "sameAsTvAdLoad"
	AdLoadDigital  AdvertisementLoad = "digitalAdLoad"
)

// Labels is an ordered string-to-string map of custom measurement labels.
// Merge semantics are last-write-wins on overlapping keys.
type Labels map[string]string

// Merge returns a new Labels map containing the receiver's entries
// overwritten by those of other. Either side may be nil.
func (l Labels) Merge(other Labels) Labels {
	merged := make(Labels, len(l)+len(other))
	for k, v := range l {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Clone returns a copy of the labels, or nil for nil labels
func (l Labels) Clone() Labels {
	if l == nil {
		return nil
	}
	c := make(Labels, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}

// Dimension holds pixel dimensions of a video asset
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ContentMetadata describes one media asset. It is replaced wholesale on
// update; the connector never patches it field by field.
type ContentMetadata struct {
	MediaType         MediaType         `json:"mediaType"`
	UniqueID          string            `json:"uniqueId"`
	LengthMs          float64           `json:"length"` // Milliseconds; 0 or NaN means live/unknown duration
	StationTitle      string            `json:"stationTitle,omitempty"`
	StationCode       string            `json:"stationCode,omitempty"`
	NetworkAffiliate  string            `json:"networkAffiliate,omitempty"`
	PublisherName     string            `json:"publisherName,omitempty"`
	ProgramTitle      string            `json:"programTitle,omitempty"`
	ProgramID         string            `json:"programId,omitempty"`
	EpisodeTitle      string            `json:"episodeTitle,omitempty"`
	EpisodeID         string            `json:"episodeId,omitempty"`
	EpisodeSeasonNum  string            `json:"episodeSeasonNumber,omitempty"`
	EpisodeNum        string            `json:"episodeNumber,omitempty"`
	GenreName         string            `json:"genreName,omitempty"`
	GenreID           string            `json:"genreId,omitempty"`
	CarryTvAdLoad     bool              `json:"carryTvAdvertisementLoad,omitempty"`
	CompleteEpisode   bool              `json:"classifyAsCompleteEpisode,omitempty"`
	AudioOnly         bool              `json:"classifyAsAudioStream,omitempty"`
	DeliveryMode      DeliveryMode      `json:"deliveryMode,omitempty"`
	AdvertisementLoad AdvertisementLoad `json:"deliveryAdvertisementCapability,omitempty"`
	FeedType          string            `json:"feedType,omitempty"`
	PlaylistTitle     string            `json:"playlistTitle,omitempty"`
	TotalSegments     int               `json:"totalSegments,omitempty"`
	ClipURL           string            `json:"clipUrl,omitempty"`
	VideoDimension    *Dimension        `json:"videoDimensions,omitempty"`
	CustomLabels      Labels            `json:"customLabels,omitempty"`

	// Advertisement carries the ad envelope while an ad is playing; nil
	// for plain content pushes.
	Advertisement *AdvertisementMetadata `json:"advertisementMetadata,omitempty"`
}

// IsLive reports whether the metadata describes live or unknown-duration
// content (length 0 or NaN)
func (m *ContentMetadata) IsLive() bool {
	return m.LengthMs == 0 || math.IsNaN(m.LengthMs)
}

// Clone returns a deep copy of the metadata, or nil for nil metadata
func (m *ContentMetadata) Clone() *ContentMetadata {
	if m == nil {
		return nil
	}
	c := *m
	c.CustomLabels = m.CustomLabels.Clone()
	if m.VideoDimension != nil {
		d := *m.VideoDimension
		c.VideoDimension = &d
	}
	c.Advertisement = m.Advertisement.Clone()
	return &c
}

// WithAdvertisement returns a copy of the metadata carrying adMeta as the
// active advertisement envelope
func (m *ContentMetadata) WithAdvertisement(adMeta *AdvertisementMetadata) *ContentMetadata {
	c := m.Clone()
	if c == nil {
		c = &ContentMetadata{}
	}
	c.Advertisement = adMeta
	return c
}

// WithLabels returns a copy of the metadata with extra custom labels merged
// in, last-write-wins
func (m *ContentMetadata) WithLabels(extra Labels) *ContentMetadata {
	c := m.Clone()
	if c == nil {
		c = &ContentMetadata{}
	}
	c.CustomLabels = c.CustomLabels.Merge(extra)
	return c
}
