package comscore

import "errors"

// AdType classifies an advertisement creative
type AdType string

// Advertisement type constants
const (
	AdTypeOnDemandPreRoll  AdType = "onDemandPreRoll"
	AdTypeOnDemandMidRoll  AdType = "onDemandMidRoll"
	AdTypeOnDemandPostRoll AdType = "onDemandPostRoll"
	AdTypeLive             AdType = "live"

	AdTypeBrandedOnDemandPreRoll  AdType = "brandedOnDemandPreRoll"
	AdTypeBrandedOnDemandMidRoll  AdType = "brandedOnDemandMidRoll"
	AdTypeBrandedOnDemandPostRoll AdType = "brandedOnDemandPostRoll"
	AdTypeBrandedAsContent        AdType = "brandedAsContent"
	AdTypeBrandedDuringLive       AdType = "brandedDuringLive"

	AdTypeOther AdType = "other"
)

// IsValid checks if the ad type is a known value
func (t AdType) IsValid() bool {
	switch t {
	case AdTypeOnDemandPreRoll, AdTypeOnDemandMidRoll, AdTypeOnDemandPostRoll,
		AdTypeLive, AdTypeBrandedOnDemandPreRoll, AdTypeBrandedOnDemandMidRoll,
		AdTypeBrandedOnDemandPostRoll, AdTypeBrandedAsContent,
		AdTypeBrandedDuringLive, AdTypeOther:
		return true
	default:
		return false
	}
}

// AdDeliveryType describes the distribution mechanism of an advertisement
type AdDeliveryType string

// Ad delivery type constants
const (
	AdDeliveryNational    AdDeliveryType = "national"
	AdDeliveryLocal       AdDeliveryType = "local"
	AdDeliverySyndication AdDeliveryType = "syndication"
)

// AdOwner identifies who monetizes an advertisement
type AdOwner string

// Ad owner constants
const (
	AdOwnerDistributor AdOwner = "distributor"
	AdOwnerOriginator  AdOwner = "originator"
	AdOwnerMultiple    AdOwner = "multiple"
	AdOwnerNone        AdOwner = "none"
)

// Builder validation errors
var (
	ErrAdTypeRequired   = errors.New("advertisement media type is required")
	ErrAdLengthRequired = errors.New("advertisement length is required (use 0 if unknown)")
)

// AdvertisementMetadata describes one ad creative. Built through
// AdMetadataBuilder, immutable once handed to the connector.
type AdvertisementMetadata struct {
	MediaType        AdType           `json:"mediaType"`
	LengthMs         int64            `json:"length"` // Milliseconds, 0 if unknown
	UniqueID         string           `json:"uniqueId,omitempty"`
	RelatedContent   *ContentMetadata `json:"relatedContentMetadata,omitempty"`
	DeliveryType     AdDeliveryType   `json:"deliveryType,omitempty"`
	Owner            AdOwner          `json:"owner,omitempty"`
	AudioOnly        bool             `json:"classifyAsAudioStream,omitempty"`
	ServerCampaignID string           `json:"serverCampaignId,omitempty"`
	PlacementID      string           `json:"placementId,omitempty"`
	SiteID           string           `json:"siteId,omitempty"`
	Server           string           `json:"server,omitempty"`
	Title            string           `json:"title,omitempty"`
	CallToActionURL  string           `json:"callToActionUrl,omitempty"`
	ClipURL          string           `json:"clipUrl,omitempty"`
	VideoDimension   *Dimension       `json:"videoDimensions,omitempty"`
	CustomLabels     Labels           `json:"customLabels,omitempty"`
}

// Clone returns a deep copy of the ad metadata, or nil for nil metadata
func (a *AdvertisementMetadata) Clone() *AdvertisementMetadata {
	if a == nil {
		return nil
	}
	c := *a
	c.CustomLabels = a.CustomLabels.Clone()
	if a.VideoDimension != nil {
		d := *a.VideoDimension
		c.VideoDimension = &d
	}
	c.RelatedContent = a.RelatedContent.Clone()
	return &c
}

// AdMetadataBuilder builds AdvertisementMetadata incrementally. MediaType and
// length must be set before Build yields a value.
type AdMetadataBuilder struct {
	meta      AdvertisementMetadata
	hasType   bool
	hasLength bool
}

// NewAdMetadataBuilder creates an empty builder
func NewAdMetadataBuilder() *AdMetadataBuilder {
	return &AdMetadataBuilder{}
}

// MediaType sets the ad type (required)
func (b *AdMetadataBuilder) MediaType(t AdType) *AdMetadataBuilder {
	b.meta.MediaType = t
	b.hasType = true
	return b
}

// Length sets the ad duration in milliseconds (required, 0 if unknown)
func (b *AdMetadataBuilder) Length(ms int64) *AdMetadataBuilder {
	b.meta.LengthMs = ms
	b.hasLength = true
	return b
}

// UniqueID sets the creative identifier
func (b *AdMetadataBuilder) UniqueID(id string) *AdMetadataBuilder {
	b.meta.UniqueID = id
	return b
}

// RelatedContent sets the content metadata the ad is attached to
func (b *AdMetadataBuilder) RelatedContent(m *ContentMetadata) *AdMetadataBuilder {
	b.meta.RelatedContent = m
	return b
}

// DeliveryType sets the ad distribution mechanism
func (b *AdMetadataBuilder) DeliveryType(t AdDeliveryType) *AdMetadataBuilder {
	b.meta.DeliveryType = t
	return b
}

// Owner sets the monetizing party
func (b *AdMetadataBuilder) Owner(o AdOwner) *AdMetadataBuilder {
	b.meta.Owner = o
	return b
}

// AudioOnly classifies the ad as an audio-only stream
func (b *AdMetadataBuilder) AudioOnly(v bool) *AdMetadataBuilder {
	b.meta.AudioOnly = v
	return b
}

// ServerCampaignID sets the campaign identifier
func (b *AdMetadataBuilder) ServerCampaignID(id string) *AdMetadataBuilder {
	b.meta.ServerCampaignID = id
	return b
}

// PlacementID sets the placement identifier
func (b *AdMetadataBuilder) PlacementID(id string) *AdMetadataBuilder {
	b.meta.PlacementID = id
	return b
}

// SiteID sets the site identifier
func (b *AdMetadataBuilder) SiteID(id string) *AdMetadataBuilder {
	b.meta.SiteID = id
	return b
}

// Server sets the ad server/provider name
func (b *AdMetadataBuilder) Server(name string) *AdMetadataBuilder {
	b.meta.Server = name
	return b
}

// Title sets the campaign or creative title
func (b *AdMetadataBuilder) Title(title string) *AdMetadataBuilder {
	b.meta.Title = title
	return b
}

// CallToActionURL sets the click-through URL
func (b *AdMetadataBuilder) CallToActionURL(url string) *AdMetadataBuilder {
	b.meta.CallToActionURL = url
	return b
}

// ClipURL sets the URL of the ad stream
func (b *AdMetadataBuilder) ClipURL(url string) *AdMetadataBuilder {
	b.meta.ClipURL = url
	return b
}

// VideoDimension sets the pixel dimensions of the ad video
func (b *AdMetadataBuilder) VideoDimension(width, height int) *AdMetadataBuilder {
	b.meta.VideoDimension = &Dimension{Width: width, Height: height}
	return b
}

// CustomLabels merges custom labels into the ad metadata, last-write-wins
func (b *AdMetadataBuilder) CustomLabels(labels Labels) *AdMetadataBuilder {
	b.meta.CustomLabels = b.meta.CustomLabels.Merge(labels)
	return b
}

// Build validates that the required fields are present and returns an
// immutable copy of the metadata
func (b *AdMetadataBuilder) Build() (*AdvertisementMetadata, error) {
	if !b.hasType || !b.meta.MediaType.IsValid() {
		return nil, ErrAdTypeRequired
	}
	if !b.hasLength {
		return nil, ErrAdLengthRequired
	}
	return b.meta.Clone(), nil
}
