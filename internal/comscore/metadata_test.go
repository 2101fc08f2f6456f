package comscore

import (
	"math"
	"testing"
)

// TestContentMetadata_IsLive tests live detection from the length field
func TestContentMetadata_IsLive(t *testing.T) {
	tests := []struct {
		name     string
		lengthMs float64
		want     bool
	}{
		{"zero length is live", 0, true},
		{"NaN length is live", math.NaN(), true},
		{"positive length is vod", 600000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &ContentMetadata{LengthMs: tt.lengthMs}
			if got := m.IsLive(); got != tt.want {
				t.Errorf("IsLive() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestContentMetadata_Clone tests that clones do not share mutable state
func TestContentMetadata_Clone(t *testing.T) {
	orig := &ContentMetadata{
		UniqueID:       "ep-1",
		ProgramTitle:   "News",
		LengthMs:       600000,
		CustomLabels:   Labels{"a": "1"},
		VideoDimension: &Dimension{Width: 1920, Height: 1080},
	}

	clone := orig.Clone()
	clone.UniqueID = "ep-2"
	clone.CustomLabels["a"] = "2"
	clone.VideoDimension.Width = 640

	if orig.UniqueID != "ep-1" {
		t.Errorf("UniqueID mutated through clone: %v", orig.UniqueID)
	}
	if orig.CustomLabels["a"] != "1" {
		t.Errorf("CustomLabels mutated through clone: %v", orig.CustomLabels)
	}
	if orig.VideoDimension.Width != 1920 {
		t.Errorf("VideoDimension mutated through clone: %v", orig.VideoDimension)
	}

	var nilMeta *ContentMetadata
	if nilMeta.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

// TestContentMetadata_WithAdvertisement tests the envelope constructor
func TestContentMetadata_WithAdvertisement(t *testing.T) {
	content := &ContentMetadata{UniqueID: "ep-1"}
	ad := &AdvertisementMetadata{MediaType: AdTypeOnDemandPreRoll, LengthMs: 15000}

	envelope := content.WithAdvertisement(ad)

	if envelope.Advertisement == nil {
		t.Fatal("envelope should carry the advertisement")
	}
	if envelope.Advertisement.MediaType != AdTypeOnDemandPreRoll {
		t.Errorf("ad media type = %v", envelope.Advertisement.MediaType)
	}
	if content.Advertisement != nil {
		t.Error("WithAdvertisement must not mutate the receiver")
	}
}

// TestContentMetadata_WithLabels tests label merging without mutation
func TestContentMetadata_WithLabels(t *testing.T) {
	content := &ContentMetadata{CustomLabels: Labels{"a": "1", "b": "1"}}

	labeled := content.WithLabels(Labels{"b": "2", "c": "3"})

	if labeled.CustomLabels["a"] != "1" || labeled.CustomLabels["b"] != "2" || labeled.CustomLabels["c"] != "3" {
		t.Errorf("merged labels = %v", labeled.CustomLabels)
	}
	if content.CustomLabels["b"] != "1" {
		t.Error("WithLabels must not mutate the receiver")
	}
}

// TestLabels_Merge tests last-write-wins merging
func TestLabels_Merge(t *testing.T) {
	base := Labels{"a": "1", "b": "1"}
	merged := base.Merge(Labels{"b": "2"})

	if merged["a"] != "1" || merged["b"] != "2" {
		t.Errorf("Merge() = %v", merged)
	}
	if base["b"] != "1" {
		t.Error("Merge must not mutate the receiver")
	}
}
