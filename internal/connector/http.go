// Package connector provides a Connector implementation that forwards
// playback notifications to the event collector over HTTP.
package connector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/ingest"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/models"
)

const defaultRequestTimeout = 3 * time.Second

// HTTPConnector reports connector notifications to a collector endpoint.
// Delivery is best effort. A failed POST is logged and swallowed, playback
// tracking must never surface reporting errors to the player.
type HTTPConnector struct {
	instanceID int
	baseURL    string
	publisher  string
	appName    string
	client     *http.Client
	log        zerolog.Logger

	metadata   *comscore.ContentMetadata
	persistent map[string]string
	destroyed  bool
}

var _ comscore.Connector = (*HTTPConnector)(nil)

// NewHTTPConnector creates a connector that posts events to baseURL
// (e.g. "http://localhost:8080"). Publisher identity is attached to every
// envelope so the collector can open sessions without prior registration.
func NewHTTPConnector(instanceID int, baseURL string, cfg *comscore.Configuration) *HTTPConnector {
	return &HTTPConnector{
		instanceID: instanceID,
		baseURL:    baseURL,
		publisher:  cfg.PublisherID,
		appName:    cfg.ApplicationName,
		client:     &http.Client{Timeout: defaultRequestTimeout},
		log:        logger.ForInstance("connector", instanceID),
		persistent: make(map[string]string),
	}
}

// InstanceID returns the opaque session instance identifier
func (c *HTTPConnector) InstanceID() int { return c.instanceID }

// Update replaces the active metadata and reports it as an update
func (c *HTTPConnector) Update(metadata *comscore.ContentMetadata) {
	c.metadata = metadata
	c.post(&ingest.EventEnvelope{
		Method:   models.MethodUpdate,
		Metadata: c.encodeMetadata(metadata),
	})
}

// SetMetadata replaces the session metadata
func (c *HTTPConnector) SetMetadata(metadata *comscore.ContentMetadata) {
	c.metadata = metadata
	c.post(&ingest.EventEnvelope{
		Method:   models.MethodSetMetadata,
		Metadata: c.encodeMetadata(metadata),
	})
}

// SetPersistentLabel sets one publisher-scoped label
func (c *HTTPConnector) SetPersistentLabel(name, value string) {
	c.SetPersistentLabels(map[string]string{name: value})
}

// SetPersistentLabels sets several publisher-scoped labels at once
func (c *HTTPConnector) SetPersistentLabels(labels map[string]string) {
	for name, value := range labels {
		c.persistent[name] = value
	}
	c.post(&ingest.EventEnvelope{
		Method: models.MethodSetPersistentLabels,
		Labels: labels,
	})
}

// NotifyPlay reports a play notification
func (c *HTTPConnector) NotifyPlay() { c.notify(models.MethodNotifyPlay) }

// NotifyPause reports a pause notification
func (c *HTTPConnector) NotifyPause() { c.notify(models.MethodNotifyPause) }

// NotifyEnd reports an end-of-session notification
func (c *HTTPConnector) NotifyEnd() { c.notify(models.MethodNotifyEnd) }

// CreatePlaybackSession opens a new vendor playback session
func (c *HTTPConnector) CreatePlaybackSession() {
	c.notify(models.MethodCreatePlaybackSession)
}

// SetDvrWindowLength reports the DVR window length in milliseconds
func (c *HTTPConnector) SetDvrWindowLength(lengthMs int64) {
	c.postValue(models.MethodSetDvrWindowLength, lengthMs)
}

// NotifyBufferStart reports the start of a buffering interval
func (c *HTTPConnector) NotifyBufferStart() { c.notify(models.MethodNotifyBufferStart) }

// NotifyBufferStop reports the end of a buffering interval
func (c *HTTPConnector) NotifyBufferStop() { c.notify(models.MethodNotifyBufferStop) }

// NotifySeekStart reports the start of a seek
func (c *HTTPConnector) NotifySeekStart() { c.notify(models.MethodNotifySeekStart) }

// StartFromPosition reports the playback position in milliseconds
func (c *HTTPConnector) StartFromPosition(positionMs int64) {
	c.postValue(models.MethodStartFromPosition, positionMs)
}

// StartFromDvrWindowOffset reports the DVR offset in milliseconds
func (c *HTTPConnector) StartFromDvrWindowOffset(offsetMs int64) {
	c.postValue(models.MethodStartFromDvrWindowOffset, offsetMs)
}

// NotifyChangePlaybackRate reports a playback rate change
func (c *HTTPConnector) NotifyChangePlaybackRate(rate float64) {
	c.post(&ingest.EventEnvelope{
		Method: models.MethodNotifyChangePlaybackRate,
		Rate:   &rate,
	})
}

// Destroy reports session teardown. Repeated calls are ignored.
func (c *HTTPConnector) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.notify(models.MethodDestroy)
}

func (c *HTTPConnector) notify(method string) {
	c.post(&ingest.EventEnvelope{Method: method})
}

func (c *HTTPConnector) postValue(method string, value int64) {
	c.post(&ingest.EventEnvelope{
		Method: method,
		Value:  &value,
	})
}

// post delivers one envelope to the collector. Errors are logged and
// swallowed.
func (c *HTTPConnector) post(env *ingest.EventEnvelope) {
	env.InstanceID = int64(c.instanceID)
	env.PublisherID = c.publisher
	env.ApplicationName = c.appName
	env.ReportedAt = time.Now().UTC()

	body, err := json.Marshal(env)
	if err != nil {
		c.log.Error().Err(err).Str("method", env.Method).Msg("Failed to encode event envelope")
		return
	}

	url := fmt.Sprintf("%s/api/events", c.baseURL)
	resp, err := c.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		c.log.Warn().Err(err).Str("method", env.Method).Msg("Failed to deliver event")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("method", env.Method).
			Msg("Collector rejected event")
		return
	}

	c.log.Trace().Str("method", env.Method).Msg("Event delivered")
}

// encodeMetadata serializes metadata for the envelope, nil-safe
func (c *HTTPConnector) encodeMetadata(metadata *comscore.ContentMetadata) json.RawMessage {
	if metadata == nil {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode metadata")
		return nil
	}
	return raw
}
