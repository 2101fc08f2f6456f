package comscore

// Connector is the narrow surface through which the tracking core emits
// vendor notifications. Implementations wrap the platform-specific vendor
// library (or, for testing and local integration, an HTTP stub). Every call
// is fire-and-forget: failures are the connector's concern and must never
// propagate back into the state machine.
type Connector interface {
	// InstanceID returns the opaque session instance identifier assigned
	// at connector construction.
	InstanceID() int

	// Update replaces the active metadata and forwards it as an update
	// notification.
	Update(metadata *ContentMetadata)

	// SetMetadata replaces the metadata attached to the current playback
	// session without emitting an update event.
	SetMetadata(metadata *ContentMetadata)

	// SetPersistentLabel sets one publisher-scoped label,
	// set-once-overwrite.
	SetPersistentLabel(name, value string)

	// SetPersistentLabels sets several publisher-scoped labels at once.
	SetPersistentLabels(labels map[string]string)

	NotifyPlay()
	NotifyPause()
	NotifyEnd()

	// CreatePlaybackSession starts a brand-new vendor playback session for
	// the next asset.
	CreatePlaybackSession()

	SetDvrWindowLength(lengthMs int64)
	NotifyBufferStart()
	NotifyBufferStop()
	NotifySeekStart()
	StartFromPosition(positionMs int64)
	StartFromDvrWindowOffset(offsetMs int64)
	NotifyChangePlaybackRate(rate float64)

	// Destroy releases the native session. Implementations must tolerate
	// repeated calls.
	Destroy()
}
