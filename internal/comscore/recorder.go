package comscore

import "fmt"

// RecordedCall is one connector invocation captured by a Recorder
type RecordedCall struct {
	Method   string
	Metadata *ContentMetadata
	Labels   map[string]string
	Value    int64
	Rate     float64
}

// Recorder is an in-memory Connector used by tests and simulator dry runs.
// It captures every call in order and keeps simple per-method counters.
type Recorder struct {
	instanceID int
	calls      []RecordedCall
	counts     map[string]int
	destroyed  bool
}

// NewRecorder creates a recording connector with the given instance id
func NewRecorder(instanceID int) *Recorder {
	return &Recorder{
		instanceID: instanceID,
		counts:     make(map[string]int),
	}
}

func (r *Recorder) record(call RecordedCall) {
	r.calls = append(r.calls, call)
	r.counts[call.Method]++
}

// InstanceID returns the instance id given at construction
func (r *Recorder) InstanceID() int { return r.instanceID }

// Update records an update call
func (r *Recorder) Update(metadata *ContentMetadata) {
	r.record(RecordedCall{Method: "update", Metadata: metadata.Clone()})
}

// SetMetadata records a setMetadata call
func (r *Recorder) SetMetadata(metadata *ContentMetadata) {
	r.record(RecordedCall{Method: "setMetadata", Metadata: metadata.Clone()})
}

// SetPersistentLabel records a single label call
func (r *Recorder) SetPersistentLabel(name, value string) {
	r.record(RecordedCall{Method: "setPersistentLabel", Labels: map[string]string{name: value}})
}

// SetPersistentLabels records a bulk label call
func (r *Recorder) SetPersistentLabels(labels map[string]string) {
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	r.record(RecordedCall{Method: "setPersistentLabels", Labels: copied})
}

// NotifyPlay records a play notification
func (r *Recorder) NotifyPlay() { r.record(RecordedCall{Method: "notifyPlay"}) }

// NotifyPause records a pause notification
func (r *Recorder) NotifyPause() { r.record(RecordedCall{Method: "notifyPause"}) }

// NotifyEnd records an end-of-session notification
func (r *Recorder) NotifyEnd() { r.record(RecordedCall{Method: "notifyEnd"}) }

// CreatePlaybackSession records a new-session request
func (r *Recorder) CreatePlaybackSession() {
	r.record(RecordedCall{Method: "createPlaybackSession"})
}

// SetDvrWindowLength records a DVR window length call
func (r *Recorder) SetDvrWindowLength(lengthMs int64) {
	r.record(RecordedCall{Method: "setDvrWindowLength", Value: lengthMs})
}

// NotifyBufferStart records a buffer-start notification
func (r *Recorder) NotifyBufferStart() { r.record(RecordedCall{Method: "notifyBufferStart"}) }

// NotifyBufferStop records a buffer-stop notification
func (r *Recorder) NotifyBufferStop() { r.record(RecordedCall{Method: "notifyBufferStop"}) }

// NotifySeekStart records a seek-start notification
func (r *Recorder) NotifySeekStart() { r.record(RecordedCall{Method: "notifySeekStart"}) }

// StartFromPosition records a position marker
func (r *Recorder) StartFromPosition(positionMs int64) {
	r.record(RecordedCall{Method: "startFromPosition", Value: positionMs})
}

// StartFromDvrWindowOffset records a DVR offset marker
func (r *Recorder) StartFromDvrWindowOffset(offsetMs int64) {
	r.record(RecordedCall{Method: "startFromDvrWindowOffset", Value: offsetMs})
}

// NotifyChangePlaybackRate records a playback rate notification
func (r *Recorder) NotifyChangePlaybackRate(rate float64) {
	r.record(RecordedCall{Method: "notifyChangePlaybackRate", Rate: rate})
}

// Destroy records the teardown once; repeated calls are ignored
func (r *Recorder) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.record(RecordedCall{Method: "destroy"})
}

// Destroyed reports whether Destroy has been called
func (r *Recorder) Destroyed() bool { return r.destroyed }

// Calls returns a copy of the recorded calls in order
func (r *Recorder) Calls() []RecordedCall {
	calls := make([]RecordedCall, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// Count returns how many times method was invoked
func (r *Recorder) Count(method string) int { return r.counts[method] }

// Methods returns the recorded method names in call order
func (r *Recorder) Methods() []string {
	methods := make([]string, len(r.calls))
	for i, c := range r.calls {
		methods[i] = c.Method
	}
	return methods
}

// LastCall returns the most recent call matching method, or an error if the
// method was never invoked
func (r *Recorder) LastCall(method string) (RecordedCall, error) {
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Method == method {
			return r.calls[i], nil
		}
	}
	return RecordedCall{}, fmt.Errorf("no recorded call for %q", method)
}

// Reset clears the recorded calls and counters
func (r *Recorder) Reset() {
	r.calls = nil
	r.counts = make(map[string]int)
}
