package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncEntryCreated() {}
func (n *NoopRecorder) IncEntryUpdated() {}
func (n *NoopRecorder) IncEntryDeleted() {}
func (n *NoopRecorder) IncEntriesListed() {}
func (n *NoopRecorder) IncListCacheHit() {}
func (n *NoopRecorder) IncListCacheMiss() {}
func (n *NoopRecorder) IncStorageError(op string) {}
func (n *NoopRecorder) ObserveStorageDuration(op string, d time.Duration) {}
