// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Storage operation labels.
const (
	OpScan   = "scan"
	OpGet    = "get"
	OpPut    = "put"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Entry operation metrics
	IncEntryCreated()
	IncEntryUpdated()
	IncEntryDeleted()
	IncEntriesListed()

	// List cache metrics
	IncListCacheHit()
	IncListCacheMiss()

	// Storage metrics
	IncStorageError(op string)
	ObserveStorageDuration(op string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
