package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	EntriesCreated     uint64
	EntriesUpdated     uint64
	EntriesDeleted     uint64
	EntriesListed      uint64
	ListCacheHits      uint64
	ListCacheMisses    uint64
	StorageErrors      map[string]uint64
	StorageCalls       map[string]uint64
	StorageTotalTimeNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	entriesCreated     uint64
	entriesUpdated     uint64
	entriesDeleted     uint64
	entriesListed      uint64
	listCacheHits      uint64
	listCacheMisses    uint64
	storageTotalTimeNs int64

	mu            sync.Mutex
	storageErrors map[string]uint64
	storageCalls  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		storageErrors: make(map[string]uint64),
		storageCalls:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	errs := make(map[string]uint64, len(m.storageErrors))
	for op, n := range m.storageErrors {
		errs[op] = n
	}
	calls := make(map[string]uint64, len(m.storageCalls))
	for op, n := range m.storageCalls {
		calls[op] = n
	}
	m.mu.Unlock()

	return Snapshot{
		EntriesCreated:     atomic.LoadUint64(&m.entriesCreated),
		EntriesUpdated:     atomic.LoadUint64(&m.entriesUpdated),
		EntriesDeleted:     atomic.LoadUint64(&m.entriesDeleted),
		EntriesListed:      atomic.LoadUint64(&m.entriesListed),
		ListCacheHits:      atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:    atomic.LoadUint64(&m.listCacheMisses),
		StorageErrors:      errs,
		StorageCalls:       calls,
		StorageTotalTimeNs: atomic.LoadInt64(&m.storageTotalTimeNs),
	}
}

// IncEntryCreated increments the created counter.
func (m *InMemoryRecorder) IncEntryCreated() {
	atomic.AddUint64(&m.entriesCreated, 1)
}

// IncEntryUpdated increments the updated counter.
func (m *InMemoryRecorder) IncEntryUpdated() {
	atomic.AddUint64(&m.entriesUpdated, 1)
}

// IncEntryDeleted increments the deleted counter.
func (m *InMemoryRecorder) IncEntryDeleted() {
	atomic.AddUint64(&m.entriesDeleted, 1)
}

// IncEntriesListed increments the list counter.
func (m *InMemoryRecorder) IncEntriesListed() {
	atomic.AddUint64(&m.entriesListed, 1)
}

// IncListCacheHit increments the list cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments the list cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// IncStorageError counts a failed storage call.
func (m *InMemoryRecorder) IncStorageError(op string) {
	m.mu.Lock()
	m.storageErrors[op]++
	m.mu.Unlock()
}

// ObserveStorageDuration records the latency of a storage call.
func (m *InMemoryRecorder) ObserveStorageDuration(op string, duration time.Duration) {
	m.mu.Lock()
	m.storageCalls[op]++
	m.mu.Unlock()
	atomic.AddInt64(&m.storageTotalTimeNs, duration.Nanoseconds())
}
