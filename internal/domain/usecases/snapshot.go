package usecases

import (
	"sync/atomic"
	"time"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// Snapshot is one immutable build of the retrieval index paired with the
// fingerprint of the corpus it was built from.
type Snapshot struct {
	ID          string
	Fingerprint string
	Index       ports.SearchIndex
	BuiltAt     time.Time
}

// SnapshotHolder publishes the current Snapshot.
// Readers call Current once and use that pointer for the whole call; Publish
// replaces it wholesale, so a reader never sees a half-built index or an
// index paired with another build's fingerprint.
type SnapshotHolder struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotHolder creates an empty holder.
func NewSnapshotHolder() *SnapshotHolder {
	return &SnapshotHolder{}
}

// Current returns the published snapshot, or nil before the first ingestion.
func (h *SnapshotHolder) Current() *Snapshot {
	return h.current.Load()
}

// Publish swaps in a new snapshot and returns the previous one.
func (h *SnapshotHolder) Publish(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}

// Fingerprint returns the current fingerprint, or "" when nothing is published.
func (h *SnapshotHolder) Fingerprint() string {
	if s := h.current.Load(); s != nil {
		return s.Fingerprint
	}
	return ""
}
