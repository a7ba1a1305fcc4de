package models

// SyncState classifies how the two platforms' descriptions of the same
// map relate to each other.
type SyncState string

const (
	SyncNone       SyncState = "none"        // neither side georeferenced
	SyncSourceOnly SyncState = "source-only" // only the source platform has GCPs
	SyncTargetOnly SyncState = "target-only" // only the target annotation has GCPs
	SyncMatch      SyncState = "match"
	SyncMismatch   SyncState = "mismatch"
)

// SyncStatus is the comparator result. Differences is populated only for
// mismatch, in the order the discrepancies were found.
type SyncStatus struct {
	State       SyncState `json:"status"`
	Differences []string  `json:"differences,omitempty"`
}
