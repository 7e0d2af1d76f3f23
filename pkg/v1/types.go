package v1

import "time"

// Result summarises one import run.
type Result struct {
	Count    int       `json:"count"`
	NewCount int       `json:"newCount"`
	Written  []string  `json:"written,omitempty"`
	Failures []Failure `json:"failures,omitempty"`
	Summary  string    `json:"summary"`
}

// Failure is one output file that could not be written.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Status is the persisted sync state of a vault.
type Status struct {
	SyncedCount  int       `json:"syncedCount"`
	LastSyncTime time.Time `json:"lastSyncTime"`
}
