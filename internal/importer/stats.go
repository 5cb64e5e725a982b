package importer

// BatchState tracks one import batch through its lifecycle. Per-row
// transitions are independent; Aborted is entered at the batch level
// when the error threshold is exceeded before persisting completes.
type BatchState string

const (
	StateParsing     BatchState = "parsing"
	StateMapping     BatchState = "mapping"
	StateNormalizing BatchState = "normalizing"
	StateClassifying BatchState = "classifying"
	StatePersisting  BatchState = "persisting"
	StateReported    BatchState = "reported"
	StateAborted     BatchState = "aborted"
)

// ImportStats are the per-run counters returned to the reporting
// surface. Duplicates are recorded no-ops, not errors.
type ImportStats struct {
	RowsScanned       int `json:"rows_scanned"`
	Inserted          int `json:"inserted"`
	Duplicates        int `json:"duplicates"`
	ErrorRows         int `json:"error_rows"`
	TransfersDetected int `json:"transfers_detected"`
}

// ImportResult reports the outcome of importing one file.
type ImportResult struct {
	File        string      `json:"file"`
	AccountID   string      `json:"account_id"`
	AccountName string      `json:"account_name"`
	State       BatchState  `json:"state"`
	Stats       ImportStats `json:"stats"`
	// Error holds the file-level failure message for multi-file runs
	// where one file aborting must not stop the others.
	Error string `json:"error,omitempty"`
}

// ReclassifyStats reports a batch reclassification run. Running
// reclassification twice in succession updates zero rows on the second
// run.
type ReclassifyStats struct {
	Scanned         int `json:"scanned"`
	TransfersBefore int `json:"transfers_before"`
	TransfersAfter  int `json:"transfers_after"`
	Updated         int `json:"updated"`
}
