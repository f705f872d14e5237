package ports

// ContinuationIteration is emitted before each re-engagement write.
type ContinuationIteration struct {
	PtyID     string `json:"ptyId"`
	Iteration int    `json:"iteration"`
	Max       int    `json:"max"`
}

// ContinuationDone is emitted when a completion marker is seen.
type ContinuationDone struct {
	PtyID      string `json:"ptyId"`
	Iterations int    `json:"iterations"`
}

// ContinuationMaxReached is emitted when the iteration cap is hit.
type ContinuationMaxReached struct {
	PtyID      string `json:"ptyId"`
	Iterations int    `json:"iterations"`
	Goal       string `json:"goal"`
}

// EnsembleProgress reports synthesis fan-out progress; Completed values for
// one JobID are non-decreasing.
type EnsembleProgress struct {
	JobID       string `json:"jobId"`
	WorkspaceID string `json:"workspaceId"`
	Goal        string `json:"goal"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
}

// EnsembleDone is emitted exactly once per successful synthesis job.
type EnsembleDone struct {
	JobID       string `json:"jobId"`
	WorkspaceID string `json:"workspaceId"`
	Goal        string `json:"goal"`
	SessionID   string `json:"sessionId"`
	Total       int    `json:"total"`
}

// EventSink receives tagged events destined for the UI collaborator.
type EventSink interface {
	ShellData(ptyID string, chunk []byte)
	ShellExit(ptyID string, code int)
	ContinuationIteration(ev ContinuationIteration)
	ContinuationDone(ev ContinuationDone)
	ContinuationMaxReached(ev ContinuationMaxReached)
	EnsembleProgress(ev EnsembleProgress)
	EnsembleDone(ev EnsembleDone)
}
