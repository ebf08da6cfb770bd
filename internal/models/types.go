package models

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
}

type PruneFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type PruneResult struct {
	Directory string         `json:"directory"`
	Deleted   []string       `json:"deleted_files"`
	Kept      []string       `json:"kept_files"`
	Failed    []PruneFailure `json:"failed_deletions"`
}

type Selection struct {
	SourceURL      string   `json:"source_url"`
	Pattern        string   `json:"pattern"`
	CandidateCount int      `json:"candidate_count"`
	FileName       string   `json:"file_name"`
	Version        string   `json:"version"`
	FileURL        string   `json:"file_url"`
	Candidates     []string `json:"candidates,omitempty"`
}

type SyncResult struct {
	RunID           string       `json:"run_id"`
	Store           string       `json:"store"`
	DryRun          bool         `json:"dry_run"`
	Selection       *Selection   `json:"selection,omitempty"`
	DestinationPath string       `json:"destination_path,omitempty"`
	Action          string       `json:"action,omitempty"`
	SizeBytes       int64        `json:"size_bytes"`
	SizeHuman       string       `json:"size_human"`
	Prune           *PruneResult `json:"prune,omitempty"`
	OperationTime   string       `json:"operation_time"`
	Duration        string       `json:"duration"`
	FailedStep      string       `json:"failed_step,omitempty"`
}
