package model

// Summaries are derived on demand and never stored; these types only travel
// from the pipeline to the HTTP layer.

// UploadResult is returned after a document was stored and summarized.
type UploadResult struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
}

// SummaryResult is returned by a re-summarize request.
type SummaryResult struct {
	Summary string `json:"summary"`
}
