package models

/*
Job status and failure reason constants used throughout the codebase.
Centralizing these avoids magic strings and improves maintainability.
*/

// Job status constants. A record moves through these strictly in order;
// text submissions skip StatusUploading and StatusExtracting.
const (
	StatusIdle       = "idle"
	StatusUploading  = "uploading"
	StatusExtracting = "extracting"
	StatusAnalyzing  = "analyzing"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// User-facing failure reasons. These are classifications, never raw errors.
const (
	ReasonUploadFailed   = "Upload failed"
	ReasonAnalysisFailed = "Analysis failed"
	ReasonNoWorkspace    = "No active workspace"
)

// Source kind constants
const (
	SourceFile = "file"
	SourceText = "text"
)

// TerminalStatus reports whether the given status string is terminal.
func TerminalStatus(status string) bool {
	return status == StatusSuccess || status == StatusError
}
