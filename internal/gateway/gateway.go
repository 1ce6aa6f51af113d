package gateway

import (
	"context"
)

// Destination is a backend-issued, time-limited location a file may be
// written to directly, plus the public location the content is fetchable
// from once the transfer completes.
type Destination struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

// DestinationIssuer requests a write destination for a named item.
type DestinationIssuer interface {
	IssueWriteDestination(ctx context.Context, name, kind, ownerID string) (Destination, error)
}

// BinaryTransferrer performs the direct transfer to object storage.
type BinaryTransferrer interface {
	TransferBinary(ctx context.Context, dest Destination, data []byte, kind string) error
}

// AnalysisSubmitter hands a public location or raw text to the backend
// analysis pipeline and returns the identifier used to fetch results later.
type AnalysisSubmitter interface {
	SubmitForAnalysis(ctx context.Context, content, kind, workspaceID string) (string, error)
}
