package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const userAgent = "muninn/0.1.0"

// Client implements all three collaborator operations against the analysis
// backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ DestinationIssuer = (*Client)(nil)
var _ BinaryTransferrer = (*Client)(nil)
var _ AnalysisSubmitter = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// IssueWriteDestination asks the backend to sign a write destination for the
// named item. A response without an upload URL counts as a failure.
func (c *Client) IssueWriteDestination(ctx context.Context, name, kind, ownerID string) (Destination, error) {
	reqBody := struct {
		Name        string `json:"name"`
		ContentKind string `json:"content_kind"`
		OwnerID     string `json:"owner_id"`
	}{Name: name, ContentKind: kind, OwnerID: ownerID}

	var dest Destination
	if err := c.postJSON(ctx, "/v1/uploads/sign", reqBody, &dest); err != nil {
		return Destination{}, fmt.Errorf("issue write destination for %q: %w", name, err)
	}
	if dest.UploadURL == "" {
		return Destination{}, fmt.Errorf("issue write destination for %q: backend returned no upload URL", name)
	}
	log.WithFields(log.Fields{"name": name, "kind": kind}).Debug("issued write destination")
	return dest, nil
}

// TransferBinary PUTs the raw bytes to the issued destination.
func (c *Client) TransferBinary(ctx context.Context, dest Destination, data []byte, kind string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dest.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", kind)
	req.ContentLength = int64(len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("transfer binary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transfer binary: storage returned %d: %s", resp.StatusCode, bodyHint(resp.Body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SubmitForAnalysis hands content off to the analysis pipeline. Content is
// either a public location (file-backed records) or raw text.
func (c *Client) SubmitForAnalysis(ctx context.Context, content, kind, workspaceID string) (string, error) {
	reqBody := struct {
		Content     string `json:"content"`
		ContentKind string `json:"content_kind"`
		WorkspaceID string `json:"workspace_id"`
	}{Content: content, ContentKind: kind, WorkspaceID: workspaceID}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/v1/analyses", reqBody, &result); err != nil {
		return "", fmt.Errorf("submit for analysis: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("submit for analysis: backend returned no analysis id")
	}
	log.WithFields(log.Fields{"analysis_id": result.ID, "workspace": workspaceID}).Debug("analysis submitted")
	return result.ID, nil
}

// Ping checks backend reachability; used by the doctor command.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, bodyHint(resp.Body))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bodyHint reads a bounded chunk of an error response body for diagnostics.
func bodyHint(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(b))
}
