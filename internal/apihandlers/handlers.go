package apihandlers

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"muninn/internal/bus"
	"muninn/internal/config"
	"muninn/internal/jobstore"
	"muninn/internal/notify"
	"muninn/internal/origin"
	"muninn/internal/uploader"
)

// Deps wires the handler set to the submission core.
type Deps struct {
	Store    *jobstore.Store
	Uploader *uploader.Service
	Bus      *bus.Bus
	Origin   origin.Marker
	Config   *config.Config
}

type APIHandler struct {
	deps Deps
}

func NewAPIHandler(deps Deps) *APIHandler {
	return &APIHandler{deps: deps}
}

type rejectedItem struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

/*
SubmitHandler accepts a batch: multipart form with zero or more "files" plus
an optional "text" field, and a required "view" field naming the initiating
session. Accepted items come back as created records; rejected kinds come
back per-item without ever entering the pipeline. Origin marking happens
inside the batch submission, before any record starts processing.
*/
func (h *APIHandler) SubmitHandler(c *gin.Context) {
	view := strings.TrimSpace(c.PostForm("view"))
	if view == "" {
		BadRequest(c, "missing required field 'view'")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "invalid multipart form: "+err.Error())
		return
	}

	var items []uploader.SubmitItem
	for _, fh := range form.File["files"] {
		item, err := readFileItem(fh, h.deps.Config.Upload.MaxFileBytes)
		if err != nil {
			BadRequest(c, fmt.Sprintf("read upload %q: %v", fh.Filename, err))
			return
		}
		items = append(items, item)
	}
	if text := c.PostForm("text"); strings.TrimSpace(text) != "" {
		items = append(items, uploader.SubmitItem{
			Text:        text,
			ContentKind: "text/plain",
		})
	}
	if len(items) == 0 {
		BadRequest(c, "no files or text provided")
		return
	}

	accepted, refused := h.deps.Uploader.SubmitBatch(c.Request.Context(), view, items)
	rejected := make([]rejectedItem, 0, len(refused))
	for _, r := range refused {
		rejected = append(rejected, rejectedItem{Name: r.Name, Kind: r.Kind, Reason: "unsupported content kind"})
	}

	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{
		"accepted": accepted,
		"rejected": rejected,
	}})
}

// ListJobsHandler returns the renderable record list in submission order.
func (h *APIHandler) ListJobsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Store.List()})
}

// RemoveJobHandler removes a record on explicit user action.
func (h *APIHandler) RemoveJobHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return
	}
	if !h.deps.Uploader.Remove(id) {
		NotFound(c, "no such job record")
		return
	}
	c.Status(http.StatusNoContent)
}

// DecisionHandler runs the redirect/toast decision for the given view.
// Long-lived sessions hold their own DecisionPoint; this endpoint exists for
// stateless clients and builds a fresh one, relying on the marker clear for
// at-most-once behavior across calls.
func (h *APIHandler) DecisionHandler(c *gin.Context) {
	view := strings.TrimSpace(c.Query("view"))
	if view == "" {
		BadRequest(c, "missing required query parameter 'view'")
		return
	}
	dp := notify.NewDecisionPoint(h.deps.Origin, h.deps.Store)
	decision, err := dp.HandleCompletion(view)
	if err != nil {
		Internal(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": decision})
}

// EventsHandler streams completion signals over SSE. The connection is a
// subscribing session: it registers on the bus and its disposer runs when
// the client disconnects, so no stale handler outlives it.
func (h *APIHandler) EventsHandler(c *gin.Context) {
	signals := make(chan struct{}, 1)
	unsubscribe := h.deps.Bus.Subscribe(func() {
		select {
		case signals <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-signals:
			fmt.Fprintf(c.Writer, "event: completed\ndata: {}\n\n")
			c.Writer.Flush()
		}
	}
}

// readFileItem pulls one multipart file into a SubmitItem, resolving the
// declared content kind from the part header with an extension fallback
// (clients often send application/octet-stream for anything).
func readFileItem(fh *multipart.FileHeader, maxBytes int64) (uploader.SubmitItem, error) {
	kind := fh.Header.Get("Content-Type")
	if kind == "" || strings.EqualFold(kind, "application/octet-stream") {
		kind = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if i := strings.Index(kind, ";"); i >= 0 {
		kind = strings.TrimSpace(kind[:i])
	}

	src, err := fh.Open()
	if err != nil {
		return uploader.SubmitItem{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return uploader.SubmitItem{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return uploader.SubmitItem{}, fmt.Errorf("file exceeds %d byte limit", maxBytes)
	}

	return uploader.SubmitItem{
		Name:        filepath.Base(fh.Filename),
		ContentKind: kind,
		Data:        data,
	}, nil
}
