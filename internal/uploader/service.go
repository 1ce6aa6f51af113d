package uploader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"muninn/internal/bus"
	"muninn/internal/config"
	"muninn/internal/gateway"
	"muninn/internal/jobstore"
	"muninn/internal/models"
	"muninn/internal/origin"
	"muninn/internal/progress"
	"muninn/internal/snippet"
)

// SubmitItem is a raw user submission, before validation. Exactly one of
// Data (file payload) or Text (pasted text) is set.
type SubmitItem struct {
	Name        string
	ContentKind string
	Data        []byte
	Text        string
}

// RejectedItem describes a batch member refused before any record was
// created for it.
type RejectedItem struct {
	Name string
	Kind string
}

// ServiceDeps collects everything the stage driver needs. Origin may be nil
// for callers that never submit view-attributed batches.
type ServiceDeps struct {
	Store    *jobstore.Store
	Progress *progress.Reporter
	Issuer   gateway.DestinationIssuer
	Transfer gateway.BinaryTransferrer
	Analysis gateway.AnalysisSubmitter
	Bus      *bus.Bus
	Origin   origin.Marker
	Config   *config.Config
}

/*
Service drives each job record through its lifecycle: destination issuance,
binary transfer, then analysis submission. Every record is processed in its
own goroutine; a failure in one record never blocks or corrupts another's
progress, and failures are converted into a terminal error status on the
affected record instead of propagating.
*/
type Service struct {
	store    *jobstore.Store
	progress *progress.Reporter
	issuer   gateway.DestinationIssuer
	transfer gateway.BinaryTransferrer
	analysis gateway.AnalysisSubmitter
	bus      *bus.Bus
	origin   origin.Marker
	cfg      *config.Config
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		store:    deps.Store,
		progress: deps.Progress,
		issuer:   deps.Issuer,
		transfer: deps.Transfer,
		analysis: deps.Analysis,
		bus:      deps.Bus,
		origin:   deps.Origin,
		cfg:      deps.Config,
	}
}

/*
Submit validates the item's declared content kind against the allow-list,
creates a job record at idle, and schedules its processing. Unsupported
kinds are rejected before any record exists, so the store's length is
unchanged for them.
*/
func (s *Service) Submit(ctx context.Context, item SubmitItem) (models.JobRecord, error) {
	rec, err := s.prepare(item)
	if err != nil {
		return models.JobRecord{}, err
	}
	s.start(rec.ID)
	return rec, nil
}

/*
SubmitBatch validates and enqueues a whole batch attributed to one view.
Refused kinds come back in the rejected list without a record ever existing.
The origin marker is written after every accepted record is in the store but
before any of them starts processing, so by the time a completion signal can
fire the batch's origin is already visible to every subscriber.
*/
func (s *Service) SubmitBatch(ctx context.Context, view string, items []SubmitItem) ([]models.JobRecord, []RejectedItem) {
	var accepted []models.JobRecord
	var rejected []RejectedItem
	for _, item := range items {
		rec, err := s.prepare(item)
		if err != nil {
			rejected = append(rejected, RejectedItem{Name: item.Name, Kind: item.ContentKind})
			continue
		}
		accepted = append(accepted, rec)
	}
	if len(accepted) == 0 {
		return accepted, rejected
	}

	if s.origin != nil && view != "" {
		if err := s.origin.MarkOrigin(view); err != nil {
			// The records exist and will run; losing the marker only
			// degrades the redirect decision, so report and continue.
			log.WithError(err).Error("failed to mark batch origin")
		}
	}

	for _, rec := range accepted {
		s.start(rec.ID)
	}
	return accepted, rejected
}

// prepare validates the item's declared content kind against the allow-list
// and creates its record at idle, without scheduling any processing.
func (s *Service) prepare(item SubmitItem) (models.JobRecord, error) {
	kind := strings.TrimSpace(item.ContentKind)
	if item.Text != "" && kind == "" {
		kind = "text/plain"
	}
	if !s.kindAllowed(kind) {
		return models.JobRecord{}, fmt.Errorf("submit %q: %w: %s", item.Name, models.ErrUnsupportedKind, kind)
	}

	rec := models.JobRecord{
		ID:        uuid.New(),
		Status:    models.StatusIdle,
		CreatedAt: time.Now(),
		Source:    buildDescriptor(item, kind),
	}
	s.store.Append(rec)
	log.WithFields(log.Fields{"job_id": rec.ID, "name": rec.Source.Name, "kind": kind}).Info("submission accepted")
	return rec, nil
}

// start schedules processing for a prepared record. Processing is
// deliberately detached from the caller's context: an in-flight submission
// keeps running after the initiating request returns, exactly like the
// batch outliving its originating screen.
func (s *Service) start(id uuid.UUID) {
	go s.process(context.Background(), id)
}

func (s *Service) kindAllowed(kind string) bool {
	for _, allowed := range s.cfg.Upload.AllowedKinds {
		if strings.EqualFold(allowed, kind) {
			return true
		}
	}
	return false
}

func buildDescriptor(item SubmitItem, kind string) models.SourceDescriptor {
	desc := models.SourceDescriptor{
		Name:        item.Name,
		ContentKind: kind,
	}
	if item.Text != "" {
		desc.Kind = models.SourceText
		desc.Text = item.Text
		desc.Size = int64(len(item.Text))
		if desc.Name == "" {
			text := item.Text
			if strings.EqualFold(kind, "text/html") {
				text = snippet.FromHTML(text)
			}
			desc.Name = snippet.Title(text, snippet.DefaultTitleLength)
		}
		return desc
	}
	desc.Kind = models.SourceFile
	desc.Data = item.Data
	desc.Size = int64(len(item.Data))
	return desc
}

// process runs the full stage sequence for one record. Transitions are
// strictly sequential within the record; no stage is skipped or revisited,
// except the two file-only stages being absent for text records.
func (s *Service) process(ctx context.Context, id uuid.UUID) {
	rec, ok := s.store.Get(id)
	if !ok {
		return
	}

	workspaceID := s.cfg.Workspace.ID
	if workspaceID == "" {
		// Configuration error: fail immediately, no network call.
		log.WithField("job_id", id).Warn("no active workspace configured, failing submission")
		s.fail(id, models.ReasonNoWorkspace)
		return
	}

	content := rec.Source.Text
	if rec.Source.Kind == models.SourceFile {
		location, ok := s.uploadStages(ctx, id, rec, workspaceID)
		if !ok {
			return
		}
		content = location
	}

	if !s.transition(id, func(r *models.JobRecord) {
		r.Status = models.StatusAnalyzing
	}) {
		return
	}

	resultID, err := s.analysis.SubmitForAnalysis(ctx, content, rec.Source.ContentKind, workspaceID)
	if err != nil {
		log.WithFields(log.Fields{"job_id": id, "error": err}).Warn("analysis submission failed")
		s.fail(id, models.ReasonAnalysisFailed)
		return
	}

	if !s.transition(id, func(r *models.JobRecord) {
		r.Status = models.StatusSuccess
		r.ResultID = &resultID
	}) {
		return
	}
	log.WithFields(log.Fields{"job_id": id, "result_id": resultID}).Info("analysis completed")

	// The record is already visible as success in the store, so every
	// subscriber reacting to the signal can consistently read it.
	s.bus.Publish()
}

// uploadStages runs destination issuance and binary transfer for a
// file-backed record. It returns the public location on success and false
// when the record failed or was removed.
func (s *Service) uploadStages(ctx context.Context, id uuid.UUID, rec models.JobRecord, workspaceID string) (string, bool) {
	if !s.transition(id, func(r *models.JobRecord) {
		r.Status = models.StatusUploading
		r.Progress = 0
	}) {
		return "", false
	}
	s.progress.Start(id)

	dest, err := s.issuer.IssueWriteDestination(ctx, rec.Source.Name, rec.Source.ContentKind, workspaceID)
	if err != nil {
		log.WithFields(log.Fields{"job_id": id, "error": err}).Warn("destination issuance failed")
		s.progress.Stop(id)
		s.fail(id, models.ReasonUploadFailed)
		return "", false
	}

	if err := s.transfer.TransferBinary(ctx, dest, rec.Source.Data, rec.Source.ContentKind); err != nil {
		log.WithFields(log.Fields{"job_id": id, "error": err}).Warn("binary transfer failed")
		s.progress.Stop(id)
		// Progress stays where it was; a stalled bar is more honest than a
		// full one on a failed transfer.
		s.fail(id, models.ReasonUploadFailed)
		return "", false
	}

	s.progress.Stop(id)
	if !s.transition(id, func(r *models.JobRecord) {
		r.Status = models.StatusExtracting
		r.Progress = 100
		r.RemoteLocation = &dest.PublicURL
	}) {
		return "", false
	}
	return dest.PublicURL, true
}

// transition applies an atomic mutation keyed by id. A false return means
// the record was removed by the user; the driver then abandons the chain
// and the in-flight outcome is ignored.
func (s *Service) transition(id uuid.UUID, mutate func(*models.JobRecord)) bool {
	if !s.store.Update(id, mutate) {
		s.progress.Stop(id)
		return false
	}
	return true
}

// fail marks the record terminal with a user-facing reason. Failures never
// propagate past this boundary.
func (s *Service) fail(id uuid.UUID, reason string) {
	s.transition(id, func(r *models.JobRecord) {
		r.Status = models.StatusError
		r.FailureReason = &reason
	})
}

// Remove deletes a record on explicit user action and stops any ticker it
// owns. An already-issued network call for the record is allowed to
// complete; its result is simply never reflected.
func (s *Service) Remove(id uuid.UUID) bool {
	s.progress.Stop(id)
	return s.store.Remove(id)
}
