package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"muninn/internal/jobstore"
	"muninn/internal/models"
)

/*
Reporter produces the cosmetic progress value shown during the uploading
stage. The transfer primitive gives us no byte-level progress, so a fixed
increment on a fixed interval stands in, capped below 100 until the real
transfer resolves.

Ticker ownership is keyed by record id: starting a ticker for an id that
already has one replaces the old ticker, so at most one can ever be
animating a record.
*/
type Reporter struct {
	store     *jobstore.Store
	interval  time.Duration
	increment int
	ceiling   int

	mu      sync.Mutex
	tickers map[uuid.UUID]chan struct{}
}

func New(store *jobstore.Store, interval time.Duration, increment, ceiling int) *Reporter {
	if increment <= 0 {
		increment = 10
	}
	if ceiling <= 0 || ceiling >= 100 {
		ceiling = 90
	}
	return &Reporter{
		store:     store,
		interval:  interval,
		increment: increment,
		ceiling:   ceiling,
		tickers:   make(map[uuid.UUID]chan struct{}),
	}
}

// Start begins ticking progress for the record with the given id. The ticker
// stops itself as soon as the record leaves the uploading status or is
// removed from the store.
func (r *Reporter) Start(id uuid.UUID) {
	r.mu.Lock()
	if old, ok := r.tickers[id]; ok {
		close(old)
	}
	stop := make(chan struct{})
	r.tickers[id] = stop
	r.mu.Unlock()

	go r.tick(id, stop)
}

// Stop cancels the ticker for the given id, if one is running. It is safe to
// call on every exit path; stopping an unknown id is a no-op.
func (r *Reporter) Stop(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stop, ok := r.tickers[id]; ok {
		close(stop)
		delete(r.tickers, id)
	}
}

// release removes the ticker entry only if it still belongs to this ticker,
// so a self-stopping ticker never tears down a replacement started later.
func (r *Reporter) release(id uuid.UUID, stop chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.tickers[id]; ok && current == stop {
		delete(r.tickers, id)
	}
}

func (r *Reporter) tick(id uuid.UUID, stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// The status check must happen inside the same Update as the
			// bump: a separate read would let a stale increment land after
			// the driver already moved the record past uploading.
			uploading := false
			next := 0
			ok := r.store.Update(id, func(rec *models.JobRecord) {
				if rec.Status != models.StatusUploading {
					return
				}
				uploading = true
				next = rec.Progress + r.increment
				if next > r.ceiling {
					next = r.ceiling
				}
				rec.Progress = next
			})
			if !ok || !uploading {
				// The stage resolved (or the record was removed) without an
				// explicit Stop; shut the ticker down rather than leak it.
				r.release(id, stop)
				return
			}
			log.WithFields(log.Fields{"job_id": id, "progress": next}).Debug("progress tick")
		}
	}
}
