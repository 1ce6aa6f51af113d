package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muninn/internal/jobstore"
	"muninn/internal/models"
)

func uploadingRecord() models.JobRecord {
	return models.JobRecord{
		ID:     uuid.New(),
		Status: models.StatusUploading,
		Source: models.SourceDescriptor{Name: "a.pdf", Kind: models.SourceFile},
	}
}

func TestReporterIncrementsUpToCeiling(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 25, 60)
	r.Start(rec.ID)
	defer r.Stop(rec.ID)

	require.Eventually(t, func() bool {
		got, ok := store.Get(rec.ID)
		return ok && got.Progress == 60
	}, time.Second, time.Millisecond, "progress should reach the ceiling")

	// Give it a few more ticks; the ceiling must hold.
	time.Sleep(10 * time.Millisecond)
	got, ok := store.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, 60, got.Progress)
}

func TestReporterProgressIsMonotonic(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 10, 90)
	r.Start(rec.ID)
	defer r.Stop(rec.ID)

	last := 0
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		got, ok := store.Get(rec.ID)
		require.True(t, ok)
		require.GreaterOrEqual(t, got.Progress, last)
		last = got.Progress
		time.Sleep(2 * time.Millisecond)
	}
	assert.Greater(t, last, 0, "ticker should have advanced progress at least once")
}

func TestReporterStopHaltsTicking(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 10, 90)
	r.Start(rec.ID)

	require.Eventually(t, func() bool {
		got, _ := store.Get(rec.ID)
		return got.Progress > 0
	}, time.Second, time.Millisecond)

	r.Stop(rec.ID)
	got, _ := store.Get(rec.ID)
	frozen := got.Progress

	time.Sleep(20 * time.Millisecond)
	got, _ = store.Get(rec.ID)
	assert.Equal(t, frozen, got.Progress, "no ticks after Stop")
}

func TestReporterStopsWhenStatusLeavesUploading(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 10, 90)
	r.Start(rec.ID)

	rec.Status = models.StatusExtracting
	rec.Progress = 100
	require.True(t, store.Replace(rec))

	// The ticker must notice the status change and never touch progress
	// again.
	time.Sleep(20 * time.Millisecond)
	got, _ := store.Get(rec.ID)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, models.StatusExtracting, got.Status)
}

func TestReporterStopsWhenRecordRemoved(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 10, 90)
	r.Start(rec.ID)
	require.True(t, store.Remove(rec.ID))

	// Removal without an explicit Stop must still shut the ticker down.
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	_, stillOwned := r.tickers[rec.ID]
	r.mu.Unlock()
	assert.False(t, stillOwned, "ticker ownership should be released")
}

func TestReporterRestartReplacesTicker(t *testing.T) {
	store := jobstore.New()
	rec := uploadingRecord()
	store.Append(rec)

	r := New(store, time.Millisecond, 10, 90)
	r.Start(rec.ID)
	r.Start(rec.ID) // second start must replace, not duplicate

	r.mu.Lock()
	count := len(r.tickers)
	r.mu.Unlock()
	assert.Equal(t, 1, count, "exactly one ticker per record id")

	r.Stop(rec.ID)
	r.Stop(rec.ID) // double stop is a no-op
}

func TestReporterTickCannotRevertSettledStage(t *testing.T) {
	// A tick that raced the stage change must never land a stale uploading
	// write over the driver's extracting transition.
	loc := "http://storage.local/get/a.pdf"
	for i := 0; i < 200; i++ {
		store := jobstore.New()
		rec := uploadingRecord()
		rec.Progress = 30
		store.Append(rec)

		r := New(store, time.Microsecond, 10, 90)
		r.Start(rec.ID)

		// Driver-style settle, concurrent with the running ticker.
		require.True(t, store.Update(rec.ID, func(rc *models.JobRecord) {
			rc.Status = models.StatusExtracting
			rc.Progress = 100
			rc.RemoteLocation = &loc
		}))
		r.Stop(rec.ID)

		time.Sleep(time.Millisecond)
		got, ok := store.Get(rec.ID)
		require.True(t, ok)
		assert.Equal(t, models.StatusExtracting, got.Status)
		assert.Equal(t, 100, got.Progress)
		require.NotNil(t, got.RemoteLocation)
	}
}
