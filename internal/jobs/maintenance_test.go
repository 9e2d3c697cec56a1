package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

// fakeSessionRepo only implements the counter reset; the embedded interface
// panics on anything else the job should never call.
type fakeSessionRepo struct {
	repository.SessionRepository
	resets int
	err    error
}

func (f *fakeSessionRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.resets++
	return 3, nil
}

func TestMaintenanceJobTick(t *testing.T) {
	day1 := time.Date(2026, 8, 20, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 21, 0, 5, 0, 0, time.UTC)

	t.Run("does nothing within the same UTC day", func(t *testing.T) {
		repo := &fakeSessionRepo{}
		job := NewMaintenanceJob(repo, time.Minute)
		now := day1
		job.now = func() time.Time { return now }
		job.lastDay = job.currentDay()

		job.Tick()
		now = day1.Add(5 * time.Minute)
		job.Tick()

		assert.Equal(t, 0, repo.resets)
	})

	t.Run("resets counters once after the day rolls over", func(t *testing.T) {
		repo := &fakeSessionRepo{}
		job := NewMaintenanceJob(repo, time.Minute)
		now := day1
		job.now = func() time.Time { return now }
		job.lastDay = job.currentDay()

		now = day2
		job.Tick()
		job.Tick()

		assert.Equal(t, 1, repo.resets)
	})

	t.Run("retries on the next tick when the reset fails", func(t *testing.T) {
		repo := &fakeSessionRepo{err: errors.New("connection refused")}
		job := NewMaintenanceJob(repo, time.Minute)
		now := day1
		job.now = func() time.Time { return now }
		job.lastDay = job.currentDay()

		now = day2
		job.Tick()
		assert.Equal(t, 0, repo.resets)

		repo.err = nil
		job.Tick()
		assert.Equal(t, 1, repo.resets)
	})
}
