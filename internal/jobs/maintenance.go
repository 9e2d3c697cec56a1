package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

const maintenanceTimeout = 30 * time.Second

// MaintenanceJob resets the per-session daily send/receive counters when
// the UTC day rolls over. The tick interval just bounds how late after
// midnight the reset lands.
type MaintenanceJob struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	now         func() time.Time
	lastDay     string
	done        chan struct{}
}

func NewMaintenanceJob(sessionRepo repository.SessionRepository, interval time.Duration) *MaintenanceJob {
	return &MaintenanceJob{
		sessionRepo: sessionRepo,
		interval:    interval,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

func (j *MaintenanceJob) Start() {
	j.lastDay = j.currentDay()
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("maintenance job started")
}

func (j *MaintenanceJob) Stop() {
	close(j.done)
	log.Info().Msg("maintenance job stopped")
}

func (j *MaintenanceJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.Tick()
		}
	}
}

// Tick runs one maintenance pass. Exported so tests can drive the job
// without the ticker.
func (j *MaintenanceJob) Tick() {
	day := j.currentDay()
	if day == j.lastDay {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	count, err := j.sessionRepo.ResetDailyCounters(ctx)
	if err != nil {
		// Keep lastDay unchanged so the next tick retries the reset.
		log.Error().Err(err).Msg("daily counter reset failed")
		return
	}

	j.lastDay = day
	if count > 0 {
		log.Info().Int64("count", count).Str("day", day).Msg("daily session counters reset")
	}
}

func (j *MaintenanceJob) currentDay() string {
	return j.now().UTC().Format("2006-01-02")
}
