package services

import (
	"context"
	"time"

	"campus-management/app/metrics"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is a recurring background task.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules in the configured timezone.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler(loc *time.Location) *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Add registers job; an invalid schedule is reported immediately.
func (s *Scheduler) Add(job Job) error {
	if job.Timeout == 0 {
		job.Timeout = 10 * time.Minute
	}
	_, err := s.cron.AddFunc(job.Spec, func() { runJob(job) })
	if err != nil {
		return errors.Wrapf(err, "schedule %s", job.Name)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		log.Info().Str("job", j.Name).Str("schedule", j.Spec).Msg("scheduled job registered")
	}
	s.cron.Start()
	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		log.Warn().Msg("scheduler stop timed out")
	}
}

func runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", job.Name).Interface("panic", r).Msg("scheduled job panicked")
			metrics.RecordJob(job.Name, false)
		}
	}()

	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name).Dur("took", time.Since(start)).Msg("scheduled job failed")
		metrics.RecordJob(job.Name, false)
		return
	}
	log.Info().Str("job", job.Name).Dur("took", time.Since(start)).Msg("scheduled job completed")
	metrics.RecordJob(job.Name, true)
}
