package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler that requests periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleRebuild runs trigger on schedule, which is either a Go duration
// ("15m") or a five field cron expression ("0 * * * *"). It returns the job id.
func (s *Scheduler) ScheduleRebuild(schedule string, trigger func()) (string, error) {
	def, err := jobDefinition(schedule)
	if err != nil {
		return "", err
	}
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(func() {
			slog.Info("Executing scheduled rebuild", slog.String("schedule", schedule))
			trigger()
		}),
		gocron.WithName("scheduled-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

func jobDefinition(schedule string) (gocron.JobDefinition, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	if strings.Contains(schedule, " ") {
		return gocron.CronJob(schedule, false), nil
	}
	d, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("invalid schedule %q: interval must be positive", schedule)
	}
	return gocron.DurationJob(d), nil
}
