// Package scheduler drives the periodic sweeps of the auction service.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"go.uber.org/zap"
)

const (
	JobSweepEnded      = "ended"
	JobSweepEndingSoon = "ending_soon"
)

// Guard decides whether this instance runs a job tick. It lets several
// instances share one database without sweeping twice.
type Guard interface {
	TryAcquire(ctx context.Context, name string) (bool, error)
}

// Job is one periodic task
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs every job on its own ticker, the first run happens at start
type Scheduler struct {
	jobs  []Job
	guard Guard
	log   *zap.Logger
	wg    sync.WaitGroup
}

// New creates a scheduler, guard may be nil
func New(log *zap.Logger, guard Guard, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, guard: guard, log: log}
}

// SweepJobs returns the two sweeps of svc with their intervals
func SweepJobs(svc application.AuctionService, endedEvery, endingSoonEvery time.Duration) []Job {
	return []Job{
		{
			Name:     JobSweepEnded,
			Interval: endedEvery,
			Run: func(ctx context.Context) error {
				_, err := svc.SweepEnded(ctx)
				return err
			},
		},
		{
			Name:     JobSweepEndingSoon,
			Interval: endingSoonEvery,
			Run: func(ctx context.Context) error {
				_, err := svc.SweepEndingSoon(ctx)
				return err
			},
		},
	}
}

// Start launches the job loops, they stop when ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.log.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Wait blocks until every loop returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	tk := time.NewTicker(job.Interval)
	defer tk.Stop()

	s.tick(ctx, job)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler job stopped", zap.String("job", job.Name))
			return
		case <-tk.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	if s.guard != nil {
		ok, err := s.guard.TryAcquire(ctx, job.Name)
		if err != nil {
			// run anyway, sweeps are safe to overlap
			s.log.Warn("Scheduler guard unavailable", zap.String("job", job.Name), zap.Error(err))
		} else if !ok {
			s.log.Debug("Scheduler tick owned by another instance", zap.String("job", job.Name))
			return
		}
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("Scheduler job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.log.Debug("Scheduler job done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}
