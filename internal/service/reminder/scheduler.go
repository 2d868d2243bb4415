package reminder

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Processor interface {
	ProcessDue(ctx context.Context) (TickResult, error)
}

// Locker is a cross-instance mutex with expiry.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Scheduler runs ProcessDue on a fixed interval. Ticks never overlap: a tick
// that starts while another is running in this process, or while another
// instance holds the lock, is skipped rather than queued.
type Scheduler struct {
	processor Processor
	interval  time.Duration
	locker    Locker
	lockKey   string
	running   atomic.Bool
	log       zerolog.Logger
}

type SchedulerOption func(*Scheduler)

// WithLocker coordinates ticks across instances through key. The lock lives
// for one interval so a crashed holder cannot block later ticks.
func WithLocker(locker Locker, key string) SchedulerOption {
	return func(s *Scheduler) {
		s.locker = locker
		s.lockKey = key
	}
}

func NewScheduler(processor Processor, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &Scheduler{
		processor: processor,
		interval:  interval,
		log:       logger.With("reminder-scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass unless another is in progress. It reports whether the
// pass ran.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, bool) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug().Msg("previous tick still running, skipping")
		return TickResult{}, false
	}
	defer s.running.Store(false)

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()

	if s.locker != nil {
		token, acquired, err := s.locker.AcquireLock(ctx, s.lockKey, s.interval)
		switch {
		case err != nil:
			// Claims still keep delivery exclusive without the lock.
			log.Warn().Err(err).Msg("acquire tick lock, continuing without it")
		case !acquired:
			log.Debug().Msg("tick lock held by another instance, skipping")
			return TickResult{}, false
		default:
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := s.locker.ReleaseLock(releaseCtx, s.lockKey, token); err != nil {
					log.Warn().Err(err).Msg("release tick lock")
				}
			}()
		}
	}

	start := time.Now()
	result, err := s.processor.ProcessDue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reminder tick failed")
		return result, true
	}
	log.Info().
		Int("due", result.Due).
		Int("sent", result.Sent).
		Int("rescheduled", result.Rescheduled).
		Int("retried", result.Retried).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Dur("took", time.Since(start)).
		Msg("reminder tick finished")
	return result, true
}
