package interactions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
)

// Flusher is the part of Recorder the scheduler drives.
type Flusher interface {
	Flush(ctx context.Context, userID string) bool
}

type schedule struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs a recurring flush per user.
type Scheduler struct {
	flusher  Flusher
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	schedules map[string]*schedule
	stopped   bool
}

func NewScheduler(flusher Flusher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		flusher:   flusher,
		interval:  interval,
		logger:    logger,
		schedules: make(map[string]*schedule),
	}
}

// Arm flushes the user's records now and then every interval until the user
// is re-armed or the scheduler stops. Re-arming replaces the previous
// schedule. It reports the result of the immediate flush.
func (s *Scheduler) Arm(ctx context.Context, userID string) bool {
	l := s.logger.With(slog.String("method", "Arm"), slog.String("userID", userID))

	// Later ticks outlive the request; they keep its identity for the token.
	bg := context.Background()
	if user, ok := auth.CurrentUserFromContext(ctx); ok {
		bg = auth.WithCurrentUser(bg, user)
	}
	runCtx, cancel := context.WithCancel(bg)
	next := &schedule{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return s.flusher.Flush(ctx, userID)
	}
	prev := s.schedules[userID]
	s.schedules[userID] = next
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
		l.DebugContext(ctx, "Replaced flush schedule")
	}

	flushed := s.flusher.Flush(ctx, userID)
	go s.run(runCtx, userID, next)
	l.InfoContext(ctx, "Armed interaction flush", slog.Duration("interval", s.interval))
	return flushed
}

func (s *Scheduler) run(ctx context.Context, userID string, sc *schedule) {
	defer close(sc.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.flusher.Flush(ctx, userID)
		}
	}
}

// Armed reports whether userID has an active schedule.
func (s *Scheduler) Armed(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.schedules[userID]
	return ok
}

// Cancel stops the user's schedule, if any.
func (s *Scheduler) Cancel(userID string) {
	s.mu.Lock()
	sc := s.schedules[userID]
	delete(s.schedules, userID)
	s.mu.Unlock()
	if sc != nil {
		sc.cancel()
		<-sc.done
	}
}

// Stop cancels every schedule and waits for running flushes to return.
// Later Arm calls flush once without scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	all := s.schedules
	s.schedules = make(map[string]*schedule)
	s.mu.Unlock()
	for _, sc := range all {
		sc.cancel()
		<-sc.done
	}
}
