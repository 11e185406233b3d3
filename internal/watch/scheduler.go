package watch

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagepipe/internal/logfields"
)

// scheduler serializes rebuilds. The request channel holds at most one
// pending rebuild; requests arriving while one is pending are dropped.
type scheduler struct {
	rebuild RebuildFunc
	logger  *slog.Logger
	pending chan struct{}
}

func newScheduler(rebuild RebuildFunc, logger *slog.Logger) *scheduler {
	return &scheduler{rebuild: rebuild, logger: logger, pending: make(chan struct{}, 1)}
}

func (s *scheduler) request() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
		}
		if ctx.Err() != nil {
			return
		}

		s.logger.Info("Change detected; rebuilding")
		start := time.Now()
		if err := s.rebuild(ctx); err != nil {
			s.logger.Warn("Rebuild failed", logfields.Error(err))
			continue
		}
		s.logger.Info("Rebuild finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}
}
