package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"boardwatch/internal/pipeline"
)

var ErrRunInProgress = errors.New("pipeline run already in progress")

type PipelineRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Run, error)
}

// PipelineService serializes pipeline runs triggered by cron and by the API.
type PipelineService struct {
	Runner   PipelineRunner
	Defaults pipeline.Options
	Logger   *zap.Logger

	mu     sync.Mutex
	lastMu sync.RWMutex
	last   *pipeline.Run
}

// Trigger runs the pipeline unless another run holds the lock.
func (s *PipelineService) Trigger(ctx context.Context, opts pipeline.Options) (*pipeline.Run, error) {
	if s == nil || s.Runner == nil {
		return nil, errors.New("pipeline runner unavailable")
	}
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	if opts.Days <= 0 {
		opts.Days = s.Defaults.Days
	}
	run, err := s.Runner.Run(ctx, opts)
	if run != nil {
		s.lastMu.Lock()
		s.last = run
		s.lastMu.Unlock()
	}
	return run, err
}

// RunScheduled is the cron entrypoint.
func (s *PipelineService) RunScheduled(ctx context.Context) {
	run, err := s.Trigger(ctx, pipeline.Options{})
	if s.Logger == nil {
		return
	}
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.Logger.Warn("scheduled pipeline skipped, previous run still active")
	case err != nil:
		fields := []zap.Field{zap.Error(err)}
		if run != nil {
			fields = append(fields, zap.String("run_id", run.RunID), zap.String("stage", string(run.LastStage())))
		}
		s.Logger.Error("scheduled pipeline failed", fields...)
	case run != nil:
		s.Logger.Info("scheduled pipeline done", zap.String("run_id", run.RunID), zap.String("status", run.Status))
	}
}

// Last returns the most recent finished run, or nil.
func (s *PipelineService) Last() *pipeline.Run {
	if s == nil {
		return nil
	}
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last
}

// Running reports whether a run currently holds the lock.
func (s *PipelineService) Running() bool {
	if s == nil {
		return false
	}
	if !s.mu.TryLock() {
		return true
	}
	s.mu.Unlock()
	return false
}
