package cronrunner

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers job; a tick that fires while the previous one is still running is skipped.
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	var mu sync.Mutex
	return r.cron.AddFunc(spec, func() {
		if !mu.TryLock() {
			if r.logger != nil {
				r.logger.Warn("cron job still running, tick skipped", zap.String("job", name))
			}
			return
		}
		defer mu.Unlock()
		job(r.baseCtx)
	})
}

func (r *Runner) entries() int {
	return len(r.cron.Entries())
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started", zap.Int("entries", r.entries()))
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
