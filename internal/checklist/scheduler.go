package checklist

import (
	"context"
	"fmt"
	"time"

	"todo_webapp/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs all automated checks on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
}

func NewScheduler(engine *Engine, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		engine: engine,
	}
}

// Every registers the check run at the given interval.
func (s *Scheduler) Every(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), s.run)
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results, state := s.engine.RunAllChecks(ctx)
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	st := ComputeStats(s.engine.Catalog(), state)
	logger.Info("checklist checks ran",
		"passed", passed,
		"total", len(results),
		"ready", st.IsReadyForDeployment,
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running check pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
