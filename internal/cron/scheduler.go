package cronjob

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Sweeper is the part of the form registry the scheduler drives.
type Sweeper interface {
	Sweep() int
}

type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the idle form sweep on the given schedule. The
// schedule accepts a seconds field and descriptors such as "@every 5m".
func NewScheduler(schedule string, forms Sweeper) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(schedule, func() {
		sweepForms(forms)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cron job: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

// Start runs the scheduled jobs in the background
func (s *Scheduler) Start() {
	log.Println("Cron scheduler started (sweeping idle forms)")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func sweepForms(forms Sweeper) {
	if n := forms.Sweep(); n > 0 {
		log.Printf("[info] operation=form_sweep discarded=%d", n)
	}
}
