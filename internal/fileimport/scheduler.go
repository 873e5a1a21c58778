package fileimport

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler drives a set of seeds' Monitor.Poll calls on cron expressions,
// the "in/out of schedule" oracle of spec §4.F. Grounded on the cron
// wrapper in the examples pack, which schedules jobs on
// github.com/robfig/cron/v3 expressions and logs each run.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a Scheduler. Schedules support seconds, matching the
// examples pack's use of cron.WithSeconds().
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithSeconds())}
}

// Start begins dispatching scheduled polls.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for in-flight jobs to finish before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// AddSeed registers mon to be polled on the given cron expression. An empty
// expression means the seed is never polled on a schedule (it can still be
// driven by SetForceLoadOnce followed by a manual Poll/Reload).
func (s *Scheduler) AddSeed(ctx context.Context, schedule string, mon *Monitor) error {
	if schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		log.Printf("fileimport: scheduled poll for %s", mon.Seed.Name)
		mon.Poll(ctx)
	})
	return err
}
