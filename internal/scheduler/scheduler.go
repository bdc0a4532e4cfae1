// Package scheduler runs the daily job that counts currently running shows.
// The counts are logged and exported as a prometheus gauge so the public
// stats endpoint and the ops dashboard agree on the same numbers.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/stagedoor/theatre-listings/internal/availability"
	"github.com/stagedoor/theatre-listings/internal/model"
)

var runningShows = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "running_shows",
		Help: "Number of shows active today, by category",
	},
	[]string{"category"},
)

// ListingSource is the read slice of the listing repository the job needs.
type ListingSource interface {
	ListActiveBetween(ctx context.Context, start, end string, category model.Category) ([]model.Listing, error)
}

// Scheduler owns the cron instance and the daily count job.
type Scheduler struct {
	cron     *cron.Cron
	listings ListingSource
	spec     string
}

// New constructs a Scheduler with the given cron spec (standard five-field
// syntax, e.g. "0 6 * * *"). The gauge is registered on first construction;
// re-registration (tests build several schedulers) is tolerated.
func New(listings ListingSource, spec string) *Scheduler {
	if err := prometheus.Register(runningShows); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			log.Printf("scheduler: gauge registration failed: %v", err)
		}
	}
	return &Scheduler{
		cron:     cron.New(),
		listings: listings,
		spec:     spec,
	}
}

// Start schedules the daily job and starts the cron loop. The count also
// runs once immediately so the gauge is populated right after boot instead
// of staying empty until the first tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.countRunning); err != nil {
		return err
	}
	s.cron.Start()
	go s.countRunning()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// countRunning is the job body: fetch today's overlapping listings, refine
// through the availability predicate and record the per-category totals.
func (s *Scheduler) countRunning() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	day := today.Format(availability.DateLayout)

	rows, err := s.listings.ListActiveBetween(ctx, day, day, "")
	if err != nil {
		log.Printf("scheduler: running-show count failed: %v", err)
		return
	}
	counts := availability.CountByCategory(rows, today)
	total := 0
	for cat, n := range counts {
		runningShows.WithLabelValues(string(cat)).Set(float64(n))
		total += n
	}
	log.Printf("scheduler: %s running shows total=%d west_end=%d off_west_end=%d drama_school=%d",
		day, total,
		counts[model.CategoryWestEnd], counts[model.CategoryOffWestEnd], counts[model.CategoryDramaSchool])
}
