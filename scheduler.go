package main

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// OwnerLister enumerates every owner that may have a watchlist.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]Owner, error)
}

// DigestSink receives one owner's enriched watchlist per digest run.
type DigestSink interface {
	Deliver(ctx context.Context, owner Owner, entries []EnrichedWatchlistEntry) error
}

// LogDigestSink writes digests to the process log.
type LogDigestSink struct{}

func (LogDigestSink) Deliver(ctx context.Context, owner Owner, entries []EnrichedWatchlistEntry) error {
	log.Printf("[Digest] %s: %d stocks", owner.Email, len(entries))
	for _, entry := range entries {
		log.Printf("[Digest]   %-6s %-10s %-8s cap %s P/E %s",
			entry.Symbol, entry.PriceFormatted, entry.ChangeFormatted, entry.MarketCap, entry.PERatio)
	}
	return nil
}

// DigestReport counts the outcome of one digest run.
type DigestReport struct {
	Succeeded int
	Failed    int
}

// Scheduler runs the watchlist digest on a cron schedule
type Scheduler struct {
	owners   OwnerLister
	enricher *WatchlistEnricher
	sink     DigestSink
	spec     string
	cron     *cron.Cron
}

// NewScheduler creates a scheduler that evaluates spec in the given timezone
func NewScheduler(owners OwnerLister, enricher *WatchlistEnricher, sink DigestSink, spec, timezone string) (*Scheduler, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timezone %s", timezone)
	}

	if sink == nil {
		sink = LogDigestSink{}
	}

	return &Scheduler{
		owners:   owners,
		enricher: enricher,
		sink:     sink,
		spec:     spec,
		cron:     cron.New(cron.WithLocation(location)),
	}, nil
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Println("[Scheduler] Starting scheduled watchlist digest...")
		s.RunDigest(context.Background())
	})
	if err != nil {
		return errors.Wrapf(err, "invalid digest schedule %q", s.spec)
	}

	s.cron.Start()
	log.Printf("[Scheduler] Scheduler started - watchlist digest runs on %q", s.spec)
	return nil
}

// RunDigest enriches and delivers every owner's watchlist. A failing owner is
// logged and counted; it does not stop the run.
func (s *Scheduler) RunDigest(ctx context.Context) DigestReport {
	var report DigestReport

	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing owners: %v", err)
		return report
	}

	if len(owners) == 0 {
		log.Println("[Scheduler] No owners to digest")
		return report
	}

	log.Printf("[Scheduler] Building digest for %d owners...", len(owners))

	for _, owner := range owners {
		entries, err := s.enricher.EnrichWatchlist(ctx, owner.ID)
		if err != nil {
			log.Printf("[Scheduler] Failed to enrich watchlist of %s: %v", owner.Email, err)
			report.Failed++
			continue
		}

		if err := s.sink.Deliver(ctx, owner, entries); err != nil {
			log.Printf("[Scheduler] Failed to deliver digest to %s: %v", owner.Email, err)
			report.Failed++
			continue
		}

		report.Succeeded++
	}

	log.Printf("[Scheduler] Digest completed: %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	log.Println("[Scheduler] Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Println("[Scheduler] Scheduler stopped")
}
