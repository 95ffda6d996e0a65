package aggregation

import (
	"context"
	"time"

	"github.com/lumenfund/pledgeflow/internal/launcher"
	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Refresher is the scheduled job that refreshes T2 concurrently to bound
// worst-case staleness (spec.md §4.4: "on the order of minutes").
type Refresher struct {
	T2       T2Store
	T3       T3Recounter
	Interval time.Duration
	Logger   mlog.Logger
}

// NewRefresher builds a Refresher with the 5-minute default interval.
func NewRefresher(t2 T2Store, t3 T3Recounter, logger mlog.Logger) *Refresher {
	return &Refresher{T2: t2, T3: t3, Interval: 5 * time.Minute, Logger: logger}
}

// Run implements launcher.App: refresh every campaign's T2 snapshot on
// Interval until the process stops.
func (r *Refresher) Run(l *launcher.Launcher) error {
	ctx := context.Background()

	for {
		if err := r.RefreshAll(ctx); err != nil {
			r.Logger.Errorf("aggregation refresher: refresh cycle failed: %v", err)
		}

		time.Sleep(r.Interval)
	}
}

// RefreshAll recounts and upserts the snapshot for every campaign with at
// least one completed pledge. Each campaign refreshes independently so a
// failure on one does not block the rest.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	refs, err := r.T2.CampaignRefs(ctx)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		totals, err := r.T3.Recount(ctx, ref)
		if err != nil {
			r.Logger.Errorf("aggregation refresher: recount for %s failed: %v", ref, err)
			continue
		}

		if err := r.T2.Upsert(ctx, totals); err != nil {
			r.Logger.Errorf("aggregation refresher: upsert for %s failed: %v", ref, err)
		}
	}

	return nil
}
