package aggregation

import (
	"context"
	"time"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// T1Cache is the hot cache tier.
type T1Cache interface {
	Get(ctx context.Context, campaignRef string) (*Totals, bool, error)
	Set(ctx context.Context, totals *Totals, ttl time.Duration) error
	Del(ctx context.Context, campaignRef string) error
}

// T2Store is the pre-aggregated snapshot tier.
type T2Store interface {
	Get(ctx context.Context, campaignRef string) (*Totals, bool, error)
	Upsert(ctx context.Context, totals *Totals) error
	CampaignRefs(ctx context.Context) ([]string, error)
}

// T3Recounter is the authoritative direct-aggregation tier.
type T3Recounter interface {
	Recount(ctx context.Context, campaignRef string) (*Totals, error)
}

// Reader implements the three-tier read path of spec.md §4.4.
type Reader struct {
	T1     T1Cache
	T2     T2Store
	T3     T3Recounter
	HotTTL time.Duration
	Logger mlog.Logger
}

// NewReader builds a Reader with the default 30s hot TTL.
func NewReader(t1 T1Cache, t2 T2Store, t3 T3Recounter, logger mlog.Logger) *Reader {
	return &Reader{T1: t1, T2: t2, T3: t3, HotTTL: DefaultHotTTL, Logger: logger}
}

// Totals answers a totals lookup. realtime bypasses T1 and T2, always
// hitting T3 (spec.md §4.4 "Real-time mode skips T1 and T2").
func (r *Reader) Totals(ctx context.Context, campaignRef string, realtime bool) (*Totals, error) {
	if !realtime {
		if totals, ok, err := r.T1.Get(ctx, campaignRef); err != nil {
			return nil, err
		} else if ok {
			totals.Source = SourceHot
			return totals, nil
		}

		if totals, ok, err := r.T2.Get(ctx, campaignRef); err != nil {
			return nil, err
		} else if ok {
			totals.Source = SourceSnapshot

			age := time.Since(totals.LastUpdated).Seconds()
			totals.SnapshotAge = &age

			// T1 is never authoritative (spec.md §5); a failure to warm it
			// here must not fail a request that already has a valid answer
			// from T2 (spec.md §7, "cache failures tolerated only on the
			// read path — degrade to next tier").
			if err := r.T1.Set(ctx, totals, r.hotTTL()); err != nil {
				r.Logger.Errorf("aggregation reader: warming T1 for %s failed: %v", campaignRef, err)
			}

			return totals, nil
		}
	}

	totals, err := r.T3.Recount(ctx, campaignRef)
	if err != nil {
		return nil, err
	}

	totals.Source = SourceAuthoritative

	if !realtime {
		if err := r.T1.Set(ctx, totals, r.hotTTL()); err != nil {
			r.Logger.Errorf("aggregation reader: warming T1 for %s failed: %v", campaignRef, err)
		}
	}

	return totals, nil
}

func (r *Reader) hotTTL() time.Duration {
	if r.HotTTL <= 0 {
		return DefaultHotTTL
	}

	return r.HotTTL
}
