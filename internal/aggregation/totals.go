// Package aggregation implements the multi-tier read cache for
// per-campaign donation totals (spec.md §4.4, Subsystem D): a short-TTL
// hot cache in front of a pre-aggregated snapshot, falling back to an
// authoritative recount, with event-driven invalidation from the payment
// pipeline.
//
// Grounded on the teacher's Masterminds/squirrel-built aggregation
// queries (components/transaction balance-recalculation style) and its
// common/mredis hot-cache wrapper.
package aggregation

import (
	"time"
)

// Source identifies which tier answered a Totals lookup.
type Source string

const (
	SourceHot           Source = "hot"
	SourceSnapshot      Source = "snapshot"
	SourceAuthoritative Source = "authoritative"
)

// DefaultHotTTL is the T1 TTL spec.md §4.4 prescribes ("C_TTL = 30s").
const DefaultHotTTL = 30 * time.Second

// Totals is the per-campaign aggregate spec.md §4.4's Contract describes.
type Totals struct {
	CampaignRef  string    `json:"campaign_ref"`
	Count        int64     `json:"count"`
	Sum          string    `json:"sum"`
	UniqueDonors int64     `json:"unique_donors"`
	LastUpdated  time.Time `json:"last_updated"`
	Source       Source    `json:"source"`
	SnapshotAge  *float64  `json:"snapshot_age_seconds,omitempty"`
}

// HotKey returns the T1 cache key for campaignRef (spec.md §4.4: key
// `"campaign_totals:<ref>"`).
func HotKey(campaignRef string) string {
	return "campaign_totals:" + campaignRef
}
