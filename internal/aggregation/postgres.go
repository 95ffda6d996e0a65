package aggregation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bxcodec/dbresolver/v2"
)

// PostgresSnapshotStore is the T2Store implementation: a materialized
// snapshot table keyed uniquely on campaign_ref (spec.md §4.4 T2).
type PostgresSnapshotStore struct {
	db dbresolver.DB
}

// NewPostgresSnapshotStore builds a T2Store against db.
func NewPostgresSnapshotStore(db dbresolver.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) Get(ctx context.Context, campaignRef string) (*Totals, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT campaign_ref, count, sum, unique_donors, last_updated
		FROM campaign_totals_snapshot WHERE campaign_ref = $1`, campaignRef)

	var t Totals

	err := row.Scan(&t.CampaignRef, &t.Count, &t.Sum, &t.UniqueDonors, &t.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return &t, true, nil
}

// Upsert writes or refreshes the snapshot row for totals.CampaignRef
// (spec.md §4.4: "refreshable concurrently").
func (s *PostgresSnapshotStore) Upsert(ctx context.Context, totals *Totals) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_totals_snapshot (campaign_ref, count, sum, unique_donors, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_ref) DO UPDATE SET
			count = EXCLUDED.count, sum = EXCLUDED.sum, unique_donors = EXCLUDED.unique_donors,
			last_updated = EXCLUDED.last_updated`,
		totals.CampaignRef, totals.Count, totals.Sum, totals.UniqueDonors, totals.LastUpdated)

	return err
}

// CampaignRefs lists every campaign with at least one COMPLETED pledge,
// the refresh scope for the scheduled T2 refresher.
func (s *PostgresSnapshotStore) CampaignRefs(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("DISTINCT campaign_ref").
		From("pledges").
		Where(sq.Eq{"status": "COMPLETED"}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}

		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// PostgresRecounter is the T3Recounter implementation: a direct
// aggregation query over the pledge table, squirrel-built per the
// teacher's query-construction style.
type PostgresRecounter struct {
	db dbresolver.DB
}

// NewPostgresRecounter builds a T3Recounter against db.
func NewPostgresRecounter(db dbresolver.DB) *PostgresRecounter {
	return &PostgresRecounter{db: db}
}

// PostgresPledgeResolver implements PledgeCampaignResolver by looking up
// the pledge's campaign_ref directly in the pledges table.
type PostgresPledgeResolver struct {
	db dbresolver.DB
}

// NewPostgresPledgeResolver builds a PledgeCampaignResolver against db.
func NewPostgresPledgeResolver(db dbresolver.DB) *PostgresPledgeResolver {
	return &PostgresPledgeResolver{db: db}
}

func (r *PostgresPledgeResolver) CampaignRefForPledge(ctx context.Context, pledgeRef string) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT campaign_ref FROM pledges WHERE id = $1`, pledgeRef)

	var campaignRef string
	if err := row.Scan(&campaignRef); err != nil {
		return "", err
	}

	return campaignRef, nil
}

func (r *PostgresRecounter) Recount(ctx context.Context, campaignRef string) (*Totals, error) {
	query, args, err := sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(amount), 0)",
		"COUNT(DISTINCT donor_contact)",
	).
		From("pledges").
		Where(sq.Eq{"campaign_ref": campaignRef, "status": "COMPLETED"}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	var t Totals
	t.CampaignRef = campaignRef
	t.LastUpdated = time.Now().UTC()

	if err := row.Scan(&t.Count, &t.Sum, &t.UniqueDonors); err != nil {
		return nil, err
	}

	return &t, nil
}
