package notification

import (
	"context"

	"github.com/bxcodec/dbresolver/v2"
)

// ContactResolver looks up a pledge's donor contact when an event payload
// carries only a pledge_ref, not the contact itself (spec.md §4.5 step 3:
// the notification consumer needs an address to send to).
type ContactResolver interface {
	DonorContactForPledge(ctx context.Context, pledgeRef string) (string, error)
}

// PostgresContactResolver reads donor_contact directly from the
// donations service's pledges table, the same deliberate cross-service
// read exception internal/aggregation's PostgresPledgeResolver uses:
// replicating the donor's contact into every consumer is more failure
// surface than reading it from the source of truth.
type PostgresContactResolver struct {
	db dbresolver.DB
}

// NewPostgresContactResolver builds a ContactResolver against db, which
// must point at the donations service's database.
func NewPostgresContactResolver(db dbresolver.DB) *PostgresContactResolver {
	return &PostgresContactResolver{db: db}
}

// DonorContactForPledge returns the donor_contact recorded on the pledge.
func (r *PostgresContactResolver) DonorContactForPledge(ctx context.Context, pledgeRef string) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT donor_contact FROM pledges WHERE id = $1`, pledgeRef)

	var contact string
	if err := row.Scan(&contact); err != nil {
		return "", err
	}

	return contact, nil
}
