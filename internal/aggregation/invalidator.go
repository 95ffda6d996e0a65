package aggregation

import "context"

// PledgeCampaignResolver resolves the campaign a pledge belongs to, used
// by Invalidator to translate a PaymentStatus.CAPTURED event's
// pledge_ref into the T1 key to evict.
type PledgeCampaignResolver interface {
	CampaignRefForPledge(ctx context.Context, pledgeRef string) (string, error)
}

// Invalidator implements the write-path of spec.md §4.4: on a
// PaymentStatus.CAPTURED event, resolve pledge_ref -> campaign_ref and
// delete the T1 key.
type Invalidator struct {
	T1       T1Cache
	Resolver PledgeCampaignResolver
}

// OnPaymentCaptured evicts the hot cache entry for the campaign the
// given pledge belongs to.
func (inv *Invalidator) OnPaymentCaptured(ctx context.Context, pledgeRef string) error {
	campaignRef, err := inv.Resolver.CampaignRefForPledge(ctx, pledgeRef)
	if err != nil {
		return err
	}

	return inv.T1.Del(ctx, campaignRef)
}
