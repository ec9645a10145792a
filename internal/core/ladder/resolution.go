package ladder

import (
	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/policy"
)

// DeriveResolutionType labels an accepted rung. Rules apply in order:
// a reship rung is always partial_refund_reship, 100% or more is a full
// refund, the subscription ladder yields a discount, anything else is a
// partial refund. Escalation is decided by the caller, not here.
func DeriveResolutionType(lt policy.LadderType, r policy.Rung) casefile.ResolutionType {
	switch {
	case r.IncludesReship:
		return casefile.ResolutionPartialRefundReship
	case r.Percentage >= 100:
		return casefile.ResolutionFullRefund
	case lt == policy.LadderSubscription:
		return casefile.ResolutionSubscriptionDiscount
	default:
		return casefile.ResolutionPartialRefund
	}
}

// OfferAmount is itemsTotal × pct / 100 rounded half-up to the cent.
func OfferAmount(itemsTotal money.Amount, pct int) money.Amount {
	return itemsTotal.Percent(pct)
}

func acceptedOutcome(lt policy.LadderType, r policy.Rung, itemsTotal money.Amount) Outcome {
	amount := OfferAmount(itemsTotal, r.Percentage)
	return Outcome{
		ResolutionType:   DeriveResolutionType(lt, r),
		CaseType:         casefile.CaseTypeFor(lt),
		RefundAmount:     &amount,
		RefundPercentage: r.Percentage,
	}
}

func escalatedOutcome(lt policy.LadderType) Outcome {
	return Outcome{
		ResolutionType: casefile.ResolutionEscalated,
		CaseType:       casefile.CaseTypeFor(lt),
	}
}
