package ladder

import (
	"testing"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/policy"
)

func TestDeriveResolutionType(t *testing.T) {
	tests := []struct {
		name   string
		ladder policy.LadderType
		rung   policy.Rung
		want   casefile.ResolutionType
	}{
		{"reship dominates", policy.LadderShipping, policy.Rung{Percentage: 20, IncludesReship: true}, casefile.ResolutionPartialRefundReship},
		{"reship dominates full", policy.LadderRefund, policy.Rung{Percentage: 100, IncludesReship: true}, casefile.ResolutionPartialRefundReship},
		{"reship dominates subscription", policy.LadderSubscription, policy.Rung{Percentage: 10, IncludesReship: true}, casefile.ResolutionPartialRefundReship},
		{"full refund", policy.LadderRefund, policy.Rung{Percentage: 100}, casefile.ResolutionFullRefund},
		{"full refund on subscription", policy.LadderSubscription, policy.Rung{Percentage: 100}, casefile.ResolutionFullRefund},
		{"subscription discount", policy.LadderSubscription, policy.Rung{Percentage: 15}, casefile.ResolutionSubscriptionDiscount},
		{"partial refund", policy.LadderRefund, policy.Rung{Percentage: 40}, casefile.ResolutionPartialRefund},
		{"shipping without reship", policy.LadderShipping, policy.Rung{Percentage: 30}, casefile.ResolutionPartialRefund},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveResolutionType(tt.ladder, tt.rung)
			if got != tt.want {
				t.Errorf("DeriveResolutionType() = %s, want %s", got, tt.want)
			}
			if again := DeriveResolutionType(tt.ladder, tt.rung); again != got {
				t.Errorf("not deterministic: %s then %s", got, again)
			}
		})
	}
}
