package ladder

import (
	"fmt"

	"github.com/example/resolvd/internal/core/policy"
)

// OfferMessage is the conversational copy for a presented offer.
func OfferMessage(lt policy.LadderType, o Offer) string {
	switch {
	case o.IncludesReship:
		return fmt.Sprintf("We'll reship your items right away and refund %d%% (%s) for the trouble. Would that work for you?",
			o.Percentage, o.Amount.Display())
	case lt == policy.LadderSubscription:
		return fmt.Sprintf("We'd love to keep you. How about %d%% off your subscription (%s)?",
			o.Percentage, o.Amount.Display())
	case o.Percentage >= 100:
		return fmt.Sprintf("We can give you a full refund of %s. Would you like to accept?", o.Amount.Display())
	case o.Step == 0:
		return fmt.Sprintf("I'm sorry to hear that. We can offer you a %d%% refund (%s) and you keep the items. Would that work?",
			o.Percentage, o.Amount.Display())
	default:
		return fmt.Sprintf("I understand. Let me do better: a %d%% refund (%s). Would you accept that?",
			o.Percentage, o.Amount.Display())
	}
}

// AcceptedMessage confirms an accepted offer.
func AcceptedMessage(o Outcome) string {
	if o.RefundAmount == nil {
		return "Thank you! Your request has been recorded."
	}
	return fmt.Sprintf("Thank you! We've recorded your %d%% resolution (%s). You'll receive a confirmation email shortly.",
		o.RefundPercentage, o.RefundAmount.Display())
}

// EscalationMessage tells the customer a person will take over.
func EscalationMessage() string {
	return "I understand. Let me connect you with someone from our team who will review your case and get back to you."
}

// ItemsUpdatedMessage acknowledges an item selection with no ladder running.
func ItemsUpdatedMessage(count int) string {
	if count == 1 {
		return "Got it, 1 item selected. What seems to be the problem?"
	}
	return fmt.Sprintf("Got it, %d items selected. What seems to be the problem?", count)
}
