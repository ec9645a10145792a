package app

import "fmt"

const (
	greetingMessage       = "Hi! I'm here to help with your order. To get started, what's the email address you used at checkout?"
	lookupNotFoundReason  = "no orders found"
	lookupErrorReason     = "order system unavailable"
	pickItemsMessage      = "Which items are you having trouble with?"
	emissionFailedMessage = "Sorry, something went wrong while saving your request. Your choice has been kept, please try again in a moment."
)

func foundOrdersMessage(n int) string {
	if n == 1 {
		return "Thanks! I found your order. Is this the one you need help with?"
	}
	return fmt.Sprintf("Thanks! I found %d orders. Which one do you need help with?", n)
}

func outsideGuaranteeMessage(days, window int) string {
	return fmt.Sprintf("This order was placed %d days ago, which is outside our %d-day guarantee. "+
		"I can still pass your request to our team so someone can take a look.", days, window)
}

func caseReferenceMessage(caseID string) string {
	return fmt.Sprintf("Your reference number is %s.", caseID)
}
