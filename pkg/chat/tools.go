package chat

import (
	"fmt"
	"strings"
)

// faqLookup answers frequently asked questions from a fixed knowledge
// base. Keyword matching, no model involved.
func faqLookup(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "bag") || strings.Contains(q, "baggage"):
		return "You are allowed to bring one bag on the plane. " +
			"It must be under 50 pounds and 22 inches x 14 inches x 9 inches."
	case strings.Contains(q, "seats") || strings.Contains(q, "plane"):
		return "There are 120 seats on the plane. " +
			"There are 22 business class seats and 98 economy seats. " +
			"Exit rows are rows 4 and 16. " +
			"Rows 5-8 are Economy Plus, with extra legroom."
	case strings.Contains(q, "wifi"):
		return "We have free wifi on the plane, join Airline-Wifi"
	}
	return "I'm sorry, I don't know the answer to that question."
}

// updateSeat records the new seat on the conversation context. The
// flight number must already be set by the seat-booking handoff hook.
func updateSeat(ctx *AirlineContext, confirmationNumber, newSeat string) (string, error) {
	if ctx.FlightNumber == "" {
		return "", fmt.Errorf("flight number is required before updating a seat")
	}
	ctx.ConfirmationNumber = confirmationNumber
	ctx.SeatNumber = newSeat
	return fmt.Sprintf("Updated seat to %s for confirmation number %s", newSeat, confirmationNumber), nil
}
