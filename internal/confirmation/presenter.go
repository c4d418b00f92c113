// Package confirmation renders the terminal success view of a booking.
// Everything here is a pure function of data already in hand: once a
// confirmation exists, displaying it must never depend on another network
// call succeeding.
package confirmation

import "fmt"

// BookingConfirmation is the terminal success record carried into the
// thank-you presentation. It is built once from the create/capture result
// and never re-fetched.
type BookingConfirmation struct {
	Service            string `json:"service"`
	ScheduledDate      string `json:"scheduled_date"`
	ScheduledTime      string `json:"scheduled_time"`
	Practitioner       string `json:"practitioner"`
	ConfirmationNumber string `json:"confirmation_number"`
	TotalAmountCents   int64  `json:"total_amount_cents"`
}

// View is the presentation-ready form of a confirmation.
type View struct {
	Service            string `json:"service"`
	When               string `json:"when"`
	Practitioner       string `json:"practitioner"`
	ConfirmationNumber string `json:"confirmation_number"`
	TotalDisplay       string `json:"total_display"`
}

// Render produces the display view. Fields pass through exactly as
// provided; only the total is formatted.
func Render(c BookingConfirmation) View {
	return View{
		Service:            c.Service,
		When:               c.ScheduledDate + " " + c.ScheduledTime,
		Practitioner:       c.Practitioner,
		ConfirmationNumber: c.ConfirmationNumber,
		TotalDisplay:       FormatCents(c.TotalAmountCents),
	}
}

// FormatCents renders a cent amount as a dollar string, e.g. 13550 -> "$135.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
