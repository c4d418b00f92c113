package bookingapi

import (
	"encoding/json"
	"math"
	"strings"
)

// PaymentStatus values understood by the booking backend.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// CreateRequest is the wire payload for booking creation. Prices cross the
// wire in dollars; everything internal is cents.
type CreateRequest struct {
	ClientName      string  `json:"client_name"`
	ClientEmail     string  `json:"client_email"`
	ClientPhone     string  `json:"client_phone"`
	ServiceType     string  `json:"service_type"`
	ScheduledDate   string  `json:"scheduled_date"`
	ScheduledTime   string  `json:"scheduled_time"`
	PaymentMethod   string  `json:"payment_method"`
	PaymentStatus   string  `json:"payment_status"`
	TotalPrice      float64 `json:"total_price"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// UpdatePaymentRequest adjusts the payment details of an existing booking.
type UpdatePaymentRequest struct {
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	TipAmount     float64 `json:"tip_amount"`
	TotalPrice    float64 `json:"total_price"`
}

// Booking is the backend's view of a created or updated booking.
type Booking struct {
	ID                 string  `json:"id"`
	ConfirmationNumber string  `json:"confirmation_number"`
	Practitioner       string  `json:"practitioner"`
	ClientName         string  `json:"client_name"`
	ClientEmail        string  `json:"client_email"`
	ClientPhone        string  `json:"client_phone"`
	ServiceType        string  `json:"service_type"`
	ScheduledDate      string  `json:"scheduled_date"`
	ScheduledTime      string  `json:"scheduled_time"`
	PaymentMethod      string  `json:"payment_method"`
	PaymentStatus      string  `json:"payment_status"`
	TotalPrice         float64 `json:"total_price"`
	TipAmount          float64 `json:"tip_amount"`
}

// TotalPriceCents is the booking's total in internal cents.
func (b *Booking) TotalPriceCents() int64 {
	return DollarsToCents(b.TotalPrice)
}

// TipAmountCents is the booking's tip in internal cents.
func (b *Booking) TipAmountCents() int64 {
	return DollarsToCents(b.TipAmount)
}

// UnmarshalJSON tolerates numeric booking ids from older backend versions.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type alias Booking
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Booking(raw.alias)
	id := strings.Trim(string(raw.ID), `"`)
	if id == "null" {
		id = ""
	}
	b.ID = id
	return nil
}

type createResponse struct {
	Success bool     `json:"success"`
	Booking *Booking `json:"booking"`
	Error   string   `json:"error"`
}

// DeleteResult is the per-item outcome of a batch deletion.
type DeleteResult struct {
	ID  string
	Err error
}

// CentsToDollars converts an internal cent amount to the backend's dollar
// representation.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

// DollarsToCents converts a backend dollar amount to internal cents.
func DollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
