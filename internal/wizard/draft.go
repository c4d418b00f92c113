package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/serenityspa/bookingflow/internal/payments"
)

// Draft accumulates the booking fields collected across wizard steps. It is
// mutable while the wizard is active and cleared on successful confirmation.
type Draft struct {
	ServiceType     string
	ScheduledDate   string
	ScheduledTime   string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	SpecialRequests string
	PaymentMethod   payments.Method
	TipCents        int64
	BasePriceCents  int64
}

// TotalCents is the payment amount: base price plus tip. The tip never
// changes the base service price.
func (d *Draft) TotalCents() int64 {
	return d.BasePriceCents + d.TipCents
}

// FieldError is a single invalid field with its user-facing message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field failures so each can be surfaced next
// to its field. Fields that validated fine keep their entered values.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "wizard: validation failed: " + strings.Join(msgs, "; ")
}

// ByField indexes the failures by field name.
func (e *ValidationError) ByField() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip   = regexp.MustCompile(`[\s\-().]`)
	phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// validEmail reports whether s is a syntactically plausible email address.
func validEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// validPhone reports whether s looks like a phone number after common
// punctuation is stripped.
func validPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.ReplaceAllString(strings.TrimSpace(s), ""))
}

// validateContact checks the contact step's fields, reporting every invalid
// field at once.
func validateContact(name, email, phone string) *ValidationError {
	var fields []FieldError
	if strings.TrimSpace(name) == "" {
		fields = append(fields, FieldError{Field: "client_name", Message: "name is required"})
	}
	if strings.TrimSpace(email) == "" {
		fields = append(fields, FieldError{Field: "client_email", Message: "email is required"})
	} else if !validEmail(email) {
		fields = append(fields, FieldError{Field: "client_email", Message: "email is not valid"})
	}
	if strings.TrimSpace(phone) == "" {
		fields = append(fields, FieldError{Field: "client_phone", Message: "phone is required"})
	} else if !validPhone(phone) {
		fields = append(fields, FieldError{Field: "client_phone", Message: "phone is not valid"})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
