package confirmation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	view := Render(BookingConfirmation{
		Service:            "90 Minute Massage",
		ScheduledDate:      "2026-09-14",
		ScheduledTime:      "14:00",
		Practitioner:       "Dana",
		ConfirmationNumber: "SER-2026-101",
		TotalAmountCents:   14000,
	})

	assert.Equal(t, "90 Minute Massage", view.Service)
	assert.Equal(t, "2026-09-14 14:00", view.When)
	assert.Equal(t, "Dana", view.Practitioner)
	assert.Equal(t, "SER-2026-101", view.ConfirmationNumber)
	assert.Equal(t, "$140.00", view.TotalDisplay)
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{9500, "$95.00"},
		{13550, "$135.50"},
		{-500, "-$5.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCents(tt.cents), "cents=%d", tt.cents)
	}
}
