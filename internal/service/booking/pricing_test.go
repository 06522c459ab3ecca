package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/booking-api/internal/model"
)

func TestTotal(t *testing.T) {
	assert.Equal(t, 150.0, Total(150, model.AppointmentInPerson))
	assert.Equal(t, 155.0, Total(150, model.AppointmentVideo))
	assert.Equal(t, 150.0, Total(150, model.AppointmentPhone))
	assert.Equal(t, 5.0, Total(0, model.AppointmentVideo))
}

func TestFeesBreakdown(t *testing.T) {
	f := Fees(120, model.AppointmentVideo)
	assert.Equal(t, model.FeeBreakdown{ConsultationFee: 120, PlatformFee: 5, Total: 125}, f)

	f = Fees(120, model.AppointmentPhone)
	assert.Zero(t, f.PlatformFee)
	assert.Equal(t, 120.0, f.Total)
}

func TestFeesSumInCents(t *testing.T) {
	f := Fees(0.1, model.AppointmentVideo)
	assert.Equal(t, 5.1, f.Total)

	f = Fees(149.99, model.AppointmentVideo)
	assert.Equal(t, 154.99, f.Total)
	assert.Equal(t, 149.99, f.ConsultationFee)
}
