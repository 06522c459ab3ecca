package booking

import (
	"math"

	"github.com/jwalitptl/booking-api/internal/model"
)

// PlatformFeeCents is added to video consultations.
const PlatformFeeCents int64 = 500

// Total is the amount charged for a consultation of the given type.
func Total(fee float64, t model.AppointmentType) float64 {
	return Fees(fee, t).Total
}

// Fees itemizes the charge for a consultation. Amounts are summed in whole
// cents and converted back to currency units for display.
func Fees(fee float64, t model.AppointmentType) model.FeeBreakdown {
	consultation := toCents(fee)
	var platform int64
	if t == model.AppointmentVideo {
		platform = PlatformFeeCents
	}
	return model.FeeBreakdown{
		ConsultationFee: fromCents(consultation),
		PlatformFee:     fromCents(platform),
		Total:           fromCents(consultation + platform),
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
