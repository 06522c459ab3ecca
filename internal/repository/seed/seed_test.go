package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
)

func TestBundledDirectory(t *testing.T) {
	doctors, err := Doctors()
	require.NoError(t, err)
	require.Len(t, doctors, 6)

	sarah := doctors[0]
	assert.Equal(t, "Dr. Sarah Johnson", sarah.Name)
	assert.Equal(t, model.SpecialtyCardiology, sarah.Specialty)
	assert.Equal(t, 150.0, sarah.ConsultationFee)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, sarah.Availability.Days())

	friday, ok := sarah.Availability.Times("Friday")
	assert.True(t, ok)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, friday)

	emily := doctors[2]
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, emily.Availability.Days())
}

func TestDecodeRejectsDuplicateIDs(t *testing.T) {
	_, err := Decode([]byte(`[{"id":"1","availability":{}},{"id":"1","availability":{}}]`))
	assert.ErrorContains(t, err, "duplicate doctor id")
}
