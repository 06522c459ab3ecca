package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegisterOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("booking", "api", reg)

	m.WizardTransitions.WithLabelValues("date_time", "patient_info").Inc()
	m.BookingsFinalized.WithLabelValues("video").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WizardTransitions.WithLabelValues("date_time", "patient_info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsFinalized.WithLabelValues("video")))

	// a second set on another registry must not panic
	assert.NotPanics(t, func() { NewNop() })
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "success", Status(nil))
	assert.Equal(t, "error", Status(errors.New("x")))
}
