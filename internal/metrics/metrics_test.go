package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordRegistration(ResultOK)
	m.RecordRegistration(ResultOK)
	m.RecordRegistration("invalid")
	m.RecordDelivery("smtp", nil)
	m.RecordDelivery("brevo", errors.New("HTTP 401"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations().WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations().WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries().WithLabelValues("smtp", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries().WithLabelValues("brevo", ResultError)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRegistration(ResultOK)
		m.RecordDelivery("smtp", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordDelivery("smtp", nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `webinar_email_deliveries_total{backend="smtp",result="ok"} 1`)
}
