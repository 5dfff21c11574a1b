package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveInference(OutcomeSuccess, 200*time.Millisecond)
	m.ObserveInference(OutcomeError, time.Second)
	m.ObserveInference(OutcomeError, time.Second)
	m.UploadRejected("not_image")
	m.CleaningTransition("completed")
	m.SetSessions(3)

	require.Equal(t, 1.0, testutil.ToFloat64(m.InferenceRequests.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.InferenceRequests.WithLabelValues(OutcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.UploadsRejected.WithLabelValues("not_image")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CleaningTransitions.WithLabelValues("completed")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.Sessions))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveInference(OutcomeSuccess, time.Second)
		m.UploadRejected("x")
		m.CleaningTransition("idle")
		m.SetSessions(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.UploadRejected("too_large")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `dronebot_uploads_rejected_total{reason="too_large"} 1`)
}
