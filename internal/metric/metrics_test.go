package metric

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSensor(t *testing.T) {
	m := New()

	m.ObserveSensor("temp1", 25, true)
	m.ObserveSensor("temp2", 0, false)
	m.ObserveSensor("temp2", 0, false)

	assert.Equal(t, 25.0, testutil.ToFloat64(m.SensorTemperature.WithLabelValues("temp1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SensorUp.WithLabelValues("temp1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SensorUp.WithLabelValues("temp2")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SensorExhausted.WithLabelValues("temp2")))
}

func TestObserveAttemptAndCycle(t *testing.T) {
	m := New()

	m.ObserveAttempt("temp1", "timeout")
	m.ObserveAttempt("temp1", "timeout")
	m.ObserveAttempt("temp1", "ok")
	m.ObserveCycle(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BusTransactions.WithLabelValues("temp1", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusTransactions.WithLabelValues("temp1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollCycles))
}

func TestObserveIndicator(t *testing.T) {
	m := New()

	m.ObserveIndicator("poll", true, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndicatorLevel))

	m.ObserveIndicator("command", false, errors.New("pin busy"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndicatorLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndicatorWrites.WithLabelValues("command", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt("temp1", "ok")
	m.ObserveSensor("temp1", 1, true)
	m.ObserveCycle(time.Second)
	m.ObserveIndicator("poll", true, nil)
	m.ObserveWriterError("nats")
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCycle(time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "thermo_poll_cycles_total"))
}
