package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/metric"
	"github.com/tamzrod/modbus-thermo/internal/poller"
	"github.com/tamzrod/modbus-thermo/internal/status"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

type fixture struct {
	store   *store.Store
	pin     *indicator.MemoryPin
	ind     *indicator.Indicator
	handler http.Handler
}

func newFixture(t *testing.T, o Options) *fixture {
	t.Helper()

	sensors := []poller.Sensor{
		{Key: "temp1", SlaveID: 1},
		{Key: "temp2", SlaveID: 2},
		{Key: "temp3", SlaveID: 3},
	}
	st, err := store.New(poller.Keys(sensors))
	require.NoError(t, err)

	pin := indicator.NewMemoryPin()
	ind, err := indicator.New(pin, nil, nil)
	require.NoError(t, err)

	o.Store = st
	o.Output = ind
	o.Sensors = sensors
	srv, err := New(o)
	require.NoError(t, err)

	return &fixture{store: st, pin: pin, ind: ind, handler: srv.Handler()}
}

func (f *fixture) do(method, target string, body url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestTemperature_FlatDocument(t *testing.T) {
	f := newFixture(t, Options{})
	now := time.Now()
	require.NoError(t, f.store.Set(0, store.Measured(25), now))
	require.NoError(t, f.store.Set(1, store.Measured(18), now))
	require.NoError(t, f.store.Set(2, store.Failed(), now))

	rec := f.do(http.MethodGet, "/temperature", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"temp1":25.0,"temp2":18.0,"temp3":-1.0}`, rec.Body.String())
}

func TestTemperature_BeforeFirstCycle(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/temperature", nil)
	assert.Equal(t, `{"temp1":-1.0,"temp2":-1.0,"temp3":-1.0}`, rec.Body.String())
}

func TestTemperature_Idempotent(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Set(1, store.Measured(20.5), time.Now()))

	first := f.do(http.MethodGet, "/temperature", nil).Body.String()
	second := f.do(http.MethodGet, "/temperature", nil).Body.String()
	assert.Equal(t, first, second)
}

func TestToggleLED_MissingState(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/toggle-led", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing 'state' parameter")
	assert.Equal(t, []bool{false}, f.pin.Writes(), "core must not be touched")
}

func TestToggleLED_InvalidState(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/toggle-led?state=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, f.pin.Level())
}

func TestToggleLED_OnAndOff(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/toggle-led?state=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LED turned ON", rec.Body.String())
	assert.True(t, f.pin.Level())
	on, src := f.ind.State()
	assert.True(t, on)
	assert.Equal(t, indicator.SourceCommand, src)

	rec = f.do(http.MethodPost, "/toggle-led", url.Values{"state": {"off"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LED turned OFF", rec.Body.String())
	assert.False(t, f.pin.Level())
}

func TestToggleLED_RateLimited(t *testing.T) {
	f := newFixture(t, Options{CommandRate: 0.001, CommandBurst: 1})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/toggle-led?state=1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/toggle-led?state=0", nil).Code)
	assert.True(t, f.pin.Level())
}

func TestToggleLED_OutputFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.pin.FailWith(errors.New("gpio busy"))

	rec := f.do(http.MethodGet, "/toggle-led?state=1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSensors_Detail(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Set(0, store.Measured(21.4), time.Now()))
	require.NoError(t, f.store.Set(1, store.Failed(), time.Now()))
	f.store.CompleteCycle()
	require.NoError(t, f.ind.Set(true, indicator.SourcePoll))

	rec := f.do(http.MethodGet, "/api/sensors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Cycle     uint64     `json:"cycle"`
		UpdatedAt *time.Time `json:"updated_at"`
		Indicator struct {
			On     bool   `json:"on"`
			Source string `json:"source"`
		} `json:"indicator"`
		Sensors []struct {
			Key     string  `json:"key"`
			SlaveID uint8   `json:"slave_id"`
			Value   float64 `json:"value"`
			Health  string  `json:"health"`
		} `json:"sensors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, uint64(1), got.Cycle)
	assert.NotNil(t, got.UpdatedAt)
	assert.True(t, got.Indicator.On)
	assert.Equal(t, "poll", got.Indicator.Source)
	require.Len(t, got.Sensors, 3)
	assert.Equal(t, "temp1", got.Sensors[0].Key)
	assert.Equal(t, uint8(1), got.Sensors[0].SlaveID)
	assert.Equal(t, 21.4, got.Sensors[0].Value)
	assert.Equal(t, "ok", got.Sensors[0].Health)
	assert.Equal(t, status.Sentinel, got.Sensors[1].Value)
	assert.Equal(t, "error", got.Sensors[1].Health)
	assert.Equal(t, "unknown", got.Sensors[2].Health)
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/healthcheck", nil).Code)

	f.store.CompleteCycle()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthcheck", nil).Code)
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, Options{Metrics: metric.New()})

	rec := f.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "thermo_")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/index.html", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(http.MethodDelete, "/temperature", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/ws", nil).Code, "no hub configured")
}

func TestNew_RequiresAccessors(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestParseState(t *testing.T) {
	for _, v := range []string{"1", "true", "ON", " high "} {
		on, ok := parseState(v)
		assert.True(t, ok, v)
		assert.True(t, on, v)
	}
	for _, v := range []string{"0", "False", "off", "low"} {
		on, ok := parseState(v)
		assert.True(t, ok, v)
		assert.False(t, on, v)
	}
	_, ok := parseState("")
	assert.False(t, ok)
}
