// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/status"
)

// Temperature serves the flat snapshot document.
func (s *Server) Temperature(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.store.Snapshot().Document())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// ToggleLED drives the indicator from the mandatory "state" parameter.
func (s *Server) ToggleLED(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}

	vals, ok := r.Form["state"]
	if !ok || len(vals) == 0 {
		http.Error(w, "Missing 'state' parameter", http.StatusBadRequest)
		return
	}
	on, ok := parseState(vals[0])
	if !ok {
		http.Error(w, "Invalid 'state' parameter", http.StatusBadRequest)
		return
	}

	if !s.limiter.Allow() {
		http.Error(w, "Too many commands", http.StatusTooManyRequests)
		return
	}

	if err := s.output.Set(on, indicator.SourceCommand); err != nil {
		s.log.Error("indicator command failed", "on", on, "err", err)
		http.Error(w, "LED write failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if on {
		_, _ = w.Write([]byte("LED turned ON"))
	} else {
		_, _ = w.Write([]byte("LED turned OFF"))
	}
}

// Sensors serves the detailed document.
func (s *Server) Sensors(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	on, src := s.output.State()

	d := status.Detail{
		Cycle:     snap.Cycles,
		Indicator: status.IndicatorDetail{On: on, Source: string(src)},
		Sensors:   make([]status.SensorDetail, len(snap.Readings)),
	}
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt.UTC()
		d.UpdatedAt = &at
	}
	for i, e := range snap.Document() {
		sd := status.SensorDetail{
			Key:    e.Key,
			Value:  e.Reported(),
			Health: status.HealthName(e.Health),
		}
		if i < len(s.sensors) {
			sd.SlaveID = s.sensors[i].SlaveID
		}
		d.Sensors[i] = sd
	}

	writeJSON(w, http.StatusOK, d)
}

// HealthCheck reports ready once the first poll cycle has completed.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Cycles == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cycles": snap.Cycles})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// parseState accepts the usual spellings of a binary state.
func parseState(v string) (on bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "high":
		return true, true
	case "0", "false", "off", "low":
		return false, true
	default:
		return false, false
	}
}
