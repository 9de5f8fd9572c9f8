// internal/status/document.go
package status

import (
	"strconv"
	"time"
)

// Decimal is a temperature rendered with exactly Precision decimal digits.
type Decimal float64

// MarshalJSON renders the value as a JSON number, e.g. 25.0.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', Precision, 64), nil
}

// Entry is one sensor slot as seen by the outside world.
type Entry struct {
	Key    string
	Value  float64
	Health uint16
}

// Reported returns the value that leaves the process.
// Anything but a healthy reading is reported as Sentinel.
func (e Entry) Reported() Decimal {
	if e.Health != HealthOK {
		return Sentinel
	}
	return Decimal(e.Value)
}

// Document is the flat snapshot representation: {"temp1":25.0,...}.
// Keys keep the configured sensor order.
type Document []Entry

// MarshalJSON encodes the document as a flat object in slot order.
// Keys are validated at config time (printable ASCII, no quotes).
func (d Document) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 16*len(d)+2)
	out = append(out, '{')
	for i, e := range d {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendQuote(out, e.Key)
		out = append(out, ':')
		v, _ := e.Reported().MarshalJSON()
		out = append(out, v...)
	}
	out = append(out, '}')
	return out, nil
}

// ---- detailed document ----

// SensorDetail is one sensor in the detailed document.
type SensorDetail struct {
	Key     string  `json:"key"`
	SlaveID uint8   `json:"slave_id"`
	Value   Decimal `json:"value"`
	Health  string  `json:"health"`
}

// IndicatorDetail describes the indicator output.
type IndicatorDetail struct {
	On     bool   `json:"on"`
	Source string `json:"source"`
}

// Detail is the extended view served next to the flat document.
type Detail struct {
	Cycle     uint64          `json:"cycle"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	Indicator IndicatorDetail `json:"indicator"`
	Sensors   []SensorDetail  `json:"sensors"`
}
