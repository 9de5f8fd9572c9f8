// internal/writer/writer.go
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-thermo/internal/metric"
	"github.com/tamzrod/modbus-thermo/internal/poller"
	"github.com/tamzrod/modbus-thermo/internal/status"
)

type writerImpl struct {
	targets []Target
	metrics *metric.Metrics
}

// New builds a fan-out writer. With no targets Write is a no-op.
func New(targets []Target, m *metric.Metrics) Writer {
	return &writerImpl{
		targets: targets,
		metrics: m,
	}
}

func (w *writerImpl) Write(res poller.CycleResult) error {
	if len(w.targets) == 0 {
		return nil
	}

	payload, err := json.Marshal(Document(res))
	if err != nil {
		return fmt.Errorf("writer: encode cycle %d: %w", res.Cycle, err)
	}

	var errs []string
	for _, t := range w.targets {
		if err := t.Deliver(payload); err != nil {
			w.metrics.ObserveWriterError(t.Name())
			errs = append(errs, fmt.Sprintf(
				"writer: target=%s cycle=%d err=%v",
				t.Name(), res.Cycle, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// Document converts a cycle result into the flat external document.
func Document(res poller.CycleResult) status.Document {
	doc := make(status.Document, len(res.Sensors))
	for i, s := range res.Sensors {
		doc[i] = status.Entry{
			Key:    s.Key,
			Value:  s.Reading.Value,
			Health: s.Reading.Health,
		}
	}
	return doc
}
