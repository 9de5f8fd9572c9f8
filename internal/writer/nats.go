// internal/writer/nats.go
package writer

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSTarget publishes every cycle document to one subject.
// Fire-and-forget: core NATS publish, no JetStream persistence.
type NATSTarget struct {
	nc      *nats.Conn
	subject string
}

type NATSConfig struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// NewNATSTarget connects to the server. A failed connect at startup is fatal
// for the caller; later disconnects are handled by the client's reconnect loop.
func NewNATSTarget(cfg NATSConfig) (*NATSTarget, error) {
	if cfg.URL == "" {
		return nil, errors.New("writer nats: url required")
	}
	if cfg.Subject == "" {
		return nil, errors.New("writer nats: subject required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("modbus-thermo"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("writer nats: connect %s: %w", cfg.URL, err)
	}

	return &NATSTarget{nc: nc, subject: cfg.Subject}, nil
}

func (t *NATSTarget) Name() string { return "nats" }

func (t *NATSTarget) Deliver(payload []byte) error {
	if !t.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return t.nc.Publish(t.subject, payload)
}

// Close flushes pending messages and closes the connection.
func (t *NATSTarget) Close() error {
	if t == nil || t.nc == nil {
		return nil
	}
	return t.nc.Drain()
}
