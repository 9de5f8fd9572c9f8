// internal/poller/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
)

// Function codes supported for single-register reads.
const (
	FCHoldingRegisters uint8 = 3
	FCInputRegisters   uint8 = 4
)

// Client is the one shared bus transport.
// It serializes transactions because it mutates SlaveId per request:
// exactly one request/response exchange is on the wire at a time.
type Client struct {
	mu          sync.Mutex
	closer      io.Closer
	client      modbus.Client
	selectSlave func(id uint8)
}

// Config is the bus binding. It is fixed for the lifetime of the process.
type Config struct {
	Transport string // "rtu" or "tcp"

	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	RS485    bool

	Endpoint string

	Timeout time.Duration
}

// New opens the bus. Failure here is an initialization failure.
func New(cfg Config) (*Client, error) {
	switch cfg.Transport {
	case "", "rtu":
		if cfg.Device == "" {
			return nil, errors.New("bus modbus: device required")
		}

		h := modbus.NewRTUClientHandler(cfg.Device)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout
		if cfg.RS485 {
			h.RS485 = serial.RS485Config{
				Enabled:           true,
				RtsHighDuringSend: true,
			}
		}

		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("bus modbus: open %s: %w", cfg.Device, err)
		}
		return &Client{
			closer:      h,
			client:      modbus.NewClient(h),
			selectSlave: func(id uint8) { h.SlaveId = id },
		}, nil

	case "tcp":
		if cfg.Endpoint == "" {
			return nil, errors.New("bus modbus: endpoint required")
		}

		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout

		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("bus modbus: connect %s: %w", cfg.Endpoint, err)
		}
		return &Client{
			closer:      h,
			client:      modbus.NewClient(h),
			selectSlave: func(id uint8) { h.SlaveId = id },
		}, nil

	default:
		return nil, fmt.Errorf("bus modbus: unsupported transport %q", cfg.Transport)
	}
}

// Close releases the serial port or TCP connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closer.Close()
}

// ReadRegister performs one single-register read transaction.
// No retries here; the caller owns the retry policy.
func (c *Client) ReadRegister(slave, fc uint8, addr uint16) (uint16, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("bus modbus: not connected")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectSlave(slave)

	var (
		data []byte
		err  error
	)
	switch fc {
	case FCHoldingRegisters:
		data, err = c.client.ReadHoldingRegisters(addr, 1)
	case FCInputRegisters:
		data, err = c.client.ReadInputRegisters(addr, 1)
	default:
		return 0, fmt.Errorf("bus modbus: unsupported function code %d", fc)
	}
	if err != nil {
		return 0, err
	}

	return decodeRegister(data)
}

// ErrorClass buckets a transaction error for metrics and logs.
func ErrorClass(err error) string {
	if err == nil {
		return "ok"
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return "exception"
	}

	if errors.Is(err, serial.ErrTimeout) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	return "bus"
}

// ---- helpers (pure geometry) ----

// decodeRegister unpacks one big-endian register.
func decodeRegister(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("bus modbus: short register payload (%d bytes)", len(data))
	}
	return binary.BigEndian.Uint16(data[:2]), nil
}
