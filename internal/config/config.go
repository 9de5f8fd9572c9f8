// internal/config/config.go
package config

type Config struct {
	Bus       BusConfig       `yaml:"bus"`
	Poll      PollConfig      `yaml:"poll"`
	Sensors   []SensorConfig  `yaml:"sensors"`
	Indicator IndicatorConfig `yaml:"indicator"`
	HTTP      HTTPConfig      `yaml:"http"`
	Publish   PublishConfig   `yaml:"publish"`
	Log       LogConfig       `yaml:"log"`
}

// ---- BUS ----

type BusConfig struct {
	Transport string `yaml:"transport"` // "rtu" (default) or "tcp"

	// rtu
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N, E, O
	StopBits int    `yaml:"stop_bits"`
	RS485    bool   `yaml:"rs485"`

	// tcp (RS-485 gateway)
	Endpoint string `yaml:"endpoint"`

	TimeoutMs int `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs   int `yaml:"interval_ms"`
	MaxAttempts  int `yaml:"max_attempts"`
	RetryDelayMs int `yaml:"retry_delay_ms"`
}

// ---- SENSORS ----

type SensorConfig struct {
	Key      string `yaml:"key"`      // external key, defaults to temp<n>
	SlaveID  uint8  `yaml:"slave_id"` // 1..247
	FC       uint8  `yaml:"fc"`       // 3 (default) or 4
	Register uint16 `yaml:"register"`
	Signed   bool   `yaml:"signed"`
}

// ---- INDICATOR ----

type IndicatorConfig struct {
	Driver    string `yaml:"driver"` // "none" (default) or "gpio"
	Pin       string `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen       string  `yaml:"listen"`
	CommandRate  float64 `yaml:"command_rate"` // tokens per second, 0 = default
	CommandBurst int     `yaml:"command_burst"`
}

// ---- PUBLISH ----

type PublishConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	URL     string `yaml:"url"` // empty disables publishing
	Subject string `yaml:"subject"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
