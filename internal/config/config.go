// internal/config/config.go
package config

type Config struct {
	MDC          MDCConfig           `yaml:"mdc"`
	Displays     []DisplayConfig     `yaml:"displays"`
	Monitoring   MonitoringConfig    `yaml:"monitoring"`
	Server       ServerConfig        `yaml:"server"`
	StatusMemory *StatusMemoryConfig `yaml:"status_memory"`
	Log          LogConfig           `yaml:"log"`
}

// ---- PROTOCOL ----

type MDCConfig struct {
	ConnectTimeoutMs int  `yaml:"connect_timeout_ms"`
	CommandTimeoutMs int  `yaml:"command_timeout_ms"`
	MaxRetries       int  `yaml:"max_retries"`
	RetryDelayMs     *int `yaml:"retry_delay_ms"` // nil means default; 0 retries immediately
}

// ---- DISPLAY ----

type DisplayConfig struct {
	ID   int    `yaml:"id"` // MDC display id, 0-255
	Name string `yaml:"name"`

	// TCP transport
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// RS-232 transport (mutually exclusive with host)
	Serial   string `yaml:"serial"`
	BaudRate int    `yaml:"baud_rate"`

	// Display status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
}

// ---- MONITORING ----

type MonitoringConfig struct {
	IntervalMs int `yaml:"interval_ms"` // 0 disables the periodic sweep
}

// ---- HTTP ----

type ServerConfig struct {
	Listen string `yaml:"listen"` // empty disables the API
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}
