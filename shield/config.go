package shield

import (
	"log/slog"
	"time"
)

type Config struct {
	Dialer  Dialer
	Pins    PowerPins
	Network NetworkConfig
	Timeout time.Duration // default transaction deadline
	Tries   int           // default transaction attempts
	Verbose bool          // log every byte moved over the wire
	Logger  *slog.Logger
	Timings Timings
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Tries == 0 {
		c.Tries = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Network = c.Network.withDefaults()
	c.Timings.setDefaults()
}

// Timings collects the delays and deadlines of the bring-up sequence. Zero
// values are replaced with defaults suitable for SARA-R4 hardware; tests
// shrink them to keep runs fast.
type Timings struct {
	Settle          time.Duration // pause between write and readback
	CommandGap      time.Duration // pause between setup commands
	PowerPulse      time.Duration // PWR_ON hold time
	PowerTimeout    time.Duration // wait for power indication after a toggle
	PowerPoll       time.Duration
	EchoTimeout     time.Duration // deadline for the echo probe
	ResetTimeout    time.Duration // deadline for the reboot command
	RegisterTimeout time.Duration
	RegisterPoll    time.Duration
}

func (t *Timings) setDefaults() {
	if t.Settle == 0 {
		t.Settle = 20 * time.Millisecond
	}
	if t.CommandGap == 0 {
		t.CommandGap = 100 * time.Millisecond
	}
	if t.PowerPulse == 0 {
		t.PowerPulse = 3200 * time.Millisecond
	}
	if t.PowerTimeout == 0 {
		t.PowerTimeout = 12 * time.Second
	}
	if t.PowerPoll == 0 {
		t.PowerPoll = 100 * time.Millisecond
	}
	if t.EchoTimeout == 0 {
		t.EchoTimeout = time.Second
	}
	if t.ResetTimeout == 0 {
		t.ResetTimeout = 10 * time.Second
	}
	if t.RegisterTimeout == 0 {
		t.RegisterTimeout = 30 * time.Second
	}
	if t.RegisterPoll == 0 {
		t.RegisterPoll = 500 * time.Millisecond
	}
}

// ConfigBuilder assembles a Config step by step. Build validates the result
// and fills in defaults.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithPins(p PowerPins) *ConfigBuilder {
	b.config.Pins = p
	return b
}

func (b *ConfigBuilder) WithNetwork(n NetworkConfig) *ConfigBuilder {
	b.config.Network = n
	return b
}

func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.Timeout = d
	return b
}

func (b *ConfigBuilder) WithTries(n int) *ConfigBuilder {
	b.config.Tries = n
	return b
}

func (b *ConfigBuilder) WithVerbose(v bool) *ConfigBuilder {
	b.config.Verbose = v
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithTimings(t Timings) *ConfigBuilder {
	b.config.Timings = t
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
