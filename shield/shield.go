// Package shield drives u-blox SARA-R4 LTE modules over their AT command
// interface: powering the module, walking it through configuration to
// network registration, and running command transactions against it.
//
// The driver is synchronous and single-owner. One goroutine calls Start,
// Execute and the query methods; only State is safe to read from other
// goroutines while bring-up is in flight.
package shield

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// Shield is a driver for one LTE module behind a Transport.
type Shield struct {
	transport Transport
	pins      PowerPins
	network   NetworkConfig
	timeout   time.Duration
	tries     int
	timings   Timings
	log       *slog.Logger
	state     atomic.Uint32
	closed    bool
	rbuf      [1]byte
}

// New dials the transport and returns a driver ready for Start. No bytes
// are exchanged with the module yet.
//
// When no PowerPins are configured and the dialed transport is a serial
// port, power control falls back to the port's DTR/DSR lines. Anything
// else defaults to NoPins.
func New(config Config) (*Shield, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial transport: %w", err)
	}

	pins := config.Pins
	if pins == nil {
		if port, ok := transport.(serial.Port); ok {
			pins = NewSerialPins(port)
		} else {
			pins = NoPins{}
		}
	}

	if config.Verbose {
		transport = Trace(transport, config.Logger)
	}

	s := &Shield{
		transport: transport,
		pins:      pins,
		network:   config.Network,
		timeout:   config.Timeout,
		tries:     config.Tries,
		timings:   config.Timings,
		log:       config.Logger,
	}
	s.state.Store(uint32(StateUnpowered))
	return s, nil
}

// State reports how far along bring-up the module is. Unlike the rest of
// the driver it may be called from any goroutine.
func (s *Shield) State() State {
	return State(s.state.Load())
}

func (s *Shield) setState(next State) {
	if State(s.state.Swap(uint32(next))) != next {
		s.log.Info("state change", "state", next.String())
	}
}

// Close shuts down the driver and releases the transport. After Close the
// driver cannot be reused.
func (s *Shield) Close() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	return s.transport.Close()
}
