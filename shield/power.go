package shield

import (
	"go.bug.st/serial"
)

// PowerPins drives the module's power control line and senses its power
// state indication.
//
// The SARA PWR_ON input is active low: asserting the control line pulls it
// to its active level, releasing it leaves the line alone. Implementations
// map the two signals onto whatever wiring the carrier board provides.
type PowerPins interface {
	// SetPower drives the power control line. Asserted means active.
	SetPower(assert bool) error

	// PowerIndication senses whether the module reports itself powered.
	PowerIndication() (bool, error)
}

// SerialPins maps the power signals onto the control lines of the serial
// port the module is attached to: DTR drives PWR_ON and DSR senses V_INT.
// This is the usual arrangement on SARA carrier boards that break the
// signals out through the UART bridge.
type SerialPins struct {
	port serial.Port
}

func NewSerialPins(port serial.Port) *SerialPins {
	return &SerialPins{port: port}
}

func (p *SerialPins) SetPower(assert bool) error {
	return p.port.SetDTR(assert)
}

func (p *SerialPins) PowerIndication() (bool, error) {
	bits, err := p.port.GetModemStatusBits()
	if err != nil {
		return false, err
	}
	return bits.DSR, nil
}

// NoPins is the PowerPins implementation for boards where the power signals
// are not wired. Power control is a no-op and the module always reports
// itself powered, so bring-up proceeds straight to configuration.
type NoPins struct{}

func (NoPins) SetPower(bool) error { return nil }

func (NoPins) PowerIndication() (bool, error) { return true, nil }

var (
	_ PowerPins = (*SerialPins)(nil)
	_ PowerPins = NoPins{}
)
