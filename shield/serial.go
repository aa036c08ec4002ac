package shield

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialDialer opens an LTE module attached to a local serial port using
// go.bug.st/serial.
type SerialDialer struct {
	// Port is the device path, for example "/dev/ttyUSB0".
	Port string

	// BaudRate defaults to 115200 when zero.
	BaudRate int
}

func (d *SerialDialer) Dial() (Transport, error) {
	baud := d.BaudRate
	if baud == 0 {
		baud = 115200
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(d.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Port, err)
	}
	return port, nil
}

var (
	_ Dialer    = (*SerialDialer)(nil)
	_ Transport = (serial.Port)(nil)
)
