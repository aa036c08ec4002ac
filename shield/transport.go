package shield

import (
	"io"
	"time"
)

//go:generate go tool mockgen -destination=mock_shield.go -package=shield github.com/opensensing/lteshield/shield Transport,Dialer,PowerPins

// Transport represents an established, bidirectional byte stream to an LTE
// module.
//
// A Transport is assumed to be already connected and ready for use. It
// provides the low-level I/O primitives required to send AT commands and
// receive responses. go.bug.st/serial.Port satisfies the interface directly;
// tests substitute in-memory fakes.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds subsequent Read calls. When the timeout passes
	// with nothing received, Read returns n == 0 with a nil error. A zero
	// timeout makes Read non-blocking.
	SetReadTimeout(t time.Duration) error

	// Drain blocks until all buffered output has been written to the device.
	Drain() error
}

// Dialer opens a Transport to an LTE module.
//
// Dialer abstracts how the connection is created (for example, via a serial
// port, a TCP bridge, or a test double) and is intended to be used during
// construction only. Once a Transport is obtained, the Dialer is no longer
// needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It returns an error if
	// the transport cannot be established.
	Dial() (Transport, error)
}
