package shield

import (
	"errors"

	"github.com/opensensing/lteshield/at"
)

var (
	// ErrNoDialer is returned when a Shield is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when an operation is attempted on a Shield
	// that has already been closed.
	ErrAlreadyClosed = errors.New("shield already closed")

	// ErrTimeout is returned when a command transaction exhausts its attempts
	// without the module sending anything back before the deadline.
	//
	// During bring-up this usually means the module is still booting. Callers
	// may retry the whole operation once the module has settled.
	ErrTimeout = errors.New("command timed out")

	// ErrDeviceError is returned when the module answers a command with its
	// ERROR final result.
	ErrDeviceError = errors.New("module reported an error")

	// ErrUnexpectedOK is returned when a command expected a structured reply
	// but the module went straight to OK.
	ErrUnexpectedOK = errors.New("reply data missing before OK")

	// ErrUnexpectedData is returned when bytes arrive that fit no known reply
	// shape, or when reply data appears where none was expected.
	//
	// This typically indicates leftover output from an earlier exchange or a
	// framing mismatch.
	ErrUnexpectedData = errors.New("unexpected data in response")

	// ErrInvalidResponse is returned when a structured reply echoes a command
	// name different from the one that was sent.
	ErrInvalidResponse = errors.New("response does not match command")

	// ErrDeviceNotFound is returned by Start when the module never answers the
	// echo probe, even after power cycling.
	ErrDeviceNotFound = errors.New("module not responding")

	// ErrBadNetworkConfig is returned when the carrier profile active on the
	// module differs from the configured one.
	//
	// Start handles this internally by rewriting the network configuration;
	// seeing it escape Start means the rewrite did not take.
	ErrBadNetworkConfig = errors.New("active carrier profile differs from configuration")

	// ErrAutoProfileFailed is returned when the module was asked to select a
	// carrier profile automatically and came back with none.
	ErrAutoProfileFailed = errors.New("automatic carrier profile selection failed")

	// ErrRegistrationFailed is returned when the module does not reach a
	// registered network state before the registration deadline.
	ErrRegistrationFailed = errors.New("network registration timed out")
)

// respError maps a final classification to its transaction error. An OK
// maps to nil.
func respError(t at.ResponseType) error {
	switch t {
	case at.TypeOK:
		return nil
	case at.TypeTimeout:
		return ErrTimeout
	case at.TypeError:
		return ErrDeviceError
	default:
		return ErrUnexpectedData
	}
}
