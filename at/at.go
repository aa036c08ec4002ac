package at

import "strings"

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prefix = "AT"

	// Lead Markers
	DataMark  = '+' // structured reply ("+CREG: 0,1")
	OKMark    = 'O' // final OK
	ErrorMark = 'E' // final ERROR
)

// Command bodies for u-blox SARA-R4 modules. The driver prepends the
// attention prefix and appends CRLF on the wire.
const (
	EchoOff      = "E0"
	RadioOff     = "+CFUN=0"
	Reboot       = "+CFUN=15"
	TextMode     = "+CMGF=1"
	AutoTimezone = "+CTZU=1"
	AutoOperator = "+COPS=0"

	// GPIO role assignments: network status LED, GNSS supply enable,
	// module status indication.
	GPIONetworkLED   = "+UGPIOC=16,2"
	GPIOGNSSSupply   = "+UGPIOC=23,3"
	GPIOModuleStatus = "+UGPIOC=24,10"

	// Templates completed with fmt.Sprintf.
	SetProfile    = "+UMNOPROF=%d"
	SetPDPContext = "+CGDCONT=%d,%q,%q"

	QueryProfile      = "+UMNOPROF?"
	QueryRegistration = "+CREG?"
	QuerySignal       = "+CSQ"
	QueryOperator     = "+COPS?"
	QueryICCID        = "+CCID"
)

type ResponseType int

const (
	TypeData    ResponseType = iota // structured reply payload follows
	TypeOK                          // command accepted
	TypeError                       // command rejected
	TypeTimeout                     // deadline expired before a lead byte arrived
	TypeUnknown                     // anything else
)

func (t ResponseType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeOK:
		return "ok"
	case TypeError:
		return "error"
	case TypeTimeout:
		return "timeout"
	case TypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Lead classifies c as the first byte of a reply token.
func Lead(c byte) ResponseType {
	switch c {
	case DataMark:
		return TypeData
	case OKMark:
		return TypeOK
	case ErrorMark:
		return TypeError
	default:
		return TypeUnknown
	}
}

// IsGap reports whether c is framing noise between reply tokens.
func IsGap(c byte) bool {
	return c == '\r' || c == '\n' || c == ' '
}

// BaseName cuts cmd at the first '=' or '?', returning the bare command
// name as the module echoes it back in a structured reply.
func BaseName(cmd string) string {
	if i := strings.IndexAny(cmd, "=?"); i >= 0 {
		return cmd[:i]
	}
	return cmd
}
