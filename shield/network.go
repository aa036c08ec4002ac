package shield

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opensensing/lteshield/at"
)

// MNOProfile identifies a mobile network operator profile as understood by
// the +UMNOPROF command. The values are the ones the module itself uses.
type MNOProfile int

const (
	MNOError           MNOProfile = 0 // reported by the module when no profile is active
	MNOAuto            MNOProfile = 1 // the module picks a profile from the inserted SIM
	MNOATT             MNOProfile = 2
	MNOVerizon         MNOProfile = 3
	MNOTelstra         MNOProfile = 4
	MNOTMobile         MNOProfile = 5
	MNOChinaTelecom    MNOProfile = 6
	MNOSprint          MNOProfile = 8
	MNOVodafone        MNOProfile = 19
	MNOTelus           MNOProfile = 21
	MNODeutscheTelekom MNOProfile = 31
	MNOStandardEurope  MNOProfile = 100
)

var mnoNames = map[MNOProfile]string{
	MNOError:           "none",
	MNOAuto:            "auto",
	MNOATT:             "att",
	MNOVerizon:         "verizon",
	MNOTelstra:         "telstra",
	MNOTMobile:         "tmobile",
	MNOChinaTelecom:    "chinatelecom",
	MNOSprint:          "sprint",
	MNOVodafone:        "vodafone",
	MNOTelus:           "telus",
	MNODeutscheTelekom: "deutschetelekom",
	MNOStandardEurope:  "standardeurope",
}

func (m MNOProfile) String() string {
	if name, ok := mnoNames[m]; ok {
		return name
	}
	return "profile(" + strconv.Itoa(int(m)) + ")"
}

// ParseMNO resolves a profile from its name or numeric value, as found in
// configuration files.
func ParseMNO(s string) (MNOProfile, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for profile, name := range mnoNames {
		if key == name {
			return profile, nil
		}
	}
	if n, err := strconv.Atoi(key); err == nil {
		return MNOProfile(n), nil
	}
	return 0, fmt.Errorf("unknown carrier profile %q", s)
}

// PDPType selects the packet data protocol of the default context. The
// zero value means no context is written during bring-up.
type PDPType int

const (
	PDPNone PDPType = iota
	PDPIPv4
	PDPNonIP
	PDPIPv4v6
	PDPIPv6
)

// String returns the keyword the +CGDCONT command expects.
func (p PDPType) String() string {
	switch p {
	case PDPIPv4:
		return "IP"
	case PDPNonIP:
		return "NONIP"
	case PDPIPv4v6:
		return "IPV4V6"
	case PDPIPv6:
		return "IPV6"
	default:
		return "NONE"
	}
}

// ParsePDP resolves a PDP type from a configuration value.
func ParsePDP(s string) (PDPType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PDPNone, nil
	case "ip", "ipv4":
		return PDPIPv4, nil
	case "nonip", "non-ip":
		return PDPNonIP, nil
	case "ipv4v6", "ipv4ipv6", "dual":
		return PDPIPv4v6, nil
	case "ipv6":
		return PDPIPv6, nil
	}
	return 0, fmt.Errorf("unknown pdp type %q", s)
}

// NetworkConfig describes the network the module should attach to.
type NetworkConfig struct {
	// MNO is the carrier profile to run the module under. The zero value
	// selects automatic profile detection.
	MNO MNOProfile

	// APN and PDP define the default packet data context. An empty APN or a
	// PDP of PDPNone leaves the context untouched.
	APN string
	PDP PDPType

	// ContextID is the +CGDCONT context identifier, 1 when zero.
	ContextID int
}

func (n NetworkConfig) withDefaults() NetworkConfig {
	if n.MNO == MNOError {
		n.MNO = MNOAuto
	}
	if n.ContextID == 0 {
		n.ContextID = 1
	}
	return n
}

// Network presets for common setups.
var (
	NetworkVerizon  = NetworkConfig{MNO: MNOVerizon, APN: "vzwinternet", PDP: PDPIPv4v6}
	NetworkHologram = NetworkConfig{MNO: MNOStandardEurope, APN: "hologram", PDP: PDPIPv4}
)

// RegistrationStatus is the network registration state as reported in the
// second field of a +CREG reply, kept in its wire form.
type RegistrationStatus byte

const (
	RegNone           RegistrationStatus = '0'
	RegHome           RegistrationStatus = '1'
	RegSearching      RegistrationStatus = '2'
	RegDenied         RegistrationStatus = '3'
	RegNoSignal       RegistrationStatus = '4'
	RegRoaming        RegistrationStatus = '5'
	RegHomeSMSOnly    RegistrationStatus = '6'
	RegRoamingSMSOnly RegistrationStatus = '7'
)

// Registered reports whether the module is attached to a network it can
// use, at home or roaming.
func (r RegistrationStatus) Registered() bool {
	return r == RegHome || r == RegRoaming
}

func (r RegistrationStatus) String() string {
	switch r {
	case RegNone:
		return "not registered"
	case RegHome:
		return "home network"
	case RegSearching:
		return "searching"
	case RegDenied:
		return "denied"
	case RegNoSignal:
		return "no signal"
	case RegRoaming:
		return "roaming"
	case RegHomeSMSOnly:
		return "home network, sms only"
	case RegRoamingSMSOnly:
		return "roaming, sms only"
	default:
		return "status(" + string(rune(r)) + ")"
	}
}

// SignalQuality is the raw +CSQ measurement. An RSSI or BER of 99 means
// the module could not measure it.
type SignalQuality struct {
	RSSI int
	BER  int
}

// DBm converts the RSSI index to a received signal strength in dBm. The
// second return is false when the module reported the level unknown.
func (q SignalQuality) DBm() (int, bool) {
	if q.RSSI < 0 || q.RSSI > 31 {
		return 0, false
	}
	return -113 + 2*q.RSSI, true
}

func (q SignalQuality) String() string {
	dbm, ok := q.DBm()
	if !ok {
		return "unknown"
	}
	return strconv.Itoa(dbm) + " dBm"
}

const replyCapacity = 64

// query runs a structured command and returns its payload as a string.
func (s *Shield) query(ctx context.Context, cmd string) (string, error) {
	buf := make([]byte, replyCapacity)
	n, err := s.Execute(ctx, Command{Text: cmd, Reply: buf})
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// RegistrationStatus queries the current network registration state.
func (s *Shield) RegistrationStatus(ctx context.Context) (RegistrationStatus, error) {
	payload, err := s.query(ctx, at.QueryRegistration)
	if err != nil {
		return 0, err
	}
	return parseRegistration(payload)
}

// ActiveProfile queries the carrier profile the module is running under.
func (s *Shield) ActiveProfile(ctx context.Context) (MNOProfile, error) {
	payload, err := s.query(ctx, at.QueryProfile)
	if err != nil {
		return 0, err
	}
	return parseProfile(payload)
}

// SignalQuality queries the received signal strength and bit error rate.
func (s *Shield) SignalQuality(ctx context.Context) (SignalQuality, error) {
	payload, err := s.query(ctx, at.QuerySignal)
	if err != nil {
		return SignalQuality{}, err
	}
	return parseSignal(payload)
}

// Operator queries the name of the network the module is attached to. An
// empty name means the module is not attached anywhere.
func (s *Shield) Operator(ctx context.Context) (string, error) {
	payload, err := s.query(ctx, at.QueryOperator)
	if err != nil {
		return "", err
	}
	return parseQuoted(payload), nil
}

// ICCID queries the serial number of the inserted SIM.
func (s *Shield) ICCID(ctx context.Context) (string, error) {
	payload, err := s.query(ctx, at.QueryICCID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(payload), nil
}

// SetNetworkConfig replaces the desired network configuration. The new
// settings take effect on the next Start.
func (s *Shield) SetNetworkConfig(cfg NetworkConfig) {
	s.network = cfg.withDefaults()
}

// parseRegistration extracts the registration state from a payload of the
// form "0,1". Some firmware appends location fields after the state.
func parseRegistration(payload string) (RegistrationStatus, error) {
	_, rest, ok := strings.Cut(payload, ",")
	if !ok || rest == "" {
		return 0, fmt.Errorf("malformed registration reply %q", payload)
	}
	return RegistrationStatus(rest[0]), nil
}

// parseProfile reads the leading profile number of a +UMNOPROF payload. An
// empty payload maps to MNOError, which is how the module reports having
// no profile at all.
func parseProfile(payload string) (MNOProfile, error) {
	field, _, _ := strings.Cut(payload, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return MNOError, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("malformed profile reply %q", payload)
	}
	return MNOProfile(n), nil
}

func parseSignal(payload string) (SignalQuality, error) {
	rssi, ber, ok := strings.Cut(payload, ",")
	if !ok {
		return SignalQuality{}, fmt.Errorf("malformed signal reply %q", payload)
	}
	q := SignalQuality{}
	var err error
	if q.RSSI, err = strconv.Atoi(strings.TrimSpace(rssi)); err != nil {
		return SignalQuality{}, fmt.Errorf("malformed signal reply %q", payload)
	}
	if q.BER, err = strconv.Atoi(strings.TrimSpace(ber)); err != nil {
		return SignalQuality{}, fmt.Errorf("malformed signal reply %q", payload)
	}
	return q, nil
}

// parseQuoted returns the first double-quoted field of payload, or an
// empty string when there is none.
func parseQuoted(payload string) string {
	i := strings.IndexByte(payload, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(payload[i+1:], '"')
	if j < 0 {
		return ""
	}
	return payload[i+1 : i+1+j]
}
