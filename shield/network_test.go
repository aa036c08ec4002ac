package shield

import (
	"testing"
)

func TestParseRegistration(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected RegistrationStatus
		wantErr  bool
	}{
		{name: "Home network", payload: "0,1", expected: RegHome},
		{name: "Roaming", payload: "0,5", expected: RegRoaming},
		{name: "Searching", payload: "0,2", expected: RegSearching},
		{name: "URC mode enabled", payload: "2,1", expected: RegHome},
		{name: "Location fields appended", payload: "2,5,\"184B\",\"05DB1C0A\",7", expected: RegRoaming},
		{name: "Missing status", payload: "0", wantErr: true},
		{name: "Trailing comma", payload: "0,", wantErr: true},
		{name: "Empty", payload: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := parseRegistration(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, status)
			}
		})
	}
}

func TestRegistrationStatusRegistered(t *testing.T) {
	registered := []RegistrationStatus{RegHome, RegRoaming}
	for _, status := range registered {
		if !status.Registered() {
			t.Errorf("%v should count as registered", status)
		}
	}

	notRegistered := []RegistrationStatus{
		RegNone, RegSearching, RegDenied, RegNoSignal, RegHomeSMSOnly, RegRoamingSMSOnly,
	}
	for _, status := range notRegistered {
		if status.Registered() {
			t.Errorf("%v should not count as registered", status)
		}
	}
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected MNOProfile
		wantErr  bool
	}{
		{name: "Concrete profile", payload: "100", expected: MNOStandardEurope},
		{name: "With trailing field", payload: "1,7", expected: MNOAuto},
		{name: "Leading space", payload: " 3", expected: MNOVerizon},
		{name: "Empty means none", payload: "", expected: MNOError},
		{name: "Garbage", payload: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := parseProfile(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if profile != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, profile)
			}
		})
	}
}

func TestParseSignal(t *testing.T) {
	q, err := parseSignal("15,99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.RSSI != 15 || q.BER != 99 {
		t.Errorf("expected 15/99, got %d/%d", q.RSSI, q.BER)
	}

	dbm, ok := q.DBm()
	if !ok || dbm != -83 {
		t.Errorf("expected -83 dBm, got %d (ok=%v)", dbm, ok)
	}

	unknown := SignalQuality{RSSI: 99, BER: 99}
	if _, ok := unknown.DBm(); ok {
		t.Error("RSSI 99 should not convert to dBm")
	}

	if _, err := parseSignal("nonsense"); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestParseQuoted(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{name: "Operator reply", payload: `0,0,"Hologram",7`, expected: "Hologram"},
		{name: "No operator", payload: "0", expected: ""},
		{name: "Unterminated quote", payload: `0,0,"Holo`, expected: ""},
		{name: "Spaces inside", payload: `0,0,"vodafone UK",7`, expected: "vodafone UK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseQuoted(tt.payload); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseMNO(t *testing.T) {
	tests := []struct {
		input    string
		expected MNOProfile
		wantErr  bool
	}{
		{input: "auto", expected: MNOAuto},
		{input: "Verizon", expected: MNOVerizon},
		{input: "t-mobile", expected: MNOTMobile},
		{input: "deutsche_telekom", expected: MNODeutscheTelekom},
		{input: "standardeurope", expected: MNOStandardEurope},
		{input: "100", expected: MNOStandardEurope},
		{input: "19", expected: MNOVodafone},
		{input: "orange", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			profile, err := ParseMNO(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if profile != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, profile)
			}
		})
	}
}

func TestParsePDP(t *testing.T) {
	tests := []struct {
		input    string
		expected PDPType
		wantErr  bool
	}{
		{input: "ip", expected: PDPIPv4},
		{input: "IPV4V6", expected: PDPIPv4v6},
		{input: "non-ip", expected: PDPNonIP},
		{input: "ipv6", expected: PDPIPv6},
		{input: "", expected: PDPNone},
		{input: "x25", wantErr: true},
	}

	for _, tt := range tests {
		profile, err := ParsePDP(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.expected, profile)
		}
	}
}

func TestNetworkConfigDefaults(t *testing.T) {
	cfg := NetworkConfig{}.withDefaults()
	if cfg.MNO != MNOAuto {
		t.Errorf("zero MNO should default to automatic, got %v", cfg.MNO)
	}
	if cfg.ContextID != 1 {
		t.Errorf("zero ContextID should default to 1, got %d", cfg.ContextID)
	}

	cfg = NetworkVerizon.withDefaults()
	if cfg.MNO != MNOVerizon || cfg.ContextID != 1 {
		t.Errorf("preset should keep its profile, got %+v", cfg)
	}
}

func TestPDPString(t *testing.T) {
	tests := []struct {
		pdp      PDPType
		expected string
	}{
		{PDPIPv4, "IP"},
		{PDPNonIP, "NONIP"},
		{PDPIPv4v6, "IPV4V6"},
		{PDPIPv6, "IPV6"},
		{PDPNone, "NONE"},
	}
	for _, tt := range tests {
		if got := tt.pdp.String(); got != tt.expected {
			t.Errorf("PDPType(%d): expected %q, got %q", int(tt.pdp), tt.expected, got)
		}
	}
}
