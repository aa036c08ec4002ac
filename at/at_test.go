package at_test

import (
	"fmt"
	"testing"

	"github.com/opensensing/lteshield/at"
)

func TestLead(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		expected at.ResponseType
	}{
		{name: "Structured reply marker", input: '+', expected: at.TypeData},
		{name: "OK lead", input: 'O', expected: at.TypeOK},
		{name: "ERROR lead", input: 'E', expected: at.TypeError},
		{name: "Digit", input: '0', expected: at.TypeUnknown},
		{name: "Lowercase o", input: 'o', expected: at.TypeUnknown},
		{name: "NUL", input: 0x00, expected: at.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.Lead(tt.input); got != tt.expected {
				t.Errorf("Lead(%q): expected %v, got %v", tt.input, tt.expected, got)
			}
		})
	}
}

func TestIsGap(t *testing.T) {
	for _, c := range []byte{'\r', '\n', ' '} {
		if !at.IsGap(c) {
			t.Errorf("IsGap(%q): expected true", c)
		}
	}
	for _, c := range []byte{'+', 'O', 'E', '\t', '0', 'K'} {
		if at.IsGap(c) {
			t.Errorf("IsGap(%q): expected false", c)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Set command", input: "+UMNOPROF=1", expected: "+UMNOPROF"},
		{name: "Query command", input: "+CREG?", expected: "+CREG"},
		{name: "Bare command", input: "+CSQ", expected: "+CSQ"},
		{name: "Echo control", input: "E0", expected: "E0"},
		{name: "Multi-parameter set", input: `+CGDCONT=1,"IP","hologram"`, expected: "+CGDCONT"},
		{name: "Empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.BaseName(tt.input); got != tt.expected {
				t.Errorf("BaseName(%q): expected %q, got %q", tt.input, tt.expected, got)
			}
		})
	}
}

func TestCommandTemplates(t *testing.T) {
	if got := fmt.Sprintf(at.SetProfile, 100); got != "+UMNOPROF=100" {
		t.Errorf("SetProfile: got %q", got)
	}
	if got := fmt.Sprintf(at.SetPDPContext, 1, "IP", "hologram"); got != `+CGDCONT=1,"IP","hologram"` {
		t.Errorf("SetPDPContext: got %q", got)
	}
}

func TestResponseTypeString(t *testing.T) {
	tests := []struct {
		input    at.ResponseType
		expected string
	}{
		{at.TypeData, "data"},
		{at.TypeOK, "ok"},
		{at.TypeError, "error"},
		{at.TypeTimeout, "timeout"},
		{at.TypeUnknown, "unknown"},
		{at.ResponseType(42), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.input.String(); got != tt.expected {
			t.Errorf("ResponseType(%d).String(): expected %q, got %q", int(tt.input), tt.expected, got)
		}
	}
}
