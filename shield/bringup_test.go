package shield_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/opensensing/lteshield/shield"
)

func scriptOK(cmd string) string {
	return "AT" + cmd + "\r\n\r\nOK\r\n"
}

func scriptReply(cmd, name, payload string) string {
	return "AT" + cmd + "\r\n" + name + ": " + payload + "\r\n\r\nOK\r\n"
}

// scriptBase queues the conversation of the configuration phase: echo
// probe, GPIO and mode setup, reboot, echo check.
func scriptBase(transport *shield.ScriptTransport) {
	transport.SendData(scriptOK("E0"))
	for _, cmd := range []string{"+UGPIOC=16,2", "+UGPIOC=23,3", "+UGPIOC=24,10", "+CMGF=1", "+CTZU=1"} {
		transport.SendData(scriptOK(cmd))
	}
	transport.SendData(scriptOK("+CFUN=15"))
	transport.SendData(scriptOK("E0"))
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("Reaches registration with a matching profile", func(t *testing.T) {
		network := shield.NetworkConfig{MNO: shield.MNOStandardEurope, APN: "hologram", PDP: shield.PDPIPv4}
		s, transport := newTestShield(t, network)

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "100"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,1"))

		require.NoError(t, s.Start(ctx))
		require.Equal(t, shield.StateRegistered, s.State())
	})

	t.Run("Polls registration until the network accepts", func(t *testing.T) {
		s, transport := newTestShield(t, shield.NetworkConfig{MNO: shield.MNOStandardEurope})

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "100"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,2"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,2"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,1"))

		require.NoError(t, s.Start(ctx))
		require.Equal(t, 3, strings.Count(transport.Written(), "AT+CREG?\r\n"))
	})

	t.Run("Rewrites the network configuration on a profile mismatch", func(t *testing.T) {
		network := shield.NetworkConfig{MNO: shield.MNOVerizon, APN: "vzwinternet", PDP: shield.PDPIPv4v6}
		s, transport := newTestShield(t, network)

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "0"))
		transport.SendData(scriptOK("+CFUN=0"))
		transport.SendData(scriptOK("+UMNOPROF=3"))
		transport.SendData(scriptOK("+CFUN=15"))
		transport.SendData(scriptOK("E0"))
		transport.SendData(scriptOK(`+CGDCONT=1,"IPV4V6","vzwinternet"`))
		transport.SendData(scriptOK("+COPS=0"))
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "3"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,5"))

		require.NoError(t, s.Start(ctx))
		require.Equal(t, shield.StateRegistered, s.State())

		written := transport.Written()
		require.Contains(t, written, "AT+CFUN=0\r\n")
		require.Contains(t, written, "AT+UMNOPROF=3\r\n")
		require.Contains(t, written, "AT+CGDCONT=1,\"IPV4V6\",\"vzwinternet\"\r\n")
		require.Contains(t, written, "AT+COPS=0\r\n")
	})

	t.Run("A second profile mismatch is terminal", func(t *testing.T) {
		s, transport := newTestShield(t, shield.NetworkConfig{MNO: shield.MNOVerizon})

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "0"))
		transport.SendData(scriptOK("+CFUN=0"))
		transport.SendData(scriptOK("+UMNOPROF=3"))
		transport.SendData(scriptOK("+CFUN=15"))
		transport.SendData(scriptOK("E0"))
		transport.SendData(scriptOK("+COPS=0"))
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "2"))

		err := s.Start(ctx)
		require.ErrorIs(t, err, shield.ErrBadNetworkConfig)
		require.Equal(t, shield.StateFailed, s.State())
	})

	t.Run("Automatic selection landing on no profile is terminal", func(t *testing.T) {
		s, transport := newTestShield(t, shield.NetworkConfig{})

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "0"))
		transport.SendData(scriptOK("+CFUN=0"))
		transport.SendData(scriptOK("+UMNOPROF=1"))
		transport.SendData(scriptOK("+CFUN=15"))
		transport.SendData(scriptOK("E0"))
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "0"))

		err := s.Start(ctx)
		require.ErrorIs(t, err, shield.ErrAutoProfileFailed)
		require.Equal(t, shield.StateFailed, s.State())
	})

	t.Run("Registration deadline reports ErrRegistrationFailed", func(t *testing.T) {
		s, transport := newTestShield(t, shield.NetworkConfig{MNO: shield.MNOStandardEurope})

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "100"))
		for i := 0; i < 40; i++ {
			transport.SendData(scriptReply("+CREG?", "+CREG", "0,2"))
		}

		err := s.Start(ctx)
		require.ErrorIs(t, err, shield.ErrRegistrationFailed)
		require.Equal(t, shield.StateFailed, s.State())
	})

	t.Run("Reports ErrDeviceNotFound when the module never answers", func(t *testing.T) {
		s, transport := newTestShield(t, shield.NetworkConfig{})

		err := s.Start(ctx)
		require.ErrorIs(t, err, shield.ErrDeviceNotFound)
		require.Equal(t, shield.StateFailed, s.State())
		require.Contains(t, transport.Written(), "ATE0\r\n")
	})

	t.Run("ErrAlreadyClosed after Close", func(t *testing.T) {
		s, _ := newTestShield(t, shield.NetworkConfig{})
		require.NoError(t, s.Close())
		require.ErrorIs(t, s.Start(ctx), shield.ErrAlreadyClosed)
	})
}

func TestStartPowerControl(t *testing.T) {
	ctx := context.Background()

	t.Run("Toggles power when the module reports unpowered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pins := shield.NewMockPowerPins(ctrl)
		gomock.InOrder(
			pins.EXPECT().PowerIndication().Return(false, nil),
			pins.EXPECT().SetPower(true).Return(nil),
			pins.EXPECT().SetPower(false).Return(nil),
			pins.EXPECT().PowerIndication().Return(true, nil),
		)

		transport := shield.NewScriptTransport()
		config, err := shield.NewConfigBuilder().
			WithDialer(scriptDialer{transport}).
			WithPins(pins).
			WithTimeout(25 * time.Millisecond).
			WithTimings(testTimings()).
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
			Build()
		require.NoError(t, err)

		s, err := shield.New(config)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		scriptBase(transport)
		// An automatic profile accepts whatever concrete profile the
		// module picked.
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "2"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,1"))

		require.NoError(t, s.Start(ctx))
		require.Equal(t, shield.StateRegistered, s.State())
	})

	t.Run("Skips the toggle when already powered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pins := shield.NewMockPowerPins(ctrl)
		pins.EXPECT().PowerIndication().Return(true, nil)

		transport := shield.NewScriptTransport()
		config, err := shield.NewConfigBuilder().
			WithDialer(scriptDialer{transport}).
			WithPins(pins).
			WithTimeout(25 * time.Millisecond).
			WithTimings(testTimings()).
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
			Build()
		require.NoError(t, err)

		s, err := shield.New(config)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		scriptBase(transport)
		transport.SendData(scriptReply("+UMNOPROF?", "+UMNOPROF", "2"))
		transport.SendData(scriptReply("+CREG?", "+CREG", "0,1"))

		require.NoError(t, s.Start(ctx))
	})
}
