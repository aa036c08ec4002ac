package shield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensensing/lteshield/at"
)

// Start powers the module and walks it through configuration to network
// registration. On return with a nil error the module is registered and
// ready for traffic. Any terminal failure leaves the driver in
// StateFailed; calling Start again runs the whole sequence from scratch.
func (s *Shield) Start(ctx context.Context) error {
	if s.closed {
		return ErrAlreadyClosed
	}

	if err := s.bringup(ctx); err != nil {
		s.setState(StateFailed)
		return err
	}
	s.setState(StateRegistered)
	return nil
}

func (s *Shield) bringup(ctx context.Context) error {
	s.setState(StateUnpowered)

	on, err := s.pins.PowerIndication()
	if err != nil {
		return fmt.Errorf("sense power indication: %w", err)
	}
	if !on {
		s.log.Info("module unpowered, toggling power")
		if err := s.togglePower(ctx); err != nil {
			return err
		}
		s.setState(StateAwaitingPower)
		if err := s.awaitPower(ctx); err != nil {
			return err
		}
	}

	s.setState(StateConfiguring)
	if err := s.configure(ctx); err != nil {
		return err
	}

	s.setState(StateNetworkUnverified)
	err = s.verifyNetwork(ctx)
	if errors.Is(err, ErrBadNetworkConfig) {
		s.setState(StateNetworkConfiguring)
		if err = s.configureNetwork(ctx); err != nil {
			return err
		}
		s.setState(StateNetworkUnverified)
		err = s.verifyNetwork(ctx)
	}
	if err != nil {
		return err
	}

	return s.awaitRegistration(ctx)
}

// togglePower pulses the PWR_ON line. The same pulse both powers a dead
// module and powers off a live one. The line is released even when the
// context ends mid-pulse.
func (s *Shield) togglePower(ctx context.Context) error {
	if err := s.pins.SetPower(true); err != nil {
		return fmt.Errorf("assert power control: %w", err)
	}
	err := s.pause(ctx, s.timings.PowerPulse)
	if rerr := s.pins.SetPower(false); rerr != nil && err == nil {
		err = fmt.Errorf("release power control: %w", rerr)
	}
	return err
}

// awaitPower polls the power indication until the module reports itself
// alive. Running out the timeout is not fatal: boards without the
// indication wired never report, so configuration is attempted anyway.
func (s *Shield) awaitPower(ctx context.Context) error {
	deadline := time.Now().Add(s.timings.PowerTimeout)
	for time.Now().Before(deadline) {
		on, err := s.pins.PowerIndication()
		if err != nil {
			return fmt.Errorf("sense power indication: %w", err)
		}
		if on {
			return nil
		}
		if err := s.pause(ctx, s.timings.PowerPoll); err != nil {
			return err
		}
	}
	s.log.Warn("no power indication, configuring anyway")
	return nil
}

// probe verifies the module answers AT commands at all, power cycling it
// between failed rounds. Disabling echo doubles as the probe command so
// the reply stream is in a known shape afterwards either way.
func (s *Shield) probe(ctx context.Context) error {
	const rounds = 4
	for round := 1; ; round++ {
		_, err := s.Execute(ctx, Command{Text: at.EchoOff, Timeout: s.timings.EchoTimeout})
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if round == rounds {
			s.log.Error("module not responding", "error", err)
			return ErrDeviceNotFound
		}
		s.log.Warn("echo probe failed, power cycling", "round", round, "error", err)
		if err := s.togglePower(ctx); err != nil {
			return err
		}
		if err := s.pause(ctx, s.timings.PowerTimeout); err != nil {
			return err
		}
	}
}

// configure gives the module its base setup: GPIO roles, text message
// format and automatic timezone, followed by a reboot that makes the GPIO
// assignments take effect.
func (s *Shield) configure(ctx context.Context) error {
	if err := s.probe(ctx); err != nil {
		return err
	}

	setup := []string{
		at.GPIONetworkLED,
		at.GPIOGNSSSupply,
		at.GPIOModuleStatus,
		at.TextMode,
		at.AutoTimezone,
	}
	for _, cmd := range setup {
		if _, err := s.Execute(ctx, Command{Text: cmd}); err != nil {
			return fmt.Errorf("setup %s: %w", cmd, err)
		}
		if err := s.pause(ctx, s.timings.CommandGap); err != nil {
			return err
		}
	}

	return s.reboot(ctx)
}

// reboot issues the full function reset. The module drops off the wire
// while restarting, so a timed out reset is tolerated and the echo probe
// afterwards decides whether the module came back.
func (s *Shield) reboot(ctx context.Context) error {
	_, err := s.Execute(ctx, Command{Text: at.Reboot, Timeout: s.timings.ResetTimeout})
	if err != nil {
		if !errors.Is(err, ErrTimeout) {
			return fmt.Errorf("reboot: %w", err)
		}
		s.log.Warn("no answer to reboot command, probing")
	}
	if _, err := s.Execute(ctx, Command{Text: at.EchoOff}); err != nil {
		return fmt.Errorf("reboot echo check: %w", err)
	}
	return nil
}

// verifyNetwork compares the active carrier profile against the desired
// one. Under an automatic profile any concrete selection passes; only the
// module reporting no profile at all is a mismatch.
func (s *Shield) verifyNetwork(ctx context.Context) error {
	profile, err := s.ActiveProfile(ctx)
	if err != nil {
		return fmt.Errorf("query active profile: %w", err)
	}

	match := profile == s.network.MNO
	if s.network.MNO == MNOAuto {
		match = profile != MNOError
	}
	if !match {
		s.log.Warn("active profile differs from configuration",
			"active", profile.String(), "want", s.network.MNO.String())
		return ErrBadNetworkConfig
	}
	return nil
}

// configureNetwork writes the desired network configuration: carrier
// profile, default packet data context and automatic operator selection.
// The radio is taken down first, as the module rejects profile changes
// while it is up.
func (s *Shield) configureNetwork(ctx context.Context) error {
	s.log.Info("writing network configuration", "mno", s.network.MNO.String())

	if _, err := s.Execute(ctx, Command{Text: at.RadioOff}); err != nil {
		return fmt.Errorf("radio off: %w", err)
	}
	if _, err := s.Execute(ctx, Command{Text: fmt.Sprintf(at.SetProfile, s.network.MNO)}); err != nil {
		return fmt.Errorf("set carrier profile: %w", err)
	}
	if err := s.reboot(ctx); err != nil {
		return err
	}

	if s.network.MNO == MNOAuto {
		profile, err := s.ActiveProfile(ctx)
		if err != nil {
			return fmt.Errorf("confirm automatic profile: %w", err)
		}
		if profile == MNOError {
			return ErrAutoProfileFailed
		}
		s.log.Info("automatic profile selected", "mno", profile.String())
	}

	if s.network.APN != "" && s.network.PDP != PDPNone {
		cmd := fmt.Sprintf(at.SetPDPContext, s.network.ContextID, s.network.PDP.String(), s.network.APN)
		if _, err := s.Execute(ctx, Command{Text: cmd}); err != nil {
			return fmt.Errorf("set packet data context: %w", err)
		}
	}

	if _, err := s.Execute(ctx, Command{Text: at.AutoOperator}); err != nil {
		return fmt.Errorf("automatic operator selection: %w", err)
	}
	return nil
}

// awaitRegistration polls the registration state until the module is
// attached to its home network or roaming.
func (s *Shield) awaitRegistration(ctx context.Context) error {
	deadline := time.Now().Add(s.timings.RegisterTimeout)
	for {
		status, err := s.RegistrationStatus(ctx)
		switch {
		case errors.Is(err, ErrAlreadyClosed):
			return err
		case err != nil:
			s.log.Warn("registration query failed", "error", err)
		default:
			s.log.Debug("registration status", "status", status.String())
			if status.Registered() {
				s.log.Info("network registered", "status", status.String())
				return nil
			}
		}

		if time.Now().After(deadline) {
			return ErrRegistrationFailed
		}
		if err := s.pause(ctx, s.timings.RegisterPoll); err != nil {
			return err
		}
	}
}
