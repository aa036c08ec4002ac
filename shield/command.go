package shield

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opensensing/lteshield/at"
)

// Command describes one AT transaction.
type Command struct {
	// Text is the command body without the attention prefix; "E0" goes to
	// the wire as "ATE0". An empty Text sends the bare attention command.
	Text string

	// Raw suppresses the attention prefix for the rare commands that must
	// not carry it.
	Raw bool

	// Reply receives the payload of a structured reply. A nil Reply means
	// the command is expected to answer with a bare OK. The buffer is
	// borrowed for the duration of the call. Reply verification matches the
	// echoed name against Text, so structured replies require a command
	// starting with the '+' marker.
	Reply []byte

	// Timeout bounds the whole transaction. Zero applies the driver
	// default.
	Timeout time.Duration

	// Tries bounds how often the transaction is restarted when the module
	// sends nothing back at all. Zero applies the driver default. Only a
	// missing echo triggers another attempt; a malformed reply fails the
	// call at once.
	Tries int
}

// Execute runs one command transaction: write the command line, skip its
// echo, read the structured reply if one is expected, then require the
// final OK. It returns the number of payload bytes copied into cmd.Reply.
func (s *Shield) Execute(ctx context.Context, cmd Command) (int, error) {
	if s.closed {
		return 0, ErrAlreadyClosed
	}

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = s.timeout
	}
	tries := cmd.Tries
	if tries <= 0 {
		tries = s.tries
	}

	for attempt := 1; attempt <= tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := s.send(cmd); err != nil {
			return 0, err
		}
		if err := s.pause(ctx, s.timings.Settle); err != nil {
			return 0, err
		}

		deadline := time.Now().Add(timeout)
		err := s.skipEcho(deadline)
		if errors.Is(err, ErrTimeout) {
			s.log.Debug("no echo, retrying", "cmd", cmd.Text, "attempt", attempt)
			continue
		}
		if err != nil {
			return 0, err
		}

		n := 0
		if cmd.Reply != nil {
			n, err = s.readReply(deadline, cmd)
			if err != nil {
				return 0, err
			}
		}

		kind, err := s.classify(deadline)
		if err != nil {
			return 0, err
		}
		if kind != at.TypeOK {
			s.log.Error("command not accepted", "cmd", cmd.Text, "got", kind.String())
			return 0, respError(kind)
		}
		return n, nil
	}

	return 0, ErrTimeout
}

// send writes the command line and flushes it to the device.
func (s *Shield) send(cmd Command) error {
	line := cmd.Text + at.CRLF
	if !cmd.Raw {
		line = at.Prefix + line
	}
	s.log.Debug("send", "cmd", cmd.Text)
	if _, err := s.transport.Write([]byte(line)); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	if err := s.transport.Drain(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

// readByte reads the next byte, honoring the remaining transaction budget.
// The transport timeout is recomputed on every call so the deadline holds
// across the whole reply, not per byte.
func (s *Shield) readByte(deadline time.Time) (byte, error) {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, ErrTimeout
		}
		if err := s.transport.SetReadTimeout(remaining); err != nil {
			return 0, fmt.Errorf("set read timeout: %w", err)
		}
		n, err := s.transport.Read(s.rbuf[:])
		if err != nil {
			return 0, fmt.Errorf("read: %w", err)
		}
		if n > 0 {
			return s.rbuf[0], nil
		}
		// n == 0 means the port timed out; recheck the budget.
	}
}

// skipEcho consumes the echoed command line through its newline. With echo
// disabled the first CRLF of the reply satisfies it just the same.
func (s *Shield) skipEcho(deadline time.Time) error {
	for {
		c, err := s.readByte(deadline)
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

// classify reads up to the next reply token and names it by its lead byte.
// For an OK the rest of the line is consumed as well, leaving the stream
// clean for the next transaction. Deadline expiry is reported as
// at.TypeTimeout, not as an error; the error return is for transport
// failures only.
func (s *Shield) classify(deadline time.Time) (at.ResponseType, error) {
	for {
		c, err := s.readByte(deadline)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return at.TypeTimeout, nil
			}
			return at.TypeUnknown, err
		}
		if at.IsGap(c) {
			continue
		}

		switch kind := at.Lead(c); kind {
		case at.TypeData:
			return kind, nil
		case at.TypeOK:
			for c != '\n' {
				c, err = s.readByte(deadline)
				if err != nil {
					if errors.Is(err, ErrTimeout) {
						return at.TypeTimeout, nil
					}
					return at.TypeUnknown, err
				}
			}
			return at.TypeOK, nil
		default:
			s.log.Error("unexpected response", "lead", string(rune(c)), "pending", s.drainPending())
			return kind, nil
		}
	}
}

// readReply verifies the echoed command name of a structured reply and
// copies its payload into cmd.Reply, returning the number of bytes copied.
func (s *Shield) readReply(deadline time.Time, cmd Command) (int, error) {
	kind, err := s.classify(deadline)
	if err != nil {
		return 0, err
	}
	if kind != at.TypeData {
		if kind == at.TypeOK {
			s.log.Error("reply data missing", "cmd", cmd.Text)
			return 0, ErrUnexpectedOK
		}
		return 0, respError(kind)
	}

	// The classifier consumed the '+' marker; verify the rest of the
	// echoed name byte by byte.
	name := at.BaseName(cmd.Text)
	for i := 1; i < len(name); i++ {
		c, err := s.readByte(deadline)
		if err != nil {
			return 0, err
		}
		if c != name[i] {
			s.log.Error("reply does not match command", "cmd", cmd.Text,
				"want", string(name[i]), "got", string(rune(c)), "pending", s.drainPending())
			return 0, ErrInvalidResponse
		}
	}

	// Skip the ": " separator.
	for i := 0; i < 2; i++ {
		if _, err := s.readByte(deadline); err != nil {
			return 0, err
		}
	}

	n := 0
	for {
		c, err := s.readByte(deadline)
		if err != nil {
			return 0, err
		}
		if c == '\r' || c == '\n' {
			return n, nil
		}
		if n == len(cmd.Reply) {
			s.log.Warn("reply clipped to buffer size", "cmd", cmd.Text, "size", n)
			for c != '\r' && c != '\n' {
				if c, err = s.readByte(deadline); err != nil {
					return 0, err
				}
			}
			return n, nil
		}
		cmd.Reply[n] = c
		n++
	}
}

// drainPending collects whatever bytes the port already holds, for
// diagnostics when a reply goes off script.
func (s *Shield) drainPending() string {
	if err := s.transport.SetReadTimeout(0); err != nil {
		return ""
	}
	var pending []byte
	for len(pending) < replyCapacity {
		n, err := s.transport.Read(s.rbuf[:])
		if err != nil || n == 0 {
			break
		}
		pending = append(pending, s.rbuf[0])
	}
	return strings.TrimSpace(string(pending))
}

// pause sleeps for d unless the context ends first.
func (s *Shield) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
