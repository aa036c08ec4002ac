package shield

import (
	"io"
	"sync"
	"time"
)

// ScriptTransport is a test helper that simulates a serial port using
// channels. Reads block until data is queued or the configured read
// timeout passes, mirroring how a real port behaves under SetReadTimeout.
type ScriptTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	pending  []byte
	timeout  time.Duration
	written  []byte
	closed   bool
}

// NewScriptTransport creates a new scripted transport.
// Exported for use in tests.
func NewScriptTransport() *ScriptTransport {
	return &ScriptTransport{
		readChan: make(chan []byte, 64),
	}
}

func (t *ScriptTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, p...)
	return len(p), nil
}

func (t *ScriptTransport) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	if len(t.pending) > 0 {
		n = copy(p, t.pending)
		t.pending = t.pending[n:]
		t.mu.Unlock()
		return n, nil
	}
	timeout := t.timeout
	t.mu.Unlock()

	if timeout <= 0 {
		select {
		case data, ok := <-t.readChan:
			if !ok {
				return 0, io.EOF
			}
			return t.buffer(p, data)
		default:
			return 0, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-t.readChan:
		if !ok {
			return 0, io.EOF
		}
		return t.buffer(p, data)
	case <-timer.C:
		return 0, nil
	}
}

// buffer hands out as much of data as fits in p and keeps the rest for
// subsequent reads.
func (t *ScriptTransport) buffer(p, data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := copy(p, data)
	t.pending = append(t.pending, data[n:]...)
	return n, nil
}

func (t *ScriptTransport) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
	return nil
}

func (t *ScriptTransport) Drain() error {
	return nil
}

func (t *ScriptTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the driver.
// This simulates receiving bytes from the module.
func (t *ScriptTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Written returns everything the driver has sent so far.
func (t *ScriptTransport) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.written)
}

var _ Transport = (*ScriptTransport)(nil)
