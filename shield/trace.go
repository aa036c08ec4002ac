package shield

import (
	"fmt"
	"log/slog"
	"time"
)

// Trace wraps a transport and logs every byte moved over it at debug
// level. It is wired in by Config.Verbose and meant for watching a live
// exchange with a module, not for production logging.
func Trace(t Transport, log *slog.Logger) Transport {
	return &traceTransport{next: t, log: log}
}

type traceTransport struct {
	next Transport
	log  *slog.Logger
}

func (t *traceTransport) Read(p []byte) (int, error) {
	n, err := t.next.Read(p)
	if n > 0 {
		t.log.Debug("rx", "data", fmt.Sprintf("%q", p[:n]))
	}
	return n, err
}

func (t *traceTransport) Write(p []byte) (int, error) {
	n, err := t.next.Write(p)
	if n > 0 {
		t.log.Debug("tx", "data", fmt.Sprintf("%q", p[:n]))
	}
	return n, err
}

func (t *traceTransport) SetReadTimeout(d time.Duration) error {
	return t.next.SetReadTimeout(d)
}

func (t *traceTransport) Drain() error {
	return t.next.Drain()
}

func (t *traceTransport) Close() error {
	return t.next.Close()
}

var _ Transport = (*traceTransport)(nil)
