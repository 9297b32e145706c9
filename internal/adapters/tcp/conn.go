package tcp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
)

// Conn is a newline-framed client socket. Sends from different goroutines are
// serialized so frames never interleave.
type Conn struct {
	nc           net.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ core.SignalConnection = (*Conn)(nil)

// NewConn wraps nc; a zero writeTimeout disables write deadlines.
func NewConn(nc net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{nc: nc, writeTimeout: writeTimeout}
}

func (c *Conn) Send(f core.Frame) error {
	if c.closed.Load() {
		return fmt.Errorf("send: closed: %w", domain.ErrConnectionLost)
	}
	buf := make([]byte, 0, len(f)+1)
	buf = append(append(buf, f...), '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("send: %v: %w", err, domain.ErrConnectionLost)
		}
	}
	if _, err := c.nc.Write(buf); err != nil {
		return fmt.Errorf("send: %v: %w", err, domain.ErrConnectionLost)
	}
	return nil
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.nc.Close()
	})
}

func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }
