package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Run connects to addr, prints server messages and sends typed commands until
// the user quits, in closes, or the server hangs up.
func Run(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer nc.Close()
	log.Info().Str("module", "client").Str("addr", addr).Msg("connected")

	display := NewDisplay(out)
	readErr := make(chan error, 1)
	go func() {
		fr := protocol.NewFrameReader(nc, 1<<16)
		for {
			frame, err := fr.Next()
			if err != nil {
				readErr <- err
				return
			}
			if err := display.Render(frame); err != nil {
				log.Warn().Err(err).Str("module", "client").Msg("bad server frame")
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Server closed the connection.")
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				return nil
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			b, err := protocol.EncodeCommand(cmd)
			if err != nil {
				return err
			}
			if _, err := nc.Write(append(b, '\n')); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}
