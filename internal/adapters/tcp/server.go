// Package tcp serves the game protocol over raw TCP, one goroutine per client.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Server struct {
	Handler      core.ConnHandler
	ReadLimit    int
	WriteTimeout time.Duration

	mu      sync.Mutex
	conns   map[core.SessionID]*Conn
	closing bool
	wg      sync.WaitGroup
}

func NewServer(h core.ConnHandler, readLimit int, writeTimeout time.Duration) *Server {
	return &Server{
		Handler:      h,
		ReadLimit:    readLimit,
		WriteTimeout: writeTimeout,
		conns:        make(map[core.SessionID]*Conn),
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts until ctx is done, then closes every live connection and
// waits for their handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("module", "tcp").Str("addr", ln.Addr().String()).Msg("listening")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.shutdown()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info().Str("module", "tcp").Msg("listener closed")
				return nil
			}
			log.Error().Err(err).Str("module", "tcp").Msg("accept")
			continue
		}
		s.wg.Add(1)
		go s.handle(ctx, nc)
	}
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closing = true
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) track(sid core.SessionID, c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		c.Close()
	}
	s.conns[sid] = c
}

func (s *Server) untrack(sid core.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, sid)
}

// handle owns one connection from accept to close.
func (s *Server) handle(ctx context.Context, nc net.Conn) {
	defer s.wg.Done()

	sid := core.SessionID(uuid.NewString())
	logger := log.With().Str("module", "tcp").Str("sid", string(sid)).Str("remote", nc.RemoteAddr().String()).Logger()
	conn := NewConn(nc, s.WriteTimeout)
	s.track(sid, conn)
	defer func() {
		s.Handler.OnDisconnect(ctx, sid)
		conn.Close()
		s.untrack(sid)
		logger.Info().Msg("connection closed")
	}()

	logger.Info().Msg("new connection")
	s.Handler.OnConnect(sid, conn)

	fr := protocol.NewFrameReader(nc, s.ReadLimit)
	for {
		frame, err := fr.Next()
		if errors.Is(err, protocol.ErrFrameTooLong) {
			logger.Warn().Err(err).Msg("frame dropped")
			if reply, encErr := protocol.Encode(protocol.TypeError, protocol.Error{Message: domain.Reason(err)}); encErr == nil {
				_ = conn.Send(reply)
			}
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		s.Handler.OnFrame(ctx, sid, conn, frame)
	}
}
