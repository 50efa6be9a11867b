// Package server accepts raw TCP connections from game-bot clients and feeds
// their byte streams into the outbound work queue.
//
// Reads never block on the chat platform: each frame is normalized and pushed
// onto the queue, and the delivery loop takes it from there. A connection
// owns its extractor buffer exclusively; on disconnect the buffer is
// discarded and every router entry for the connection is removed.
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/tinyland-inc/bridgeclaw/pkg/frame"
	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
	"github.com/tinyland-inc/bridgeclaw/pkg/queue"
	"github.com/tinyland-inc/bridgeclaw/pkg/router"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

const readBufferSize = 4096

// Server owns the accept loop and per-connection read loops.
type Server struct {
	queue         queue.Queue
	router        *router.Router
	audit         *AuditLog
	threadPrefix  string
	maxFrameBytes int
	now           func() time.Time
}

func New(q queue.Queue, r *router.Router, audit *AuditLog, threadPrefix string, maxFrameBytes int) *Server {
	return &Server{
		queue:         q,
		router:        r,
		audit:         audit,
		threadPrefix:  threadPrefix,
		maxFrameBytes: maxFrameBytes,
		now:           time.Now,
	}
}

// Serve accepts connections until the listener is closed or the context is
// cancelled. Each connection is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			logger.WarnCF("server", "Accept failed", map[string]any{"error": err.Error()})
			continue
		}
		go s.HandleConn(ctx, conn)
	}
}

// HandleConn runs the read loop for one connection: accumulate bytes, extract
// frames, normalize, enqueue. Exported so tests can drive it with net.Pipe.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	s.router.RegisterConnection(connID, conn)
	defer func() {
		s.router.UnregisterConnection(connID)
		conn.Close()
		logger.InfoCF("server", "Client disconnected", map[string]any{
			"conn_id": connID,
			"remote":  remote,
		})
	}()

	logger.InfoCF("server", "Client connected", map[string]any{
		"conn_id": connID,
		"remote":  remote,
	})

	extractor := frame.NewExtractor(s.maxFrameBytes)
	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if s.audit != nil {
				s.audit.Record(remote, buf[:n])
			}

			frames, ferr := extractor.Feed(buf[:n])
			for _, raw := range frames {
				s.enqueue(ctx, connID, raw)
			}
			if errors.Is(ferr, frame.ErrFrameTooLarge) {
				logger.WarnCF("server", "Closing connection: frame too large", map[string]any{
					"conn_id":  connID,
					"buffered": extractor.Buffered(),
				})
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// enqueue turns one raw frame into a queue item. A full or unreachable queue
// drops the item with a log line; applying backpressure to the socket reader
// is not an option here.
func (s *Server) enqueue(ctx context.Context, connID string, raw []byte) {
	rec := frame.Normalize(raw)

	item := queue.Item{
		ThreadName:         threads.BuildName(s.threadPrefix, s.now(), rec.ThreadKey),
		Text:               rec.Text,
		SourceConnectionID: connID,
		Bidirectional:      rec.Bidirectional,
		ChannelID:          rec.ChannelID,
	}

	if err := s.queue.Enqueue(ctx, item); err != nil {
		logger.ErrorCF("server", "Enqueue failed, dropping message", map[string]any{
			"conn_id": connID,
			"thread":  item.ThreadName,
			"error":   err.Error(),
		})
	}
}
