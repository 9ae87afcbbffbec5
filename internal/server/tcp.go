package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/config"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/framer"
)

// TCPServer receives FusionEngine frames over stream connections. Each
// connection runs its own decoder goroutine, so chunk boundaries imposed
// by the transport never affect framing.
type TCPServer struct {
	listener    net.Listener
	config      *config.ServerConfig
	decoderOpts framer.Options
	logger      *slog.Logger
	sink        *FrameSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                  sync.RWMutex
	connectionsAccepted uint64
	activeConnections   uint64
}

// NewTCPServer creates a new TCP listener instance
func NewTCPServer(cfg *config.ServerConfig, decoderOpts framer.Options, logger *slog.Logger, sink *FrameSink) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &TCPServer{
		config:      cfg,
		decoderOpts: decoderOpts,
		logger:      logger,
		sink:        sink,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins accepting TCP connections
func (s *TCPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.TCPPort)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on TCP: %w", err)
	}

	s.listener = listener

	s.logger.Info("TCP server started", slog.String("address", addr))

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully stops the TCP server
func (s *TCPServer) Stop() error {
	s.logger.Info("Stopping TCP server...")

	s.cancel()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("Error closing TCP listener", slog.String("error", err.Error()))
		}
	}

	s.wg.Wait()

	s.mu.RLock()
	accepted := s.connectionsAccepted
	s.mu.RUnlock()

	s.logger.Info("TCP server stopped", slog.Uint64("connections_accepted", accepted))

	return nil
}

// acceptLoop accepts connections until the listener is closed
func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to accept connection", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.connectionsAccepted++
		s.activeConnections++
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection reads a connection's byte stream through a dedicated
// decoder until EOF or shutdown.
func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		s.activeConnections--
		s.mu.Unlock()
	}()

	remoteAddr := conn.RemoteAddr().String()
	s.logger.Info("Connection accepted", slog.String("remote_addr", remoteAddr))

	session := newDecodeSession(s.decoderOpts)
	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("Connection handler stopping due to shutdown",
				slog.String("remote_addr", remoteAddr))
			return
		default:
		}

		// Deadline so the loop can observe cancellation
		if err := conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set read deadline",
				slog.String("remote_addr", remoteAddr),
				slog.String("error", err.Error()),
			)
			return
		}

		n, err := conn.Read(buffer)
		if n > 0 {
			frames, delta := session.ingest(buffer[:n])
			s.sink.consume(frames, delta)
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("Connection closed by peer", slog.String("remote_addr", remoteAddr))
			} else {
				select {
				case <-s.ctx.Done():
				default:
					s.logger.Warn("Connection read error",
						slog.String("remote_addr", remoteAddr),
						slog.String("error", err.Error()),
					)
				}
			}
			return
		}
	}
}

// GetStatistics returns current TCP listener statistics
func (s *TCPServer) GetStatistics() TCPStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return TCPStatistics{
		ConnectionsAccepted: s.connectionsAccepted,
		ActiveConnections:   s.activeConnections,
	}
}

// TCPStatistics represents TCP listener performance counters
type TCPStatistics struct {
	ConnectionsAccepted uint64 `json:"connections_accepted"`
	ActiveConnections   uint64 `json:"active_connections"`
}
