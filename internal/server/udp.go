package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/config"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/framer"
)

// UDPServer receives FusionEngine frames carried in UDP datagrams. Each
// remote peer gets its own decoder so a frame split across datagrams from
// one sender cannot corrupt another sender's stream.
type UDPServer struct {
	conn        *net.UDPConn
	config      *config.ServerConfig
	decoderOpts framer.Options
	logger      *slog.Logger
	sink        *FrameSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	packetChan chan *incomingPacket

	peersMu sync.Mutex
	peers   map[string]*decodeSession

	mu              sync.RWMutex
	packetsReceived uint64
	packetsDropped  uint64
}

// incomingPacket represents a received UDP datagram with metadata
type incomingPacket struct {
	data       []byte
	remoteAddr *net.UDPAddr
	timestamp  time.Time
}

// NewUDPServer creates a new UDP listener instance
func NewUDPServer(cfg *config.ServerConfig, decoderOpts framer.Options, logger *slog.Logger, sink *FrameSink) *UDPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &UDPServer{
		config:      cfg,
		decoderOpts: decoderOpts,
		logger:      logger,
		sink:        sink,
		ctx:         ctx,
		cancel:      cancel,
		packetChan:  make(chan *incomingPacket, 1000),
		peers:       make(map[string]*decodeSession),
	}
}

// Start begins listening for UDP datagrams
func (s *UDPServer) Start() error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.UDPPort))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	s.conn = conn

	if err := s.conn.SetReadBuffer(s.config.BufferSize); err != nil {
		s.logger.Warn("Failed to set UDP read buffer size",
			slog.Int("buffer_size", s.config.BufferSize),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("UDP server started",
		slog.String("address", addr.String()),
		slog.Int("buffer_size", s.config.BufferSize),
	)

	numWorkers := 4
	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go s.packetProcessor(i)
	}

	s.wg.Add(1)
	go s.receiveLoop()

	return nil
}

// Stop gracefully stops the UDP server
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}

	close(s.packetChan)
	s.wg.Wait()

	s.mu.RLock()
	packetsReceived := s.packetsReceived
	packetsDropped := s.packetsDropped
	s.mu.RUnlock()

	s.logger.Info("UDP server stopped",
		slog.Uint64("packets_received", packetsReceived),
		slog.Uint64("packets_dropped", packetsDropped),
	)

	return nil
}

// receiveLoop is the main datagram receiving loop
func (s *UDPServer) receiveLoop() {
	defer s.wg.Done()

	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Receive loop stopping due to context cancellation")
			return
		default:
		}

		// Deadline so the loop can observe cancellation
		if err := s.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set read deadline", slog.String("error", err.Error()))
			continue
		}

		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}

			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to read UDP datagram", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.packetsReceived++
		s.mu.Unlock()

		// Copy out, the read buffer is reused
		packetData := make([]byte, n)
		copy(packetData, buffer[:n])

		packet := &incomingPacket{
			data:       packetData,
			remoteAddr: remoteAddr,
			timestamp:  time.Now(),
		}

		select {
		case s.packetChan <- packet:
		default:
			s.mu.Lock()
			s.packetsDropped++
			s.mu.Unlock()

			s.logger.Warn("Packet processing queue full, dropping datagram",
				slog.String("remote_addr", remoteAddr.String()),
				slog.Int("packet_size", n),
			)
		}
	}
}

// packetProcessor processes datagrams from the packet channel
func (s *UDPServer) packetProcessor(workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Packet processor started", slog.Int("worker_id", workerID))

	for packet := range s.packetChan {
		s.handlePacket(packet)
	}

	s.logger.Debug("Packet processor stopped", slog.Int("worker_id", workerID))
}

// handlePacket feeds a single datagram through the peer's decoder
func (s *UDPServer) handlePacket(packet *incomingPacket) {
	session := s.peerSession(packet.remoteAddr.String())

	frames, delta := session.ingest(packet.data)
	s.sink.consume(frames, delta)
}

// peerSession returns the decoder session for a remote address, creating
// one on first contact.
func (s *UDPServer) peerSession(remoteAddr string) *decodeSession {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	session, exists := s.peers[remoteAddr]
	if !exists {
		session = newDecodeSession(s.decoderOpts)
		s.peers[remoteAddr] = session

		s.logger.Debug("New UDP peer", slog.String("remote_addr", remoteAddr))
	}
	return session
}

// GetStatistics returns current UDP listener statistics
func (s *UDPServer) GetStatistics() UDPStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.peersMu.Lock()
	peerCount := len(s.peers)
	s.peersMu.Unlock()

	return UDPStatistics{
		PacketsReceived: s.packetsReceived,
		PacketsDropped:  s.packetsDropped,
		ActivePeers:     uint64(peerCount),
		QueueSize:       uint64(len(s.packetChan)),
		QueueCapacity:   uint64(cap(s.packetChan)),
	}
}

// UDPStatistics represents UDP listener performance counters
type UDPStatistics struct {
	PacketsReceived uint64 `json:"packets_received"`
	PacketsDropped  uint64 `json:"packets_dropped"`
	ActivePeers     uint64 `json:"active_peers"`
	QueueSize       uint64 `json:"queue_size"`
	QueueCapacity   uint64 `json:"queue_capacity"`
}
