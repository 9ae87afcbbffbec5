package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

// cleanupInterval is how often expired sessions are collected.
const cleanupInterval = 30 * time.Second

// Session accumulates diagnostics for one source identifier.
type Session struct {
	SourceID     uint32
	FirstSeen    time.Time
	LastActivity time.Time

	FramesReceived uint64
	BytesReceived  uint64
	SequenceGaps   uint64
	LastSequence   uint32
	framesByType   map[uint16]uint64
	haveSequence   bool

	mu sync.RWMutex
}

// Manager tracks all active source sessions
type Manager struct {
	sessions map[uint32]*Session
	mu       sync.RWMutex
	logger   *slog.Logger
	timeout  time.Duration

	// Eviction notification, used by the server to update gauges
	onExpire func(*Session)

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// NewManager creates a session manager and starts its cleanup routine.
// Sessions inactive longer than timeout are evicted; onExpire, if non-nil,
// is invoked for each evicted session.
func NewManager(logger *slog.Logger, timeout time.Duration, onExpire func(*Session)) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		sessions: make(map[uint32]*Session),
		logger:   logger,
		timeout:  timeout,
		onExpire: onExpire,
		ctx:      ctx,
		cancel:   cancel,
		cleanup:  make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr
}

// Record updates the session for the frame's source, creating it on first
// sight, and returns whether this frame opened a sequence gap.
func (m *Manager) Record(header *protocol.Header) (created, gap bool) {
	m.mu.Lock()
	session, exists := m.sessions[header.SourceID]
	if !exists {
		now := time.Now()
		session = &Session{
			SourceID:     header.SourceID,
			FirstSeen:    now,
			LastActivity: now,
			framesByType: make(map[uint16]uint64),
		}
		m.sessions[header.SourceID] = session
		created = true
	}
	m.mu.Unlock()

	if created {
		m.logger.Info("New source session",
			slog.Uint64("source_id", uint64(header.SourceID)),
			slog.Uint64("sequence", uint64(header.SequenceNumber)),
		)
	}

	session.mu.Lock()
	session.LastActivity = time.Now()
	session.FramesReceived++
	session.BytesReceived += uint64(header.FrameSize())
	session.framesByType[header.MessageType]++

	if session.haveSequence && header.SequenceNumber != session.LastSequence+1 {
		session.SequenceGaps++
		gap = true
	}
	session.LastSequence = header.SequenceNumber
	session.haveSequence = true
	session.mu.Unlock()

	if gap {
		m.logger.Debug("Sequence discontinuity",
			slog.Uint64("source_id", uint64(header.SourceID)),
			slog.Uint64("sequence", uint64(header.SequenceNumber)),
		)
	}

	return created, gap
}

// GetSession retrieves an existing source session
func (m *Manager) GetSession(sourceID uint32) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sourceID]
	return session, exists
}

// GetActiveSessionCount returns the number of currently active sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshot returns session information for all active sessions (for the
// monitoring API)
func (m *Manager) Snapshot() []SessionInfo {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// RemoveSession removes a source session
func (m *Manager) RemoveSession(sourceID uint32) bool {
	m.mu.Lock()
	session, exists := m.sessions[sourceID]
	if exists {
		delete(m.sessions, sourceID)
	}
	m.mu.Unlock()

	if !exists {
		return false
	}

	info := session.Info()
	m.logger.Info("Source session removed",
		slog.Uint64("source_id", uint64(sourceID)),
		slog.Uint64("frames_received", info.FramesReceived),
		slog.Uint64("sequence_gaps", info.SequenceGaps),
		slog.Duration("duration", time.Since(info.FirstSeen)),
	)

	return true
}

// Stop gracefully stops the manager's cleanup routine
func (m *Manager) Stop() {
	m.cancel()
	<-m.cleanup

	m.logger.Info("Session manager stopped",
		slog.Int("remaining_sessions", m.GetActiveSessionCount()),
	)
}

// startCleanupRoutine runs in a separate goroutine to clean up expired sessions
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanupExpiredSessions()
		}
	}
}

// cleanupExpiredSessions removes sessions that have been inactive for too long
func (m *Manager) cleanupExpiredSessions() {
	now := time.Now()
	expired := make([]*Session, 0)

	m.mu.Lock()
	for sourceID, session := range m.sessions {
		session.mu.RLock()
		lastActivity := session.LastActivity
		session.mu.RUnlock()

		if now.Sub(lastActivity) > m.timeout {
			delete(m.sessions, sourceID)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		info := session.Info()
		m.logger.Info("Expired inactive source session",
			slog.Uint64("source_id", uint64(info.SourceID)),
			slog.Uint64("frames_received", info.FramesReceived),
			slog.Duration("idle", now.Sub(info.LastActivity)),
		)
		if m.onExpire != nil {
			m.onExpire(session)
		}
	}
}

// Info returns a point-in-time copy of the session's counters.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[uint16]uint64, len(s.framesByType))
	for messageType, count := range s.framesByType {
		byType[messageType] = count
	}

	return SessionInfo{
		SourceID:       s.SourceID,
		FirstSeen:      s.FirstSeen,
		LastActivity:   s.LastActivity,
		FramesReceived: s.FramesReceived,
		BytesReceived:  s.BytesReceived,
		SequenceGaps:   s.SequenceGaps,
		LastSequence:   s.LastSequence,
		FramesByType:   byType,
	}
}

// SessionInfo represents session diagnostics for monitoring and APIs
type SessionInfo struct {
	SourceID       uint32            `json:"source_id"`
	FirstSeen      time.Time         `json:"first_seen"`
	LastActivity   time.Time         `json:"last_activity"`
	FramesReceived uint64            `json:"frames_received"`
	BytesReceived  uint64            `json:"bytes_received"`
	SequenceGaps   uint64            `json:"sequence_gaps"`
	LastSequence   uint32            `json:"last_sequence"`
	FramesByType   map[uint16]uint64 `json:"frames_by_type"`
}
