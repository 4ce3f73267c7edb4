package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/youngsinc/youngs-mcp/internal/domain/session"
)

// DefaultCleanupInterval is how often idle SSE sessions are swept when idle expiry is on.
const DefaultCleanupInterval = 1 * time.Minute

// sseSession is one registry entry: the SSE transport bound to an open
// response stream and, once connected, the protocol session running on it.
type sseSession struct {
	info      *session.Session
	transport *mcp.SSEServerTransport

	mu     sync.Mutex
	conn   *mcp.ServerSession
	closed bool
}

func newSSESession(info *session.Session, w http.ResponseWriter) *sseSession {
	return &sseSession{
		info: info,
		transport: &mcp.SSEServerTransport{
			Endpoint: info.Endpoint(),
			Response: w,
		},
	}
}

// ID returns the session identifier.
func (s *sseSession) ID() string {
	return s.info.ID
}

// attach records the connected protocol session. It reports false if the
// entry was closed before the connection finished, in which case the caller
// owns closing conn.
func (s *sseSession) attach(conn *mcp.ServerSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

// close ends the protocol session. Safe to call more than once.
func (s *sseSession) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (s *sseSession) touch(now time.Time) {
	s.mu.Lock()
	s.info.Touch(now)
	s.mu.Unlock()
}

func (s *sseSession) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.IdleSince(cutoff)
}

// sessionRegistry maps session IDs to open SSE sessions. It is created with
// the transport and torn down by closeAll on shutdown.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sseSession

	policy  session.CollisionPolicy
	metrics *Metrics
	logger  *slog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// newSessionRegistry creates an empty registry. metrics may be nil.
func newSessionRegistry(policy session.CollisionPolicy, metrics *Metrics, logger *slog.Logger) *sessionRegistry {
	if policy == "" {
		policy = session.CollisionReject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionRegistry{
		sessions: make(map[string]*sseSession),
		policy:   policy,
		metrics:  metrics,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// register inserts s under its ID. A live entry with the same ID is handled
// according to the collision policy: reject returns session.ErrSessionExists,
// replace closes the previous session and takes its slot.
func (r *sessionRegistry) register(s *sseSession) error {
	r.mu.Lock()
	prev, exists := r.sessions[s.ID()]
	if exists && r.policy == session.CollisionReject {
		r.mu.Unlock()
		r.logger.Warn("session id collision, rejecting new connection", "session_id", s.ID())
		r.event("rejected")
		return session.ErrSessionExists
	}
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	if exists {
		r.logger.Warn("session id collision, replacing live session", "session_id", s.ID())
		r.event("replaced")
		prev.close()
	}
	r.event("opened")
	r.setActive(n)
	return nil
}

// lookup returns the session registered under id.
func (r *sessionRegistry) lookup(id string) (*sseSession, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// remove deletes the entry for id. Removing an absent id is a no-op.
func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.event("closed")
		r.setActive(n)
	}
}

// unregister removes s only if it is still the registered entry for its ID,
// so a replaced connection cannot evict its successor.
func (r *sessionRegistry) unregister(s *sseSession) bool {
	r.mu.Lock()
	cur, ok := r.sessions[s.ID()]
	if !ok || cur != s {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.ID())
	n := len(r.sessions)
	r.mu.Unlock()

	r.event("closed")
	r.setActive(n)
	return true
}

// size returns the number of live sessions.
func (r *sessionRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// closeAll closes every session and empties the registry.
func (r *sessionRegistry) closeAll() {
	r.stop()

	r.mu.Lock()
	victims := make([]*sseSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		victims = append(victims, s)
	}
	r.sessions = make(map[string]*sseSession)
	r.mu.Unlock()

	for _, s := range victims {
		s.close()
	}
	r.setActive(0)
}

// expireIdle removes and closes sessions with no activity since cutoff.
// Returns the IDs that were expired.
func (r *sessionRegistry) expireIdle(cutoff time.Time) []string {
	r.mu.Lock()
	var victims []*sseSession
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			victims = append(victims, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	ids := make([]string, 0, len(victims))
	for _, s := range victims {
		s.close()
		ids = append(ids, s.ID())
		r.event("expired")
	}
	if len(victims) > 0 {
		r.setActive(n)
	}
	return ids
}

// startCleanup starts the idle-session sweeper. It stops when ctx is
// cancelled or closeAll is called.
func (r *sessionRegistry) startCleanup(ctx context.Context, interval, idleTimeout time.Duration) {
	if idleTimeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case now := <-ticker.C:
				if ids := r.expireIdle(now.Add(-idleTimeout)); len(ids) > 0 {
					r.logger.Info("expired idle sessions", "count", len(ids))
				}
			}
		}
	}()
}

// stop halts the sweeper and waits for it to exit.
func (r *sessionRegistry) stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

func (r *sessionRegistry) event(name string) {
	if r.metrics != nil {
		r.metrics.SessionEvents.WithLabelValues(name).Inc()
	}
}

func (r *sessionRegistry) setActive(n int) {
	if r.metrics != nil {
		r.metrics.ActiveSessions.Set(float64(n))
	}
}
