package gateway

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/gbtlink/internal/observability"
)

var (
	ErrDuplicateVIN = errors.New("gateway: vin already logged in on another connection")
	ErrNotLoggedIn  = errors.New("gateway: vin not logged in on this connection")
)

// Session is one logged in vehicle.
type Session struct {
	VIN      string    `json:"vin"`
	ConnID   string    `json:"conn_id"`
	Remote   string    `json:"remote"`
	LoginSeq uint16    `json:"login_seq"`
	LoginAt  time.Time `json:"login_at"`
	LastSeen time.Time `json:"last_seen"`
	Frames   uint64    `json:"frames"`
}

// Sessions maps VINs to the connection that logged them in. It is safe for
// concurrent use.
type Sessions struct {
	mu    sync.RWMutex
	byVIN map[string]*Session
	now   func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		byVIN: make(map[string]*Session),
		now:   time.Now,
	}
}

// Login records vin against connID. A repeated login on the same connection
// refreshes the session; a login while another connection holds vin fails
// with ErrDuplicateVIN.
func (s *Sessions) Login(vin, connID, remote string, seq uint16) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cur, ok := s.byVIN[vin]; ok && cur.ConnID != connID {
		return *cur, fmt.Errorf("%w: %s held by %s", ErrDuplicateVIN, vin, cur.ConnID)
	}
	sess := &Session{
		VIN:      vin,
		ConnID:   connID,
		Remote:   remote,
		LoginSeq: seq,
		LoginAt:  now,
		LastSeen: now,
		Frames:   1,
	}
	s.byVIN[vin] = sess
	observability.SetActiveSessions(len(s.byVIN))
	return *sess, nil
}

func (s *Sessions) Logout(vin, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byVIN[vin]
	if !ok || cur.ConnID != connID {
		return fmt.Errorf("%w: %s", ErrNotLoggedIn, vin)
	}
	delete(s.byVIN, vin)
	observability.SetActiveSessions(len(s.byVIN))
	return nil
}

// Touch marks activity for vin on connID and reports whether such a session
// exists.
func (s *Sessions) Touch(vin, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byVIN[vin]
	if !ok || cur.ConnID != connID {
		return false
	}
	cur.LastSeen = s.now()
	cur.Frames++
	return true
}

// DropConn removes every session held by connID and returns their VINs.
func (s *Sessions) DropConn(connID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	for vin, sess := range s.byVIN {
		if sess.ConnID == connID {
			delete(s.byVIN, vin)
			dropped = append(dropped, vin)
		}
	}
	sort.Strings(dropped)
	observability.SetActiveSessions(len(s.byVIN))
	return dropped
}

func (s *Sessions) Get(vin string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.byVIN[vin]
	if !ok {
		return Session{}, false
	}
	return *cur, true
}

// Snapshot returns copies of all sessions ordered by VIN.
func (s *Sessions) Snapshot() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.byVIN))
	for _, sess := range s.byVIN {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	return out
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byVIN)
}
