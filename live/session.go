package live

import (
	"sync"
	"time"
)

// Session is the live-search state of one browser tab. It survives
// reconnects: a new socket for the same session displaces the old one.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`

	mu       sync.Mutex
	query    string
	outChan  chan struct{}
	kickChan chan struct{}
}

// Info is a consistent copy of a session's public state.
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`
	Query      string    `json:"query"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
		Connected:  s.Connected,
		Query:      s.query,
	}
}

// Query returns the last query the client searched for.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery records the client's current query.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.LastActive = time.Now()
}

// SetClient registers a channel that is signalled when results must be
// recomputed. If a previous client is connected it is kicked: its kick
// channel is closed so the socket handler can close that connection.
// Returns a kick channel that will be closed if this client is itself
// later displaced.
func (s *Session) SetClient(ch chan struct{}) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kickChan != nil {
		close(s.kickChan)
	}
	kick := make(chan struct{})
	s.kickChan = kick
	s.outChan = ch
	s.Connected = true
	s.LastActive = time.Now()
	return kick
}

// ClearClient is called when a connection ends. It only updates session
// state if ch is still the current owner (guards against a displaced
// connection clearing a newer one).
func (s *Session) ClearClient(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outChan == ch {
		s.outChan = nil
		s.Connected = false
		s.kickChan = nil
	}
}

// signal wakes the connected client, dropping the signal if one is already
// pending.
func (s *Session) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outChan == nil {
		return
	}
	select {
	case s.outChan <- struct{}{}:
	default:
	}
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastActive, s.Connected
}
