// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/discarena/network"
	"github.com/wfunc/discarena/state"
)

// Session is one connected participant. Identity and connection live for the
// whole socket; the match fields (Team, HoverCell, ActiveBlock) are assigned
// when a match starts and belong to exactly one match at a time. A session
// is never removed from its team mid-match, only marked disconnected.
//
// Nick is written by the session's own read goroutine before it enters the
// queue, and Team/Color by roster formation before the match goroutine
// starts; the queue lock and the goroutine start order both sides, so the
// fields stay plain. The match id has no such ordering (any read goroutine
// may complete the roster) and lives under the mutex.
type Session struct {
	ID    string
	Conn  network.Connection
	Nick  string
	Color uint32

	Team state.TeamTag

	CreatedAt time.Time

	mutex       sync.RWMutex
	matchID     string
	connected   bool
	lastActive  time.Time
	hoverCell   state.GridCoord
	activeBlock *state.GridCoord
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		connected:  true,
		lastActive: now,
		hoverCell:  state.NoHover,
	}
}

// Touch 刷新活跃时间
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

// LastActive returns the last time this session sent any intent.
func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

// SetLastActive exists for the inactivity sweep tests.
func (s *Session) SetLastActive(t time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = t
}

// SetMatch binds the session to a match for routing inbound intents.
func (s *Session) SetMatch(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.matchID = id
}

// Match returns the bound match id, empty when not in a match.
func (s *Session) Match() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.matchID
}

func (s *Session) SetConnected(connected bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.connected = connected
}

func (s *Session) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected
}

// SetHover records the hover cell in canonical orientation.
func (s *Session) SetHover(cell state.GridCoord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.hoverCell = cell
	s.lastActive = time.Now()
}

func (s *Session) Hover() state.GridCoord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.hoverCell
}

// SetActiveBlock records this session's single owned block coordinate and
// returns the previous one, if any, so the caller can evict it.
func (s *Session) SetActiveBlock(coord state.GridCoord) *state.GridCoord {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	old := s.activeBlock
	c := coord
	s.activeBlock = &c
	return old
}

func (s *Session) ActiveBlock() *state.GridCoord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.activeBlock == nil {
		return nil
	}
	c := *s.activeBlock
	return &c
}

// ClearActiveBlock 清除持有方块（得分后或对局结束）
func (s *Session) ClearActiveBlock() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.activeBlock = nil
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// Sharable returns the identity sent to the opposing side.
func (s *Session) Sharable() network.TeamInfo {
	return network.TeamInfo{Nick: s.Nick, Color: s.Color}
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager is the server-wide session registry.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot of every registered session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *Manager) GetByNick(nick string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Nick == nick {
			result = append(result, session)
		}
	}
	return result
}
