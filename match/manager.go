// match/manager.go
package match

import (
	"sync"

	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/models"
	"github.com/wfunc/discarena/session"
	"github.com/wfunc/discarena/timer"
)

// Manager owns every live match on this server. Matches share no mutable
// state with each other and run on independent goroutines.
type Manager struct {
	matches map[string]*Match
	timers  *timer.Manager
	mutex   sync.RWMutex
}

func NewManager(timers *timer.Manager) *Manager {
	return &Manager{
		matches: make(map[string]*Match),
		timers:  timers,
	}
}

// CreateMatch builds and starts a match, and schedules its teardown for
// win_screen_timeout after it ends so clients can show the result screen.
func (m *Manager) CreateMatch(id string, cfg config.GameConfig, roster []*session.Session, newSim SimFactory, hooks Hooks) *Match {
	userOnEnd := hooks.OnEnd
	hooks.OnEnd = func(rec *models.MatchRecord) {
		if userOnEnd != nil {
			userOnEnd(rec)
		}
		m.timers.AddTimer(cfg.WinScreenTimeout, 0, func() {
			m.Remove(id)
		})
	}

	match := NewMatch(id, cfg, roster, newSim, hooks)
	match.Start()

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.matches[id] = match
	return match
}

// Remove destroys and forgets a match. Safe to call twice.
func (m *Manager) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if match, exists := m.matches[id]; exists {
		match.Destroy()
		delete(m.matches, id)
	}
}

func (m *Manager) Get(id string) (*Match, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	match, exists := m.matches[id]
	return match, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.matches)
}
