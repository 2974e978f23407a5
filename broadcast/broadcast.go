// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/session"
)

var (
	ErrNoRecipients = errors.New("no recipients")
)

// ToSessions fans a message out to every session independently. A failed
// send is logged and skipped; it never aborts delivery to the remaining
// recipients. Returns the number of failed sends.
func ToSessions(sessions []*session.Session, msgID uint16, data []byte) int {
	failed := 0
	for _, s := range sessions {
		if !s.IsConnected() {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnf("broadcast to session %s failed: %v", s.GetID(), err)
			failed++
		}
	}
	return failed
}

// Broadcaster 服务器级广播
type Broadcaster interface {
	BroadcastToAll(msgID uint16, data []byte) error
}

// SessionBroadcaster broadcasts over the server-wide session registry.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessionManager: sessionManager}
}

func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	sessions := b.sessionManager.All()
	if len(sessions) == 0 {
		return ErrNoRecipients
	}
	ToSessions(sessions, msgID, data)
	return nil
}
