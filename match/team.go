// match/team.go
package match

import (
	"github.com/wfunc/discarena/broadcast"
	"github.com/wfunc/discarena/network"
	"github.com/wfunc/discarena/session"
	"github.com/wfunc/discarena/state"
)

// Team is one ordered side of a match. Score is read-modify-written only by
// the match orchestrator.
type Team struct {
	Tag      state.TeamTag
	Nick     string
	Color    uint32
	Sessions []*session.Session
	Score    int
}

func newTeam(tag state.TeamTag) *Team {
	t := &Team{Tag: tag}
	if tag == state.TeamB {
		t.Nick = "Red"
		t.Color = 0xFF0000
	} else {
		t.Nick = "Blue"
		t.Color = 0x0000FF
	}
	return t
}

// AddSession binds a session to this team for the lifetime of the match.
func (t *Team) AddSession(s *session.Session) {
	s.Team = t.Tag
	s.Color = t.Color
	t.Sessions = append(t.Sessions, s)
}

// Blocks 返回全队当前持有的方块坐标
func (t *Team) Blocks() []state.GridCoord {
	var blocks []state.GridCoord
	for _, s := range t.Sessions {
		if b := s.ActiveBlock(); b != nil {
			blocks = append(blocks, *b)
		}
	}
	return blocks
}

// HoverCells returns the members' hover cells in roster order; the opposing
// team renders these as enemy cursors.
func (t *Team) HoverCells() []state.GridCoord {
	cells := make([]state.GridCoord, 0, len(t.Sessions))
	for _, s := range t.Sessions {
		cells = append(cells, s.Hover())
	}
	return cells
}

// Sharable is the team identity sent in game_start.
func (t *Team) Sharable() network.TeamInfo {
	return network.TeamInfo{Nick: t.Nick, Color: t.Color}
}

// Broadcast fans out to every member; failures are isolated per recipient.
// Returns the number of failed sends for metrics.
func (t *Team) Broadcast(msgID uint16, data []byte) int {
	return broadcast.ToSessions(t.Sessions, msgID, data)
}

// HasConnected reports whether any member is still connected.
func (t *Team) HasConnected() bool {
	for _, s := range t.Sessions {
		if s.IsConnected() {
			return true
		}
	}
	return false
}

func (t *Team) find(sessionID string) *session.Session {
	for _, s := range t.Sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}
