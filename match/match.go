// match/match.go
package match

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/models"
	"github.com/wfunc/discarena/network"
	"github.com/wfunc/discarena/session"
	"github.com/wfunc/discarena/state"
)

// Phase 对局生命周期阶段
type Phase int

const (
	PhaseActive Phase = iota
	PhaseAlmostDead
	PhaseMatchEnd
	PhaseDead
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseAlmostDead:
		return "almost_dead"
	case PhaseMatchEnd:
		return "match_end"
	case PhaseDead:
		return "dead"
	}
	return "unknown"
}

// SimFactory builds the physics engine for a freshly created world snapshot.
type SimFactory func(world *state.GameState) state.Simulator

// Hooks connect a match to its host without the match importing it. All
// hooks are optional and fire on the match goroutine.
type Hooks struct {
	// OnEnd fires once when the match reaches match_end.
	OnEnd func(rec *models.MatchRecord)
	// OnTickDuration reports how long each tick took.
	OnTickDuration func(d time.Duration)
	// OnBroadcastFailures reports failed per-recipient sends.
	OnBroadcastFailures func(n int)
}

// Match owns one live match: two teams, the canonical world snapshot, the
// simulation, and the lifecycle phase. All mutation happens on a single
// goroutine that serializes intents with the tick, so the mirror-and-restore
// sequence can never interleave with a placement.
type Match struct {
	ID        string
	cfg       config.GameConfig
	teamA     *Team
	teamB     *Team
	world     *state.GameState
	sim       state.Simulator
	hooks     Hooks
	startedAt time.Time

	phaseMutex sync.RWMutex
	phase      Phase

	intents   chan func()
	ticker    *time.Ticker
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewMatch builds a match from a pre-formed roster of connected sessions:
// the first half joins team A, the rest team B. game_start is broadcast to
// both teams immediately. Call Start to begin ticking.
func NewMatch(id string, cfg config.GameConfig, roster []*session.Session, newSim SimFactory, hooks Hooks) *Match {
	m := &Match{
		ID:        id,
		cfg:       cfg,
		teamA:     newTeam(state.TeamA),
		teamB:     newTeam(state.TeamB),
		world:     state.NewGameState(cfg.BoardWidth, cfg.BoardHeight),
		hooks:     hooks,
		startedAt: time.Now(),
		phase:     PhaseActive,
		intents:   make(chan func(), 256),
		closeChan: make(chan struct{}),
	}

	for i, s := range roster {
		if i < cfg.PlayersPerTeam {
			m.teamA.AddSession(s)
		} else {
			m.teamB.AddSession(s)
		}
		s.SetMatch(id)
	}

	m.sim = newSim(m.world)
	m.sim.OnScore(m.addScore)
	m.sim.OnDestroyBlock(func(coord state.GridCoord, team state.TeamTag, ownerID string) {
		if s := m.findSession(ownerID); s != nil {
			s.ClearActiveBlock()
		}
	})
	m.sim.OnBounce(func() {
		m.world.Bounced = true
	})
	m.sim.OnBlockPlaced(func() {
		m.world.BlockPlaced = true
	})

	startA, _ := json.Marshal(network.GameStart{ID: id, Me: m.teamA.Sharable(), Enemy: m.teamB.Sharable()})
	startB, _ := json.Marshal(network.GameStart{ID: id, Me: m.teamB.Sharable(), Enemy: m.teamA.Sharable()})
	m.broadcastTeam(m.teamA, network.MsgTypeGameStart, startA)
	m.broadcastTeam(m.teamB, network.MsgTypeGameStart, startB)

	return m
}

// broadcastTeam fans out to one side and reports delivery failures.
func (m *Match) broadcastTeam(t *Team, msgID uint16, data []byte) {
	if n := t.Broadcast(msgID, data); n > 0 && m.hooks.OnBroadcastFailures != nil {
		m.hooks.OnBroadcastFailures(n)
	}
}

// Start launches the match goroutine driving the fixed-rate tick.
func (m *Match) Start() {
	m.ticker = time.NewTicker(m.cfg.TickInterval)
	go m.loop()
}

func (m *Match) loop() {
	for {
		select {
		case <-m.ticker.C:
			if p := m.Phase(); p == PhaseActive || p == PhaseAlmostDead {
				start := time.Now()
				m.tick()
				if m.hooks.OnTickDuration != nil {
					m.hooks.OnTickDuration(time.Since(start))
				}
			}
		case fn := <-m.intents:
			fn()
		case <-m.closeChan:
			m.ticker.Stop()
			return
		}
	}
}

// post hands an intent to the match goroutine. Intents against a dead match
// or a full queue are dropped; rejection is silent game flow, not a fault.
func (m *Match) post(fn func()) {
	if m.Phase() == PhaseDead {
		return
	}
	select {
	case m.intents <- fn:
	default:
		logger.Log.Warnf("match %s: intent queue full, dropping", m.ID)
	}
}

func (m *Match) Phase() Phase {
	m.phaseMutex.RLock()
	defer m.phaseMutex.RUnlock()
	return m.phase
}

func (m *Match) setPhase(p Phase) {
	m.phaseMutex.Lock()
	defer m.phaseMutex.Unlock()
	m.phase = p
}

// Teams returns both sides, A first.
func (m *Match) Teams() (*Team, *Team) {
	return m.teamA, m.teamB
}

func (m *Match) team(tag state.TeamTag) *Team {
	if tag == state.TeamB {
		return m.teamB
	}
	return m.teamA
}

func (m *Match) findSession(sessionID string) *session.Session {
	if s := m.teamA.find(sessionID); s != nil {
		return s
	}
	return m.teamB.find(sessionID)
}

// HasPlayer reports whether the session belongs to this match.
func (m *Match) HasPlayer(sessionID string) bool {
	return m.findSession(sessionID) != nil
}

// HasConnectedPlayers reports whether anyone on either side is connected.
func (m *Match) HasConnectedPlayers() bool {
	return m.teamA.HasConnected() || m.teamB.HasConnected()
}

// --- inbound intents (called from network read goroutines) ---

// HandleHover records a member's cursor cell.
func (m *Match) HandleHover(s *session.Session, col, row int) {
	m.post(func() { m.applyHover(s, col, row) })
}

// HandleClick requests a block placement.
func (m *Match) HandleClick(s *session.Session, col, row int) {
	m.post(func() { m.applyClick(s, col, row) })
}

// HandleLeave marks a voluntary leave. Leave and forced disconnect are
// unified inputs to the same forfeit transition; almost_dead is kept as a
// marker for the old two-step teardown.
func (m *Match) HandleLeave(s *session.Session) {
	m.post(func() {
		logger.Log.Infof("match %s: session %s leaving", m.ID, s.ID)
		if m.Phase() == PhaseActive {
			m.setPhase(PhaseAlmostDead)
		}
		m.removePlayer(s.ID)
	})
}

// RemovePlayer handles a dropped connection: the remaining team wins by
// forfeit if the match was still running.
func (m *Match) RemovePlayer(sessionID string) {
	m.post(func() { m.removePlayer(sessionID) })
}

// canonicalRow flips a client-local row into server-canonical orientation.
// Team B views the board from the opposite end; team A's rows are canonical
// as received.
func (m *Match) canonicalRow(row int, team state.TeamTag) int {
	if team == state.TeamB {
		return m.cfg.BoardHeight - 1 - row
	}
	return row
}

func (m *Match) applyHover(s *session.Session, col, row int) {
	s.SetHover(state.GridCoord{X: col, Y: m.canonicalRow(row, s.Team)})
}

func (m *Match) applyClick(s *session.Session, col, row int) {
	s.Touch()
	m.placeBlock(s, col, m.canonicalRow(row, s.Team))
}

// placeBlock runs the placement pipeline in canonical orientation. Any
// failure rejects silently; the client observes only the absence of a state
// change. A successful placement evicts the session's previous block: each
// session owns at most one active block.
func (m *Match) placeBlock(s *session.Session, col, row int) {
	if m.Phase() != PhaseActive && m.Phase() != PhaseAlmostDead {
		return
	}
	if !m.isValidBlock(col, row, s.Team) {
		return
	}
	if !m.sim.AddBlock(col, row, s.Team, s.ID) {
		return
	}
	if old := s.SetActiveBlock(state.GridCoord{X: col, Y: row}); old != nil {
		m.sim.RemoveBlock(old.X, old.Y)
	}
}

func (m *Match) isValidBlock(col, row int, team state.TeamTag) bool {
	if col < 0 || col >= m.cfg.BoardWidth || row < 0 || row >= m.cfg.BoardHeight {
		return false
	}
	if m.world.CellAt(col, row) != state.CellEmpty {
		return false
	}
	// Opposing safe zone: the rows nearest each goal are closed to the
	// attacker.
	if team == state.TeamB && row > m.cfg.BoardHeight-1-m.cfg.SafeZoneDepth {
		return false
	}
	if team == state.TeamA && row < m.cfg.SafeZoneDepth {
		return false
	}
	return true
}

// --- tick ---

// tick advances one cycle: inactivity sweep, both team views, flag clear,
// simulation step. The sweep can forfeit the match; nothing past it may run
// once the phase is terminal, or the winner would get a second simulation
// step and possibly a second match end in the same cycle.
func (m *Match) tick() {
	m.checkPlayerActivity()
	if p := m.Phase(); p != PhaseActive && p != PhaseAlmostDead {
		return
	}

	m.broadcastViews()

	m.world.ClearFlags()

	m.sim.Update()
}

// broadcastViews sends the current snapshot to both teams, team A always
// first: A's view straight from canonical state, then an in-place mirror
// for B, then the restoring mirror.
func (m *Match) broadcastViews() {
	// Team A's view straight from canonical state.
	m.world.Scores = state.Scores{You: m.teamA.Score, Enemy: m.teamB.Score}
	m.world.HoverBlocks = m.teamB.HoverCells()
	m.world.Side = 1
	if data, err := network.EncodeTick(m.world); err == nil {
		m.broadcastTeam(m.teamA, network.MsgTypeInstanceTick, data)
	} else {
		logger.Log.Errorf("match %s: encode tick for team a: %v", m.ID, err)
	}

	// Mirror in place for team B and send.
	m.world.Mirror()
	m.world.Scores = state.Scores{You: m.teamB.Score, Enemy: m.teamA.Score}
	m.world.HoverBlocks = m.teamA.HoverCells()
	m.world.Side = 2
	if data, err := network.EncodeTick(m.world); err == nil {
		m.broadcastTeam(m.teamB, network.MsgTypeInstanceTick, data)
	} else {
		logger.Log.Errorf("match %s: encode tick for team b: %v", m.ID, err)
	}

	// Mirror is involutive; this restores canonical orientation exactly.
	m.world.Mirror()
	m.world.Scores = state.Scores{You: m.teamA.Score, Enemy: m.teamB.Score}
	m.world.HoverBlocks = m.teamB.HoverCells()
	m.world.Side = 1
}

// checkPlayerActivity force-disconnects sessions idle past the timeout.
// A forced disconnect feeds the same forfeit path as a voluntary leave.
func (m *Match) checkPlayerActivity() {
	now := time.Now()
	for _, t := range []*Team{m.teamA, m.teamB} {
		for _, s := range t.Sessions {
			if !s.IsConnected() {
				continue
			}
			if delay := now.Sub(s.LastActive()); delay >= m.cfg.InactivityTimeout {
				logger.Log.Infof("match %s: disconnecting session %s for inactivity (%v)", m.ID, s.ID, delay)
				s.Close()
				m.removePlayer(s.ID)
			}
		}
	}
}

// --- lifecycle ---

// addScore credits one point, resets the round, and ends the match when the
// winning threshold is met. Fired by the simulation's score callback.
func (m *Match) addScore(team state.TeamTag) {
	scoring := m.team(team)
	scoring.Score++

	m.sim.Reset()
	m.world.ResetGrid()
	m.world.Scored = true

	// Placements do not carry over across rounds.
	for _, s := range m.teamA.Sessions {
		s.ClearActiveBlock()
	}
	for _, s := range m.teamB.Sessions {
		s.ClearActiveBlock()
	}

	logger.Log.Infof("match %s: team %s scored, score now %d", m.ID, team, scoring.Score)

	if scoring.Score >= m.cfg.WinningScore {
		m.endMatch(scoring, false)
	}
}

// removePlayer marks a session disconnected. When its team has no connected
// members left, the opposing team wins by forfeit while the match is still
// running.
func (m *Match) removePlayer(sessionID string) {
	var team *Team
	if s := m.teamA.find(sessionID); s != nil {
		s.SetConnected(false)
		team = m.teamA
	} else if s := m.teamB.find(sessionID); s != nil {
		s.SetConnected(false)
		team = m.teamB
	}

	if team == nil || team.HasConnected() {
		return
	}
	if p := m.Phase(); p == PhaseActive || p == PhaseAlmostDead {
		winner := m.teamA
		if team == m.teamA {
			winner = m.teamB
		}
		m.endMatch(winner, true)
	}
}

// endMatch transitions to match_end, sends one final snapshot so both sides
// see the terminal score, and notifies each team of the outcome. match_end
// is terminal: a second trigger in the same tick (forfeit sweep followed by
// a scoring step) must not repeat the notifications or the end hook.
func (m *Match) endMatch(winner *Team, forfeit bool) {
	if p := m.Phase(); p != PhaseActive && p != PhaseAlmostDead {
		return
	}
	m.setPhase(PhaseMatchEnd)

	loser := m.teamB
	if winner.Tag == state.TeamB {
		loser = m.teamA
	}
	logger.Log.Infof("match %s: team %s won (forfeit=%v)", m.ID, winner.Tag, forfeit)

	m.broadcastViews()

	m.broadcastTeam(winner, network.MsgTypeVictory, []byte(`{}`))
	m.broadcastTeam(loser, network.MsgTypeDefeat, []byte(`{}`))

	if m.hooks.OnEnd != nil {
		m.hooks.OnEnd(m.record(winner, loser, forfeit))
	}
}

func (m *Match) record(winner, loser *Team, forfeit bool) *models.MatchRecord {
	rec := &models.MatchRecord{
		MatchID:     m.ID,
		Winner:      string(winner.Tag),
		WinnerScore: winner.Score,
		LoserScore:  loser.Score,
		Forfeit:     forfeit,
		Duration:    time.Since(m.startedAt),
		CreatedAt:   time.Now(),
	}
	for _, t := range []*Team{winner, loser} {
		outcome := "win"
		if t == loser {
			outcome = "lose"
		}
		for _, s := range t.Sessions {
			rec.Players = append(rec.Players, models.PlayerInfo{
				Nick:    s.Nick,
				Team:    string(t.Tag),
				Outcome: outcome,
				Points:  t.Score,
			})
		}
	}
	return rec
}

// Destroy tears the match down: everyone is marked disconnected and the
// loop stops. Idempotent; destroying a dead match is a no-op.
func (m *Match) Destroy() {
	m.closeOnce.Do(func() {
		for _, s := range m.teamA.Sessions {
			s.SetConnected(false)
		}
		for _, s := range m.teamB.Sessions {
			s.SetConnected(false)
		}
		m.setPhase(PhaseDead)
		close(m.closeChan)
	})
}
