package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/discarena/broadcast"
	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/match"
	"github.com/wfunc/discarena/models"
	"github.com/wfunc/discarena/monitor"
	"github.com/wfunc/discarena/network"
	"github.com/wfunc/discarena/persistence"
	arenarpc "github.com/wfunc/discarena/rpc"
	"github.com/wfunc/discarena/services"
	"github.com/wfunc/discarena/session"
	"github.com/wfunc/discarena/sim"
	"github.com/wfunc/discarena/state"
	"github.com/wfunc/discarena/timer"
)

// GameServer accepts websocket connections, queues players, and hands
// formed rosters to the match manager. Everything match-related past that
// point runs on the match's own goroutine.
type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	matchManager   *match.Manager
	sessionManager *session.Manager
	recordService  *services.MatchRecordService
	broadcaster    broadcast.Broadcaster
	rpcServer      *arenarpc.Server
	monitor        *monitor.Monitor
	timers         *timer.Manager

	queueMutex sync.Mutex
	queue      []*session.Session

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	timers := timer.NewManager()
	s := &GameServer{
		cfg:            cfg,
		matchManager:   match.NewManager(timers),
		sessionManager: session.NewManager(),
		recordService:  services.NewMatchRecordService(db),
		monitor:        monitor.NewMonitor("discarena"),
		timers:         timers,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)

	rpcServer, err := arenarpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	arenaService := arenarpc.NewArenaService(s.recordService, s.matchManager, s.sessionManager)
	rpc.Register(arenaService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	if s.cfg.Server.MetricsAddress != "" {
		s.monitor.StartServer(s.cfg.Server.MetricsAddress)
	}

	// Keep the match gauge fresh; matches are also torn down by timers.
	s.timers.AddTimer(0, 5*time.Second, func() {
		s.monitor.SetActiveMatches(s.matchManager.Count())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	notice, _ := json.Marshal(map[string]string{"reason": "server_shutdown"})
	if err := s.broadcaster.BroadcastToAll(network.MsgTypeServerNotice, notice); err != nil {
		logger.Log.Infof("shutdown notice: %v", err)
	}
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.monitor.DecOnlinePlayers()
		s.sessionManager.Remove(sess.GetID())
		s.dequeue(sess)
		// A dropped connection mid-match forfeits in favor of the opponent.
		if matchID := sess.Match(); matchID != "" {
			if m, exists := s.matchManager.Get(matchID); exists {
				m.RemovePlayer(sess.GetID())
			}
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeJoinQueue:
		s.handleJoinQueue(sess, packet)
	case network.MsgTypeHoverChange:
		s.handleGridIntent(sess, packet, intentHover)
	case network.MsgTypeMouseClick:
		s.handleGridIntent(sess, packet, intentClick)
	case network.MsgTypeLeaveInstance:
		s.handleLeaveInstance(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleJoinQueue(sess *session.Session, packet *network.Packet) {
	var req network.JoinQueueRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	if req.Nick != "" {
		sess.Nick = req.Nick
	} else {
		sess.Nick = "anon-" + sess.GetID()[:8]
	}
	sess.Touch()

	s.queueMutex.Lock()
	s.queue = append(s.queue, sess)
	s.queueMutex.Unlock()

	logger.Log.Infof("Session %s (%s) joined the queue", sess.GetID(), sess.Nick)
	s.tryStartMatch()
}

// tryStartMatch forms a roster of 2×players_per_team queued sessions and
// spins up a match for them.
func (s *GameServer) tryStartMatch() {
	s.queueMutex.Lock()
	defer s.queueMutex.Unlock()

	// Prune sessions that dropped while waiting.
	alive := s.queue[:0]
	for _, sess := range s.queue {
		if sess.IsConnected() {
			alive = append(alive, sess)
		}
	}
	s.queue = alive

	need := s.cfg.Game.PlayersPerTeam * 2
	if len(s.queue) < need {
		return
	}

	roster := make([]*session.Session, need)
	copy(roster, s.queue[:need])
	s.queue = append([]*session.Session{}, s.queue[need:]...)

	id := uuid.New().String()
	gameCfg := s.cfg.Game

	hooks := match.Hooks{
		OnEnd: func(rec *models.MatchRecord) {
			s.recordService.SaveResult(rec)
		},
		OnTickDuration:      s.monitor.ObserveTickDuration,
		OnBroadcastFailures: s.monitor.IncBroadcastFailures,
	}

	s.matchManager.CreateMatch(id, gameCfg, roster, func(world *state.GameState) state.Simulator {
		return sim.New(world, gameCfg)
	}, hooks)
	s.monitor.SetActiveMatches(s.matchManager.Count())

	logger.Log.Infof("Started match %s with %d players", id, need)
}

func (s *GameServer) dequeue(sess *session.Session) {
	s.queueMutex.Lock()
	defer s.queueMutex.Unlock()

	for i, queued := range s.queue {
		if queued.GetID() == sess.GetID() {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

type intentKind int

const (
	intentHover intentKind = iota
	intentClick
)

func (s *GameServer) handleGridIntent(sess *session.Session, packet *network.Packet, kind intentKind) {
	matchID := sess.Match()
	if matchID == "" {
		return
	}
	var ev network.GridEvent
	if err := json.Unmarshal(packet.Data, &ev); err != nil {
		return
	}

	m, exists := s.matchManager.Get(matchID)
	if !exists {
		logger.Log.Warnf("Match %s not found for session %s", matchID, sess.GetID())
		return
	}

	s.monitor.IncIntentsReceived()
	switch kind {
	case intentHover:
		m.HandleHover(sess, ev.X, ev.Y)
	case intentClick:
		m.HandleClick(sess, ev.X, ev.Y)
	}
}

func (s *GameServer) handleLeaveInstance(sess *session.Session) {
	matchID := sess.Match()
	if matchID == "" {
		return
	}
	if m, exists := s.matchManager.Get(matchID); exists {
		m.HandleLeave(sess)
	}
}
