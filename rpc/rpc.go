package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/match"
	"github.com/wfunc/discarena/models"
	"github.com/wfunc/discarena/services"
	"github.com/wfunc/discarena/session"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ArenaService exposes admin queries over net/rpc.
type ArenaService struct {
	records        *services.MatchRecordService
	matchManager   *match.Manager
	sessionManager *session.Manager
}

func NewArenaService(records *services.MatchRecordService, matchManager *match.Manager, sessionManager *session.Manager) *ArenaService {
	return &ArenaService{
		records:        records,
		matchManager:   matchManager,
		sessionManager: sessionManager,
	}
}

type GetPlayerStatsArgs struct {
	Nick string
}

type GetPlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (as *ArenaService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := as.records.PlayerStats(args.Nick)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type ServerStatusArgs struct{}

type ServerStatusReply struct {
	ActiveMatches int
	OnlinePlayers int
}

func (as *ArenaService) GetServerStatus(args *ServerStatusArgs, reply *ServerStatusReply) error {
	reply.ActiveMatches = as.matchManager.Count()
	reply.OnlinePlayers = as.sessionManager.Count()
	return nil
}
