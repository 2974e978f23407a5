package network

const (
	MsgTypeHeartbeat     = 1
	MsgTypeServerNotice  = 2
	MsgTypeJoinQueue     = 101
	MsgTypeLeaveInstance = 102
	MsgTypeHoverChange   = 201
	MsgTypeMouseClick    = 202
	MsgTypeGameStart     = 301
	MsgTypeInstanceTick  = 302
	MsgTypeVictory       = 303
	MsgTypeDefeat        = 304
)

// JoinQueueRequest 排队请求
type JoinQueueRequest struct {
	Nick string `json:"nick"`
}

// GridEvent is an inbound hover or click intent in the sender's local
// orientation; the match flips it to canonical orientation per team.
type GridEvent struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TeamInfo is the sharable identity of one side.
type TeamInfo struct {
	Nick  string `json:"nick"`
	Color uint32 `json:"color"`
}

// GameStart is sent once to each team when a match begins.
type GameStart struct {
	ID    string   `json:"id"`
	Me    TeamInfo `json:"me"`
	Enemy TeamInfo `json:"enemy"`
}
