// state/state.go
package state

// TeamTag identifies one of the two sides of a match.
type TeamTag string

const (
	TeamA TeamTag = "a"
	TeamB TeamTag = "b"
)

// Opponent 返回对方队伍标记
func (t TeamTag) Opponent() TeamTag {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Cell is one grid square: empty or owned by a team.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellTeamA
	CellTeamB
)

// CellFor 返回队伍对应的格子值
func CellFor(team TeamTag) Cell {
	if team == TeamA {
		return CellTeamA
	}
	return CellTeamB
}

// GridCoord is a grid coordinate in canonical orientation (row 0 = team A's
// far edge). {-1,-1} is the out-of-bounds hover sentinel.
type GridCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoHover is the hover sentinel for a session that has not hovered yet.
var NoHover = GridCoord{X: -1, Y: -1}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Disc is the puck's continuous kinematic state. Coordinates are in grid
// cells with the origin at the board center; negative Y is toward row 0.
type Disc struct {
	Pos Vec2 `json:"pos"`
	Vel Vec2 `json:"vel"`
}

type Scores struct {
	You   int `json:"you"`
	Enemy int `json:"enemy"`
}

// GameState is the single canonical world snapshot of one match. The server
// stores exactly one orientation (team A's natural view); team B's view is
// derived by Mirror and never stored across ticks.
type GameState struct {
	Grid        [][]Cell    `json:"grid"`
	Disc        Disc        `json:"disc"`
	Scores      Scores      `json:"scores"`
	HoverBlocks []GridCoord `json:"hover_block"`
	Side        int         `json:"pos"` // 1 = team A's view, 2 = team B's

	// Transient per-tick flags, cleared at the end of every tick.
	Bounced     bool `json:"bounce"`
	BlockPlaced bool `json:"blockPlaced"`
	Scored      bool `json:"score"`
}

// NewGameState 创建空场地快照
func NewGameState(width, height int) *GameState {
	return &GameState{
		Grid:        newGrid(width, height),
		HoverBlocks: []GridCoord{},
		Side:        1,
	}
}

func newGrid(width, height int) [][]Cell {
	grid := make([][]Cell, height)
	for y := range grid {
		grid[y] = make([]Cell, width)
	}
	return grid
}

// Width returns the number of grid columns.
func (s *GameState) Width() int {
	if len(s.Grid) == 0 {
		return 0
	}
	return len(s.Grid[0])
}

// Height returns the number of grid rows.
func (s *GameState) Height() int {
	return len(s.Grid)
}

// CellAt reports the occupant of (col,row), CellEmpty if out of bounds.
func (s *GameState) CellAt(col, row int) Cell {
	if row < 0 || row >= s.Height() || col < 0 || col >= s.Width() {
		return CellEmpty
	}
	return s.Grid[row][col]
}

// SetCell writes the occupant of (col,row). Out-of-bounds writes are dropped.
func (s *GameState) SetCell(col, row int, c Cell) {
	if row < 0 || row >= s.Height() || col < 0 || col >= s.Width() {
		return
	}
	s.Grid[row][col] = c
}

// ResetGrid replaces the grid with a freshly emptied one of the same size.
// Used after every scoring event; placements do not carry over.
func (s *GameState) ResetGrid() {
	s.Grid = newGrid(s.Width(), s.Height())
}

// ClearFlags 清除本 tick 的瞬时标志
func (s *GameState) ClearFlags() {
	s.Bounced = false
	s.BlockPlaced = false
	s.Scored = false
}

// Mirror flips the snapshot's spatial fields into the opposite team's
// orientation: grid row order reversed, disc Y position and velocity negated.
// The transform is involutive; applying it twice restores the snapshot
// exactly, regardless of board parity. Score and hover assignment are per
// view and set by the caller before each send, not mirrored here.
func (s *GameState) Mirror() {
	for i, j := 0, len(s.Grid)-1; i < j; i, j = i+1, j-1 {
		s.Grid[i], s.Grid[j] = s.Grid[j], s.Grid[i]
	}
	s.Disc.Pos.Y = -s.Disc.Pos.Y
	s.Disc.Vel.Y = -s.Disc.Vel.Y
}
