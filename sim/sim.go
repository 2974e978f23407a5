// sim/sim.go
package sim

import (
	"math"
	"math/rand"

	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/state"
)

type blockOwner struct {
	team    state.TeamTag
	ownerID string
}

// Sim advances the disc inside the shared snapshot and resolves block
// collisions and goals. It mutates the snapshot only from Update and
// AddBlock/RemoveBlock, which the match serializes on its own goroutine.
type Sim struct {
	world *state.GameState
	cfg   config.GameConfig
	dt    float64 // seconds per step
	rng   *rand.Rand

	owners     map[state.GridCoord]blockOwner
	serveTicks int // steps to hold the disc after a reset

	onScore        func(team state.TeamTag)
	onDestroyBlock func(coord state.GridCoord, team state.TeamTag, ownerID string)
	onBounce       func()
	onBlockPlaced  func()
}

// New 创建模拟器并发球
func New(world *state.GameState, cfg config.GameConfig) *Sim {
	s := &Sim{
		world:  world,
		cfg:    cfg,
		dt:     cfg.TickInterval.Seconds(),
		rng:    rand.New(rand.NewSource(rand.Int63())),
		owners: make(map[state.GridCoord]blockOwner),
	}
	s.Reset()
	return s
}

func (s *Sim) OnScore(fn func(team state.TeamTag)) { s.onScore = fn }
func (s *Sim) OnDestroyBlock(fn func(coord state.GridCoord, team state.TeamTag, ownerID string)) {
	s.onDestroyBlock = fn
}
func (s *Sim) OnBounce(fn func())      { s.onBounce = fn }
func (s *Sim) OnBlockPlaced(fn func()) { s.onBlockPlaced = fn }

// Reset re-centers the disc and serves it in a random direction after the
// configured move delay. Block state is untouched; the match resets the grid.
func (s *Sim) Reset() {
	s.world.Disc.Pos = state.Vec2{}
	s.world.Disc.Vel = s.serveVelocity()
	s.owners = make(map[state.GridCoord]blockOwner)
	if s.cfg.TickInterval > 0 {
		s.serveTicks = int(s.cfg.DiscMoveDelay / s.cfg.TickInterval)
	}
}

// serveVelocity picks a serve direction biased away from the side walls so
// the disc always makes progress toward a goal.
func (s *Sim) serveVelocity() state.Vec2 {
	angle := (s.rng.Float64() - 0.5) * math.Pi / 3 // within 30 deg of vertical
	dir := 1.0
	if s.rng.Intn(2) == 0 {
		dir = -1.0
	}
	return state.Vec2{
		X: s.cfg.DiscInitialSpeed * math.Sin(angle),
		Y: s.cfg.DiscInitialSpeed * math.Cos(angle) * dir,
	}
}

// AddBlock places a block at (col,row) unless the disc currently overlaps
// that cell.
func (s *Sim) AddBlock(col, row int, team state.TeamTag, ownerID string) bool {
	if s.world.CellAt(col, row) != state.CellEmpty {
		return false
	}
	if dc, dr := s.discCell(); dc == col && dr == row {
		return false
	}
	s.world.SetCell(col, row, state.CellFor(team))
	s.owners[state.GridCoord{X: col, Y: row}] = blockOwner{team: team, ownerID: ownerID}
	if s.onBlockPlaced != nil {
		s.onBlockPlaced()
	}
	return true
}

// RemoveBlock clears (col,row) without firing the destroy callback; used
// when a player's older block is evicted by a new placement.
func (s *Sim) RemoveBlock(col, row int) {
	s.world.SetCell(col, row, state.CellEmpty)
	delete(s.owners, state.GridCoord{X: col, Y: row})
}

// Update advances the disc by one step and resolves wall bounces, block
// hits and goals. Callbacks fire synchronously.
func (s *Sim) Update() {
	if s.serveTicks > 0 {
		s.serveTicks--
		return
	}

	d := &s.world.Disc
	d.Pos.X += d.Vel.X * s.dt
	d.Pos.Y += d.Vel.Y * s.dt

	halfW := float64(s.world.Width()) / 2
	halfH := float64(s.world.Height()) / 2

	// Side walls.
	if (d.Pos.X <= -halfW && d.Vel.X < 0) || (d.Pos.X >= halfW && d.Vel.X > 0) {
		d.Vel.X = -d.Vel.X
		s.bounce()
	}

	// End walls: goal mouth scores, rim bounces. Row 0 (negative Y) is team
	// A's far edge, so a disc leaving there went into team B's goal.
	if d.Pos.Y <= -halfH && d.Vel.Y < 0 {
		if s.inGoalMouth(d.Pos.X) {
			if s.onScore != nil {
				s.onScore(state.TeamA)
			}
			return
		}
		d.Vel.Y = -d.Vel.Y
		s.bounce()
	} else if d.Pos.Y >= halfH && d.Vel.Y > 0 {
		if s.inGoalMouth(d.Pos.X) {
			if s.onScore != nil {
				s.onScore(state.TeamB)
			}
			return
		}
		d.Vel.Y = -d.Vel.Y
		s.bounce()
	}

	// Block hit: destroy the struck block and deflect.
	col, row := s.discCell()
	if s.world.CellAt(col, row) != state.CellEmpty {
		coord := state.GridCoord{X: col, Y: row}
		owner := s.owners[coord]
		s.world.SetCell(col, row, state.CellEmpty)
		delete(s.owners, coord)
		d.Vel.Y = -d.Vel.Y
		s.bounce()
		if s.onDestroyBlock != nil {
			s.onDestroyBlock(coord, owner.team, owner.ownerID)
		}
	}
}

// bounce speeds the disc up and notifies the match.
func (s *Sim) bounce() {
	d := &s.world.Disc
	speed := math.Hypot(d.Vel.X, d.Vel.Y)
	if speed > 0 {
		target := math.Min(speed+s.cfg.DiscBounceSpeedup, s.cfg.DiscMaxSpeed)
		scale := target / speed
		d.Vel.X *= scale
		d.Vel.Y *= scale
	}
	if s.onBounce != nil {
		s.onBounce()
	}
}

func (s *Sim) inGoalMouth(x float64) bool {
	return math.Abs(x) < float64(s.cfg.GoalWidth)/2
}

// discCell maps the disc's continuous position onto a grid cell.
func (s *Sim) discCell() (col, row int) {
	halfW := float64(s.world.Width()) / 2
	halfH := float64(s.world.Height()) / 2
	col = int(math.Floor(s.world.Disc.Pos.X + halfW))
	row = int(math.Floor(s.world.Disc.Pos.Y + halfH))
	return col, row
}
