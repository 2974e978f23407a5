package sim

import (
	"math"
	"testing"

	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/state"
)

func newTestSim(t *testing.T) (*Sim, *state.GameState) {
	t.Helper()
	cfg := config.DefaultGameConfig()
	world := state.NewGameState(cfg.BoardWidth, cfg.BoardHeight)
	return New(world, cfg), world
}

func speed(v state.Vec2) float64 {
	return math.Hypot(v.X, v.Y)
}

func TestReset_ServesFromCenter(t *testing.T) {
	s, world := newTestSim(t)

	if world.Disc.Pos != (state.Vec2{}) {
		t.Errorf("disc should serve from center, got %+v", world.Disc.Pos)
	}
	got := speed(world.Disc.Vel)
	if math.Abs(got-s.cfg.DiscInitialSpeed) > 1e-9 {
		t.Errorf("serve speed should be %v, got %v", s.cfg.DiscInitialSpeed, got)
	}
	// Within 30 degrees of vertical the Y component dominates.
	if math.Abs(world.Disc.Vel.Y) < math.Abs(world.Disc.Vel.X) {
		t.Errorf("serve should be biased toward the goals, got %+v", world.Disc.Vel)
	}
}

func TestUpdate_ServeDelayHoldsDisc(t *testing.T) {
	s, world := newTestSim(t)

	// 750ms delay at 50ms steps: 15 held steps.
	held := int(s.cfg.DiscMoveDelay / s.cfg.TickInterval)
	for i := 0; i < held; i++ {
		s.Update()
		if world.Disc.Pos != (state.Vec2{}) {
			t.Fatalf("disc moved during serve delay at step %d", i)
		}
	}

	s.Update()
	if world.Disc.Pos == (state.Vec2{}) {
		t.Error("disc should move once the serve delay expires")
	}
}

func TestUpdate_SideWallBounceSpeedsUp(t *testing.T) {
	s, world := newTestSim(t)
	s.serveTicks = 0

	halfW := float64(world.Width()) / 2
	world.Disc.Pos = state.Vec2{X: halfW - 0.01, Y: 0}
	world.Disc.Vel = state.Vec2{X: 4, Y: 1}
	before := speed(world.Disc.Vel)

	bounced := false
	s.OnBounce(func() { bounced = true })

	s.Update()

	if world.Disc.Vel.X >= 0 {
		t.Error("x velocity should reverse at the side wall")
	}
	if !bounced {
		t.Error("bounce callback should fire")
	}
	after := speed(world.Disc.Vel)
	if math.Abs(after-(before+s.cfg.DiscBounceSpeedup)) > 1e-9 {
		t.Errorf("bounce should add %v speed, got %v -> %v", s.cfg.DiscBounceSpeedup, before, after)
	}
}

func TestBounce_SpeedClampedAtMax(t *testing.T) {
	s, world := newTestSim(t)
	s.serveTicks = 0

	world.Disc.Pos = state.Vec2{X: -float64(world.Width()) / 2, Y: 0}
	world.Disc.Vel = state.Vec2{X: -s.cfg.DiscMaxSpeed, Y: 0}

	s.Update()

	if got := speed(world.Disc.Vel); got > s.cfg.DiscMaxSpeed+1e-9 {
		t.Errorf("speed must not exceed %v, got %v", s.cfg.DiscMaxSpeed, got)
	}
}

func TestUpdate_GoalMouthScores(t *testing.T) {
	cases := []struct {
		name   string
		y, vy  float64
		scorer state.TeamTag
	}{
		{"far edge credits team a", -10.5, -3, state.TeamA},
		{"near edge credits team b", 10.5, 3, state.TeamB},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, world := newTestSim(t)
			s.serveTicks = 0

			var scored *state.TeamTag
			s.OnScore(func(team state.TeamTag) { scored = &team })

			// Dead center of the goal mouth.
			world.Disc.Pos = state.Vec2{X: 0, Y: tc.y}
			world.Disc.Vel = state.Vec2{X: 0, Y: tc.vy}

			s.Update()

			if scored == nil {
				t.Fatal("a disc through the goal mouth should score")
			}
			if *scored != tc.scorer {
				t.Errorf("scorer should be %s, got %s", tc.scorer, *scored)
			}
		})
	}
}

func TestUpdate_RimBouncesOutsideGoalMouth(t *testing.T) {
	s, world := newTestSim(t)
	s.serveTicks = 0

	scored := false
	s.OnScore(func(state.TeamTag) { scored = true })

	// Just outside the 8-wide mouth on a 12-wide board.
	world.Disc.Pos = state.Vec2{X: float64(s.cfg.GoalWidth)/2 + 0.5, Y: -10.5}
	world.Disc.Vel = state.Vec2{X: 0, Y: -3}

	s.Update()

	if scored {
		t.Error("a disc striking the rim must not score")
	}
	if world.Disc.Vel.Y <= 0 {
		t.Error("y velocity should reverse off the rim")
	}
}

func TestUpdate_BlockHitDestroysAndNotifies(t *testing.T) {
	s, world := newTestSim(t)
	s.serveTicks = 0

	if !s.AddBlock(6, 10, state.TeamB, "owner-1") {
		t.Fatal("setup: block placement should succeed")
	}

	var destroyed *state.GridCoord
	var ownerID string
	s.OnDestroyBlock(func(coord state.GridCoord, team state.TeamTag, owner string) {
		destroyed = &coord
		ownerID = owner
	})

	// Cell (6,10) spans x in [0,1), y in [0,1); drop the disc into it.
	world.Disc.Pos = state.Vec2{X: 0.5, Y: 0.4}
	world.Disc.Vel = state.Vec2{X: 0, Y: 2}

	s.Update()

	if destroyed == nil {
		t.Fatal("destroy callback should fire on a block hit")
	}
	if destroyed.X != 6 || destroyed.Y != 10 {
		t.Errorf("destroyed coord should be (6,10), got %v", destroyed)
	}
	if ownerID != "owner-1" {
		t.Errorf("owner should be reported, got %q", ownerID)
	}
	if world.CellAt(6, 10) != state.CellEmpty {
		t.Error("struck block should be cleared from the grid")
	}
	if world.Disc.Vel.Y >= 0 {
		t.Error("disc should deflect off the block")
	}
}

func TestAddBlock_RejectsDiscCell(t *testing.T) {
	s, world := newTestSim(t)

	world.Disc.Pos = state.Vec2{X: 0.5, Y: 0.5} // cell (6,10)
	if s.AddBlock(6, 10, state.TeamA, "owner-1") {
		t.Error("placement under the disc should be rejected")
	}
	if world.CellAt(6, 10) != state.CellEmpty {
		t.Error("rejected placement must not touch the grid")
	}
}

func TestAddBlock_RejectsOccupiedCell(t *testing.T) {
	s, _ := newTestSim(t)

	if !s.AddBlock(2, 8, state.TeamA, "owner-1") {
		t.Fatal("first placement should succeed")
	}
	if s.AddBlock(2, 8, state.TeamB, "owner-2") {
		t.Error("second placement on the same cell should be rejected")
	}
}

func TestRemoveBlock_SilentEviction(t *testing.T) {
	s, world := newTestSim(t)
	s.serveTicks = 0

	s.AddBlock(2, 8, state.TeamA, "owner-1")

	fired := false
	s.OnDestroyBlock(func(state.GridCoord, state.TeamTag, string) { fired = true })

	s.RemoveBlock(2, 8)

	if world.CellAt(2, 8) != state.CellEmpty {
		t.Error("evicted block should be cleared")
	}
	if fired {
		t.Error("eviction must not fire the destroy callback")
	}
}

func TestReset_ClearsOwnersAndRestartsDelay(t *testing.T) {
	s, world := newTestSim(t)
	s.AddBlock(2, 8, state.TeamA, "owner-1")
	s.serveTicks = 0

	s.Reset()

	if len(s.owners) != 0 {
		t.Error("ownership should be dropped on reset")
	}
	if s.serveTicks == 0 {
		t.Error("serve delay should restart on reset")
	}
	if world.Disc.Pos != (state.Vec2{}) {
		t.Error("disc should re-center on reset")
	}
}
