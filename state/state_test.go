package state

import (
	"reflect"
	"testing"
)

func buildSnapshot(width, height int) *GameState {
	s := NewGameState(width, height)
	// Asymmetric occupancy so a row-order bug cannot cancel out.
	s.SetCell(0, 0, CellTeamA)
	s.SetCell(width-1, 1, CellTeamB)
	s.SetCell(2, height-1, CellTeamA)
	s.Disc.Pos = Vec2{X: 1.25, Y: -3.5}
	s.Disc.Vel = Vec2{X: -0.5, Y: 2.75}
	s.Scores = Scores{You: 3, Enemy: 1}
	s.HoverBlocks = []GridCoord{{X: 4, Y: 7}, NoHover}
	return s
}

func snapshotCopy(s *GameState) *GameState {
	c := *s
	c.Grid = make([][]Cell, len(s.Grid))
	for i, row := range s.Grid {
		c.Grid[i] = append([]Cell(nil), row...)
	}
	c.HoverBlocks = append([]GridCoord(nil), s.HoverBlocks...)
	return &c
}

func TestMirror_Involution(t *testing.T) {
	// Row reversal must be parity-independent, so check odd and even heights.
	for _, dims := range [][2]int{{12, 20}, {7, 9}, {5, 1}} {
		s := buildSnapshot(dims[0], dims[1])
		want := snapshotCopy(s)

		s.Mirror()
		s.Mirror()

		if !reflect.DeepEqual(s, want) {
			t.Errorf("board %dx%d: double mirror did not restore the snapshot", dims[0], dims[1])
		}
	}
}

func TestMirror_FlipsSpatialFields(t *testing.T) {
	s := buildSnapshot(12, 20)

	s.Mirror()

	if got := s.CellAt(0, 19); got != CellTeamA {
		t.Errorf("expected row 0 occupant to move to row 19, got %v", got)
	}
	if got := s.CellAt(11, 18); got != CellTeamB {
		t.Errorf("expected row 1 occupant to move to row 18, got %v", got)
	}
	if s.Disc.Pos.Y != 3.5 {
		t.Errorf("expected disc pos y negated, got %v", s.Disc.Pos.Y)
	}
	if s.Disc.Vel.Y != -2.75 {
		t.Errorf("expected disc vel y negated, got %v", s.Disc.Vel.Y)
	}
	if s.Disc.Pos.X != 1.25 || s.Disc.Vel.X != -0.5 {
		t.Error("mirror must not touch the x axis")
	}
}

func TestResetGrid(t *testing.T) {
	s := NewGameState(12, 20)
	s.SetCell(3, 10, CellTeamA)
	s.SetCell(5, 12, CellTeamB)

	s.ResetGrid()

	if s.Width() != 12 || s.Height() != 20 {
		t.Fatalf("reset changed dimensions to %dx%d", s.Width(), s.Height())
	}
	for row := 0; row < s.Height(); row++ {
		for col := 0; col < s.Width(); col++ {
			if s.CellAt(col, row) != CellEmpty {
				t.Fatalf("cell (%d,%d) not empty after reset", col, row)
			}
		}
	}
}

func TestCellAt_OutOfBounds(t *testing.T) {
	s := NewGameState(12, 20)
	if s.CellAt(-1, 0) != CellEmpty || s.CellAt(0, -1) != CellEmpty {
		t.Error("negative coordinates should read empty")
	}
	if s.CellAt(12, 0) != CellEmpty || s.CellAt(0, 20) != CellEmpty {
		t.Error("coordinates past the edge should read empty")
	}
	// Writes out of bounds are dropped, not panics.
	s.SetCell(12, 20, CellTeamA)
}

func TestClearFlags(t *testing.T) {
	s := NewGameState(12, 20)
	s.Bounced = true
	s.BlockPlaced = true
	s.Scored = true

	s.ClearFlags()

	if s.Bounced || s.BlockPlaced || s.Scored {
		t.Error("transient flags should all clear")
	}
}

func TestTeamTag_Opponent(t *testing.T) {
	if TeamA.Opponent() != TeamB || TeamB.Opponent() != TeamA {
		t.Error("opponent mapping broken")
	}
}
