// state/interfaces.go
package state

// Simulator is the contract between the match orchestrator and the physics
// engine that advances the snapshot. The orchestrator never inspects the
// simulation beyond these calls; callbacks fire synchronously from Update
// and AddBlock on the orchestrator's own goroutine.
// This is defined here to break the import cycle between match and sim.
type Simulator interface {
	// AddBlock places a block for team at (col,row). It reports false when
	// the simulation rejects the placement, e.g. the disc overlaps the cell.
	AddBlock(col, row int, team TeamTag, ownerID string) bool
	// RemoveBlock clears the block at (col,row), if any.
	RemoveBlock(col, row int)
	// Reset re-centers the disc and restarts the serve delay.
	Reset()
	// Update advances the simulation by one step.
	Update()

	OnScore(func(team TeamTag))
	OnDestroyBlock(func(coord GridCoord, team TeamTag, ownerID string))
	OnBounce(func())
	OnBlockPlaced(func())
}
