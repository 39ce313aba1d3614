package components

// Body marks an entity as having a physical body that accepts impulses.
// Entities without a Body cannot be bounced.
type Body struct {
	Radius float64
	Mass   float64
}

// Motion marks an entity as driven by the movement collaborator.
type Motion struct {
	Moving     bool
	Direction  float64 // radians
	Speed      float64
	NextJump   float64 // simulation time of the next hop
	NextTurn   float64 // simulation time of the next direction change
	StartAfter float64 // movement may not begin before this time
}
