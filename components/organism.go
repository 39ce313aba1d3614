package components

// Vitals tracks an animal's health and lifecycle.
// Health is never clamped; only the <= 0 threshold matters.
type Vitals struct {
	Health int
	State  State
	Age    float64 // seconds alive
	DiedAt float64 // simulation time of death, valid when State == StateDead
}

// Appearance holds purely visual state driven by the resolver.
type Appearance struct {
	Scale float64 // 1 = full size, 0 = fully shrunk
}
