package game

import (
	"bytes"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/pthm-cable/zoo/bus"
	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
	"github.com/pthm-cable/zoo/systems"
)

// Outcome is the result of a resolved collision.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeBounce
	OutcomeEating
	OutcomeFight
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBounce:
		return "bounce"
	case OutcomeEating:
		return "eating"
	case OutcomeFight:
		return "fight"
	default:
		return "none"
	}
}

// PairKind classifies a collision by the kinds involved. Order-independent.
type PairKind uint8

const (
	PairPreyPrey PairKind = iota
	PairPreyPredator
	PairPredatorPredator
)

func (p PairKind) String() string {
	switch p {
	case PairPreyPrey:
		return "prey_prey"
	case PairPreyPredator:
		return "prey_predator"
	default:
		return "predator_predator"
	}
}

// Classify returns the pair kind for two animal kinds.
func Classify(a, b components.Kind) PairKind {
	switch {
	case a == components.KindPrey && b == components.KindPrey:
		return PairPreyPrey
	case a == components.KindPredator && b == components.KindPredator:
		return PairPredatorPredator
	default:
		return PairPreyPredator
	}
}

// Outcome returns the outcome a pair of this kind resolves to.
func (p PairKind) Outcome() Outcome {
	switch p {
	case PairPreyPrey:
		return OutcomeBounce
	case PairPreyPredator:
		return OutcomeEating
	default:
		return OutcomeFight
	}
}

// CollisionRequest is a submitted contact between two animals.
type CollisionRequest struct {
	A, B Animal
	At   float64
}

// ResolutionEvent is published once per successfully resolved collision.
type ResolutionEvent struct {
	Initiator   Animal
	Target      Animal
	Outcome     Outcome
	At          float64 // when the resolution completed
	RequestedAt float64 // when the collision was submitted
}

// Drop reasons for requests rejected before resolution starts.
const (
	DropStale    = "stale"
	DropSelf     = "self"
	DropInFlight = "in_flight"
)

// DroppedRequest is a collision request rejected by the guards.
type DroppedRequest struct {
	Request CollisionRequest
	Reason  string
}

// ResolverStats counts resolver outcomes since start.
type ResolverStats struct {
	Submitted  int
	Stale      int
	Duplicates int
	Started    int
	Resolved   int
	Aborted    int // a party died, was disposed or lacked a body mid-sequence
	Failed     int // task error or panic
}

// pairKey is an unordered pair of animal IDs.
type pairKey struct {
	lo, hi uuid.UUID
}

func makePairKey(a, b Animal) pairKey {
	if bytes.Compare(b.ID[:], a.ID[:]) < 0 {
		a, b = b, a
	}
	return pairKey{lo: a.ID, hi: b.ID}
}

// Resolver turns collision notifications into outcomes. Requests are queued
// from any goroutine and resolved by cooperative tasks on the simulation
// thread; all mutation happens in the final step of each task.
type Resolver struct {
	cfg      config.ResolutionConfig
	lethal   int
	life     *Lifecycle
	movement Movement
	impulser Impulser
	feedback Feedback
	state    *State
	sched    *systems.Scheduler
	clock    *Clock
	rng      *rand.Rand
	logger   *slog.Logger

	queue    bus.Queue[CollisionRequest]
	inFlight map[pairKey]struct{}
	kills    map[Animal]int
	stats    ResolverStats

	resolved *bus.Channel[ResolutionEvent]
	dropped  *bus.Channel[DroppedRequest]
}

// ResolverDeps groups the collaborators a Resolver calls into.
type ResolverDeps struct {
	Lifecycle *Lifecycle
	Movement  Movement
	Impulser  Impulser
	Feedback  Feedback
	State     *State
	Scheduler *systems.Scheduler
	Clock     *Clock
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// NewResolver creates a resolver. lethal is the damage that kills.
func NewResolver(cfg config.ResolutionConfig, lethal int, deps ResolverDeps) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		cfg:      cfg,
		lethal:   lethal,
		life:     deps.Lifecycle,
		movement: deps.Movement,
		impulser: deps.Impulser,
		feedback: deps.Feedback,
		state:    deps.State,
		sched:    deps.Scheduler,
		clock:    deps.Clock,
		rng:      deps.Rand,
		logger:   logger,
		inFlight: make(map[pairKey]struct{}),
		kills:    make(map[Animal]int),
		resolved: bus.NewChannel[ResolutionEvent](),
		dropped:  bus.NewChannel[DroppedRequest](),
	}
	r.life.Disposed().Subscribe(func(a Animal) { delete(r.kills, a) })
	return r
}

// PublishCollision submits a contact between a and b and returns
// immediately. Safe to call from any goroutine.
func (r *Resolver) PublishCollision(a, b Animal) {
	r.queue.Push(CollisionRequest{A: a, B: b, At: r.clock.Now()})
}

// Pending returns the number of submitted requests not yet drained.
func (r *Resolver) Pending() int {
	return r.queue.Len()
}

// Drain takes every queued request, applies the guards and starts a
// resolution task for each surviving pair. Simulation thread only.
func (r *Resolver) Drain() {
	for _, req := range r.queue.Drain() {
		r.stats.Submitted++
		r.start(req)
	}
}

func (r *Resolver) start(req CollisionRequest) {
	if req.A == req.B {
		r.drop(req, DropSelf)
		return
	}
	if !r.life.IsAlive(req.A) || !r.life.IsAlive(req.B) {
		r.stats.Stale++
		r.drop(req, DropStale)
		return
	}
	key := makePairKey(req.A, req.B)
	if _, busy := r.inFlight[key]; busy {
		r.stats.Duplicates++
		r.drop(req, DropInFlight)
		return
	}

	pair := Classify(req.A.Kind, req.B.Kind)
	var task systems.Task
	switch pair {
	case PairPreyPrey:
		task = &bounceSequence{r: r, req: req}
	case PairPreyPredator:
		task = newEatingSequence(r, req)
	default:
		task = &fightSequence{r: r, req: req}
	}

	r.inFlight[key] = struct{}{}
	r.stats.Started++
	r.sched.Go(pair.Outcome().String(), task, func(err error) {
		delete(r.inFlight, key)
		if err != nil {
			r.stats.Failed++
		}
	})
}

func (r *Resolver) drop(req CollisionRequest, reason string) {
	r.logger.Debug("collision_dropped", "a", req.A.String(), "b", req.B.String(), "reason", reason)
	r.dropped.Publish(DroppedRequest{Request: req, Reason: reason})
}

// publish emits the resolution event for a completed sequence.
func (r *Resolver) publish(req CollisionRequest, initiator, target Animal, outcome Outcome) {
	r.stats.Resolved++
	ev := ResolutionEvent{
		Initiator:   initiator,
		Target:      target,
		Outcome:     outcome,
		At:          r.clock.Now(),
		RequestedAt: req.At,
	}
	r.logger.Debug("collision_resolved",
		"outcome", outcome.String(),
		"initiator", initiator.String(),
		"target", target.String(),
	)
	r.resolved.Publish(ev)
}

// abort ends a sequence without an event.
func (r *Resolver) abort(req CollisionRequest, outcome Outcome, err error) (systems.Yield, error) {
	r.stats.Aborted++
	r.logger.Debug("resolution_aborted",
		"outcome", outcome.String(),
		"a", req.A.String(),
		"b", req.B.String(),
		"error", err,
	)
	return systems.Finish(), nil
}

// bothAlive reports whether both parties are still alive.
func (r *Resolver) bothAlive(a, b Animal) bool {
	return r.life.IsAlive(a) && r.life.IsAlive(b)
}

// Resolved publishes one event per successfully resolved collision.
// Subscribers must not mutate entity state.
func (r *Resolver) Resolved() *bus.Channel[ResolutionEvent] { return r.resolved }

// Dropped publishes requests rejected by the guards.
func (r *Resolver) Dropped() *bus.Channel[DroppedRequest] { return r.dropped }

// InFlight returns the number of pairs currently being resolved.
func (r *Resolver) InFlight() int { return len(r.inFlight) }

// KillCount returns how many animals a has killed. Forgotten on disposal.
func (r *Resolver) KillCount(a Animal) int { return r.kills[a] }

// Stats returns the resolver counters.
func (r *Resolver) Stats() ResolverStats { return r.stats }
