package game

import (
	"log/slog"
	"slices"

	"github.com/pthm-cable/zoo/bus"
)

// Registry is the authoritative set of live animals, kept in spawn order.
// Death of a registered animal removes it through a one-shot hook.
type Registry struct {
	life    *Lifecycle
	animals []Animal
	index   map[Animal]struct{}
	logger  *slog.Logger

	count     *bus.Value[int]
	spawned   *bus.Channel[Animal]
	despawned *bus.Channel[Animal]
}

// NewRegistry creates an empty registry bound to the lifecycle.
func NewRegistry(life *Lifecycle, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		life:      life,
		index:     make(map[Animal]struct{}),
		logger:    logger,
		count:     bus.NewValue(0),
		spawned:   bus.NewChannel[Animal](),
		despawned: bus.NewChannel[Animal](),
	}
}

// Add registers a. Returns false if a is already registered or not alive.
func (r *Registry) Add(a Animal) bool {
	if _, ok := r.index[a]; ok {
		r.logger.Debug("registry_duplicate_add", "animal", a.String())
		return false
	}
	if !r.life.IsAlive(a) {
		r.logger.Debug("registry_add_not_alive", "animal", a.String())
		return false
	}

	r.animals = append(r.animals, a)
	r.index[a] = struct{}{}
	r.life.OnDeath(a, func(dead Animal) { r.Remove(dead) })

	r.spawned.Publish(a)
	r.count.Set(len(r.animals))
	return true
}

// Remove unregisters a. Returns false if a was not registered.
func (r *Registry) Remove(a Animal) bool {
	if _, ok := r.index[a]; !ok {
		return false
	}
	delete(r.index, a)
	if i := slices.Index(r.animals, a); i >= 0 {
		r.animals = slices.Delete(r.animals, i, i+1)
	}

	r.despawned.Publish(a)
	r.count.Set(len(r.animals))
	return true
}

// Contains reports whether a is registered.
func (r *Registry) Contains(a Animal) bool {
	_, ok := r.index[a]
	return ok
}

// Len returns the number of registered animals.
func (r *Registry) Len() int {
	return len(r.animals)
}

// Animals returns a copy of the registered animals in spawn order.
func (r *Registry) Animals() []Animal {
	return slices.Clone(r.animals)
}

// Count is the observable population size.
func (r *Registry) Count() *bus.Value[int] { return r.count }

// Spawned publishes each animal as it is registered.
func (r *Registry) Spawned() *bus.Channel[Animal] { return r.spawned }

// Despawned publishes each animal as it is removed.
func (r *Registry) Despawned() *bus.Channel[Animal] { return r.despawned }

// Clear removes every animal without publishing despawns.
func (r *Registry) Clear() {
	r.animals = nil
	clear(r.index)
	r.count.Set(0)
}
