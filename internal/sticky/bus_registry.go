package sticky

import (
	"StickyBus/internal/adapters/eventbus"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// BusRegistry hands out named dispatchers, each with its own event bus,
// creating them on first use. Instances live until Clear.
type BusRegistry struct {
	opts       Options
	baseLogger *zerolog.Logger
	log        zerolog.Logger

	mu    sync.Mutex
	buses map[string]*Dispatcher
}

// NewBusRegistry creates an empty registry. Every dispatcher it creates
// shares opts and baseLogger.
func NewBusRegistry(opts Options, baseLogger *zerolog.Logger) *BusRegistry {
	return &BusRegistry{
		opts:       opts,
		baseLogger: baseLogger,
		log:        baseLogger.With().Str("component", "bus_registry").Logger(),
		buses:      make(map[string]*Dispatcher),
	}
}

// Get returns the dispatcher called name, creating it if needed.
func (r *BusRegistry) Get(name string) *Dispatcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.buses[name]; ok {
		return d
	}

	bus := eventbus.NewInMemoryEventBus(r.baseLogger)
	d := NewDispatcher(name, bus, r.opts, r.baseLogger)
	r.buses[name] = d
	r.log.Info().Str("bus", name).Msg("Created sticky event bus")
	return d
}

// Clear forgets every dispatcher. Callers holding an old instance keep a
// working but detached bus; the next Get returns a fresh one.
func (r *BusRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info().Int("count", len(r.buses)).Msg("Clearing sticky event buses")
	r.buses = make(map[string]*Dispatcher)
}

// Names returns the names of existing dispatchers, sorted.
func (r *BusRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.buses))
	for name := range r.buses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
