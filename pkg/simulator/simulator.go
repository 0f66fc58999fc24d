// Package simulator runs a live sensor simulation for a single structure.
//
// While active, a Simulator perturbs the structure's condition rating and
// traffic load on a fixed clock and recomputes risk and health. Deactivating
// it stops the clock synchronously and restores the original readings.
package simulator

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// DefaultInterval is the wall-clock time between ticks.
const DefaultInterval = 3 * time.Second

const (
	conditionSpread = 0.4 // tick moves condition by U(-0.2, 0.2)
	trafficSpread   = 0.1 // tick moves traffic by U(-0.05, 0.05)
	pcgStream       = 0x5EED
)

// ErrInactive is returned by Advance when the simulator is not running.
var ErrInactive = errors.New("simulator is not active")

// State is a snapshot of the simulated readings.
type State struct {
	StructureID     string    `json:"structureId"`
	ConditionRating float64   `json:"conditionRating"`
	TrafficLoad     float64   `json:"trafficLoad"`
	RiskScore       float64   `json:"riskScore"`
	HealthScore     int       `json:"healthScore"`
	LastUpdated     time.Time `json:"lastUpdated"`
	Active          bool      `json:"isActive"`
	Ticks           uint64    `json:"ticks"`
}

// Observer receives the state after every tick and every reset.
// Observers are called from the simulator goroutine and must not block
// or call back into Deactivate.
type Observer interface {
	Observe(s State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(State)

func (f ObserverFunc) Observe(s State) { f(s) }

// Options configures a Simulator. Zero values select defaults.
type Options struct {
	Interval time.Duration
	Seed     uint64 // 0 picks a random seed
	Engine   *scoring.Engine
	Now      func() time.Time
}

// Simulator is the per-structure state machine. It is safe for concurrent use.
type Simulator struct {
	id          string
	age         int
	environment float64
	condition   float64 // original reading
	traffic     float64 // original reading

	engine   *scoring.Engine
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	rng       *rand.Rand
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	gen       uint64
	observers map[int]Observer
	nextObs   int
}

// New creates an inactive simulator seeded with the record's readings.
func New(rec infra.Infrastructure, opts Options) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Engine == nil {
		opts.Engine = scoring.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s := &Simulator{
		id:          rec.ID,
		age:         rec.Age,
		environment: rec.EnvironmentalExposureFactor,
		condition:   rec.StructuralConditionRating,
		traffic:     rec.TrafficLoadFactor,
		engine:      opts.Engine,
		interval:    opts.Interval,
		now:         opts.Now,
		rng:         rand.New(rand.NewPCG(seed, pcgStream)),
		observers:   make(map[int]Observer),
	}
	s.resetLocked()
	return s
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Simulator) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// CurrentState returns the latest snapshot.
func (s *Simulator) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the clock is running.
func (s *Simulator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active
}

// Activate starts the clock. Calling it while active is a no-op.
// Cancelling ctx stops the clock and resets the state like Deactivate.
func (s *Simulator) Activate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Active {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Active = true
	s.state.LastUpdated = s.now()

	go s.run(runCtx, s.gen, s.done)
}

// Deactivate stops the clock and restores the readings computed from the
// original record. When it returns no further tick can apply and no
// observer call is pending, including the reset a cancelled Activate
// context delivers.
func (s *Simulator) Deactivate() {
	s.mu.Lock()
	if !s.state.Active {
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	s.cancel()
	done := s.done
	s.resetLocked()
	st, obs := s.state, s.observerList()
	s.mu.Unlock()

	<-done
	notify(obs, st)
}

// Toggle flips between active and inactive and reports the new state.
func (s *Simulator) Toggle(ctx context.Context) bool {
	if s.Active() {
		s.Deactivate()
		return false
	}
	s.Activate(ctx)
	return true
}

// Advance applies one tick immediately, outside the clock.
func (s *Simulator) Advance() (State, error) {
	s.mu.Lock()
	if !s.state.Active {
		s.mu.Unlock()
		return State{}, ErrInactive
	}
	st := s.tickLocked()
	obs := s.observerList()
	s.mu.Unlock()

	notify(obs, st)
	return st, nil
}

func (s *Simulator) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.gen != gen || !s.state.Active {
				// Deactivate already reset, or a newer activation owns the state.
				s.mu.Unlock()
				return
			}
			s.resetLocked()
			st, obs := s.state, s.observerList()
			s.mu.Unlock()
			notify(obs, st)
			return

		case <-ticker.C:
			s.mu.Lock()
			if ctx.Err() != nil {
				s.mu.Unlock()
				continue
			}
			st := s.tickLocked()
			obs := s.observerList()
			s.mu.Unlock()
			notify(obs, st)
		}
	}
}

func (s *Simulator) tickLocked() State {
	cond := s.state.ConditionRating + (s.rng.Float64()-0.5)*conditionSpread
	traffic := s.state.TrafficLoad + (s.rng.Float64()-0.5)*trafficSpread

	s.state.ConditionRating = clamp(cond, 1, 5)
	s.state.TrafficLoad = clamp(traffic, 0, 1)
	s.state.RiskScore = s.engine.RiskScore(s.age, s.state.TrafficLoad, s.environment, s.state.ConditionRating)
	s.state.HealthScore = scoring.HealthScore(s.state.RiskScore)
	s.state.LastUpdated = s.now()
	s.state.Ticks++
	return s.state
}

func (s *Simulator) resetLocked() {
	risk := s.engine.RiskScore(s.age, s.traffic, s.environment, s.condition)
	s.state = State{
		StructureID:     s.id,
		ConditionRating: s.condition,
		TrafficLoad:     s.traffic,
		RiskScore:       risk,
		HealthScore:     scoring.HealthScore(risk),
		LastUpdated:     s.now(),
	}
}

func (s *Simulator) observerList() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		out = append(out, o)
	}
	return out
}

func notify(obs []Observer, st State) {
	for _, o := range obs {
		o.Observe(st)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
