// sim/simulator.go
package sim

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ddos-sim/ddos-sim/sim/trace"
)

// Simulator drives one or more managers through the same attack workload and
// accumulates a utility score per manager.
//
// Each manager owns a private copy of the population; only the round's active
// attacker set is shared. A Simulator runs once.
type Simulator struct {
	RunID string

	config      Config
	rng         *PartitionedRNG
	attacker    AttackerStrategy
	attackerIDs []int
	managers    []*Manager

	utilities map[string]float64
	series    map[string][]float64
	traces    map[string]*trace.Recorder
	metrics   *Metrics
	log       *logrus.Entry
	hasRun    bool
}

// NewSimulator validates cfg, builds the population and one Manager per
// configured name. Attackers and the initial bucket assignment are drawn from
// the workload RNG subsystem, so they depend only on cfg.Seed.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logrus.New()
	if cfg.LogLevel != "" {
		level, _ := logrus.ParseLevel(cfg.LogLevel) // checked by Validate
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	runID := uuid.NewString()
	log := logger.WithField("run", runID[:8])

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	workload := rng.ForSubsystem(SubsystemWorkload)

	n := cfg.Population()
	population := make([]*User, n)
	for id := range population {
		population[id] = NewUser(id, RoleBenign)
	}
	attackerIDs := slices.Clone(workload.Perm(n)[:cfg.Attackers])
	slices.Sort(attackerIDs)
	for _, id := range attackerIDs {
		population[id].Role = RoleAttacker
	}
	order := workload.Perm(n)

	s := &Simulator{
		RunID:       runID,
		config:      cfg,
		rng:         rng,
		attacker:    NewAttackerStrategy(cfg.Attacker, rng),
		attackerIDs: attackerIDs,
		utilities:   make(map[string]float64, len(cfg.Managers)),
		series:      make(map[string][]float64, len(cfg.Managers)),
		traces:      make(map[string]*trace.Recorder),
		metrics:     NewMetrics(),
		log:         log,
	}
	for _, name := range cfg.Managers {
		spec, err := cfg.managerSpec(name)
		if err != nil {
			return nil, err
		}
		m, err := NewManager(spec, population, order, cfg.NumBuckets, cfg.BucketCapacity,
			rng.Fresh(SubsystemManager), log)
		if err != nil {
			return nil, err
		}
		s.managers = append(s.managers, m)
		s.utilities[name] = 0
	}
	if cfg.Threshold > 0 {
		log.Warnf("threshold=%.2f is recorded but no manager reads it", cfg.Threshold)
	}
	log.Infof("simulator ready: %d good users, %d attackers, %d buckets, threshold=%.2f, managers=%v",
		cfg.GoodUsers, cfg.Attackers, cfg.NumBuckets, cfg.Threshold, cfg.Managers)
	return s, nil
}

// Run advances every manager through numRounds rounds and returns the final
// accumulated utility per manager name. With graphTrials, a snapshot of every
// manager is captured before the first round and after each round.
// Panics if called more than once.
func (s *Simulator) Run(numRounds int, graphTrials bool) (map[string]float64, error) {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true
	if numRounds < 0 {
		return nil, fmt.Errorf("num_rounds must be non-negative, got %d: %w", numRounds, ErrConfig)
	}

	if graphTrials {
		for _, m := range s.managers {
			s.traces[m.Name()] = trace.NewRecorder(m.Name())
			s.CaptureData(m)
		}
	}

	for round := 1; round <= numRounds; round++ {
		ids := s.attacker.Active(round, s.attackerIDs)
		active := make(map[int]bool, len(ids))
		for _, id := range ids {
			active[id] = true
		}
		for _, m := range s.managers {
			u, err := m.RunRound(round, active)
			if err != nil {
				return nil, err
			}
			s.utilities[m.Name()] += u
			s.series[m.Name()] = append(s.series[m.Name()], u)
			s.metrics.observeRound(m, u)
			if graphTrials {
				s.CaptureData(m)
			}
		}
	}

	for _, m := range s.managers {
		s.log.Infof("%s: utility=%.0f eliminated=%d", m.Name(), s.utilities[m.Name()], len(m.Eliminated()))
	}
	out := make(map[string]float64, len(s.utilities))
	for k, v := range s.utilities {
		out[k] = v
	}
	return out, nil
}

// CaptureData records a snapshot of m's current state for visualization.
// It never changes simulation state. No-op unless Run was asked to graph.
func (s *Simulator) CaptureData(m *Manager) {
	rec, ok := s.traces[m.Name()]
	if !ok {
		return
	}
	var last float64
	if series := s.series[m.Name()]; len(series) > 0 && m.Round() > 0 {
		last = series[len(series)-1]
	}
	rec.Record(Snapshot(m, last))
}

// Managers returns the managers under test in configuration order.
func (s *Simulator) Managers() []*Manager { return s.managers }

// Manager returns the manager with the given name, or nil.
func (s *Simulator) Manager(name string) *Manager {
	for _, m := range s.managers {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// AttackerIDs returns the IDs of the attacking users, ascending.
func (s *Simulator) AttackerIDs() []int { return slices.Clone(s.attackerIDs) }

// UtilitySeries returns the per-round utility of the named manager.
func (s *Simulator) UtilitySeries(name string) []float64 { return slices.Clone(s.series[name]) }

// Trace returns the snapshot recorder of the named manager, nil unless graphed.
func (s *Simulator) Trace(name string) *trace.Recorder { return s.traces[name] }

// Metrics returns the simulator's metric collectors.
func (s *Simulator) Metrics() *Metrics { return s.metrics }

// Config returns the validated scenario.
func (s *Simulator) Config() Config { return s.config }
