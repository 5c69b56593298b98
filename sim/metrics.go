package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes per-manager round counters on a private registry, so
// simulators running side by side never share collectors.
type Metrics struct {
	registry   *prometheus.Registry
	rounds     *prometheus.CounterVec
	utility    *prometheus.CounterVec
	attacked   *prometheus.GaugeVec
	eliminated *prometheus.GaugeVec
}

// NewMetrics creates and registers the simulator collectors.
func NewMetrics() *Metrics {
	mt := &Metrics{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddos_sim",
			Name:      "rounds_total",
			Help:      "Rounds completed per manager.",
		}, []string{"manager"}),
		utility: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddos_sim",
			Name:      "utility_total",
			Help:      "Accumulated utility (benign users served) per manager.",
		}, []string{"manager"}),
		attacked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ddos_sim",
			Name:      "attacked_buckets",
			Help:      "Buckets attacked in the last round per manager.",
		}, []string{"manager"}),
		eliminated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ddos_sim",
			Name:      "eliminated_users",
			Help:      "Users eliminated so far per manager and role.",
		}, []string{"manager", "role"}),
	}
	mt.registry.MustRegister(mt.rounds, mt.utility, mt.attacked, mt.eliminated)
	return mt
}

// Registry returns the registry holding the simulator collectors.
func (mt *Metrics) Registry() *prometheus.Registry {
	return mt.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (mt *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, mt.registry)
}

func (mt *Metrics) observeRound(m *Manager, utility float64) {
	name := m.Name()
	mt.rounds.WithLabelValues(name).Inc()
	mt.utility.WithLabelValues(name).Add(utility)
	mt.attacked.WithLabelValues(name).Set(float64(len(m.AttackedBuckets())))

	byRole := map[Role]int{RoleBenign: 0, RoleAttacker: 0}
	for _, u := range m.blacklist.users {
		byRole[u.Role]++
	}
	for role, n := range byRole {
		mt.eliminated.WithLabelValues(name, string(role)).Set(float64(n))
	}
}
