// Package sweep runs many independent simulations across attacker percentages,
// attacker strategies and trials, and aggregates the utility per manager.
// Every trial owns a private Simulator; trials run on a bounded worker pool.
package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/ddos-sim/ddos-sim/sim"
)

// errBarZ is the z-score applied to the standard error of each point.
const errBarZ = 1.645

// Params configures a sweep.
type Params struct {
	NumBuckets     int       `json:"num_buckets"`
	UsersPerBucket int       `json:"users_per_bucket"`
	Rounds         int       `json:"rounds"`
	Trials         int       `json:"trials"`
	Managers       []string  `json:"managers"`
	Attackers      []string  `json:"attackers"`
	Percents       []float64 `json:"percents"`
	Seed           int64     `json:"seed"`
	Workers        int       `json:"-"`
}

// DefaultPercents returns attacker ratios 1% .. 49%.
func DefaultPercents() []float64 {
	out := make([]float64, 0, 49)
	for i := 1; i < 50; i++ {
		out = append(out, float64(i)/100)
	}
	return out
}

// Point is the aggregated utility of one manager at one attacker ratio.
type Point struct {
	Percent  float64 `json:"percent"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	ErrBar   float64 `json:"err_bar"`
	Attacker string  `json:"attacker"`
}

// Series is one manager's curve against one attacker strategy.
type Series struct {
	Manager  string  `json:"manager"`
	Attacker string  `json:"attacker"`
	Points   []Point `json:"points"`
}

// Report is the outcome of a sweep.
type Report struct {
	ID     string   `json:"id"`
	Params Params   `json:"params"`
	Series []Series `json:"series"`
	// WorstCase holds, per manager, the lowest mean over attacker strategies at each ratio.
	WorstCase []Series `json:"worst_case"`
}

// Validate checks the sweep parameters.
func (p *Params) Validate() error {
	if p.NumBuckets < 1 || p.UsersPerBucket < 1 {
		return fmt.Errorf("buckets and users per bucket must be >= 1: %w", sim.ErrConfig)
	}
	if p.Rounds < 1 || p.Trials < 1 {
		return fmt.Errorf("rounds and trials must be >= 1: %w", sim.ErrConfig)
	}
	if len(p.Managers) == 0 {
		return fmt.Errorf("no managers to sweep: %w", sim.ErrConfig)
	}
	for _, name := range p.Managers {
		if !sim.IsValidManager(name) {
			return fmt.Errorf("unknown manager %q: %w", name, sim.ErrConfig)
		}
	}
	for _, name := range p.Attackers {
		if !sim.ValidAttackers[name] {
			return fmt.Errorf("unknown attacker strategy %q: %w", name, sim.ErrConfig)
		}
	}
	for _, pct := range p.Percents {
		if pct < 0 || pct > 1 {
			return fmt.Errorf("attacker percent %f outside [0,1]: %w", pct, sim.ErrConfig)
		}
	}
	return nil
}

type job struct {
	manager, attacker, pct, trial int
}

// Run executes every trial and aggregates the results. Cancelling ctx stops
// scheduling new trials and returns ctx.Err().
func Run(ctx context.Context, p Params) (*Report, error) {
	if len(p.Attackers) == 0 {
		p.Attackers = []string{"basic"}
	}
	if len(p.Percents) == 0 {
		p.Percents = DefaultPercents()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	workers := p.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	// results[m][a][pct][trial], each cell written by exactly one worker.
	results := make([][][][]float64, len(p.Managers))
	for m := range results {
		results[m] = make([][][]float64, len(p.Attackers))
		for a := range results[m] {
			results[m][a] = make([][]float64, len(p.Percents))
			for i := range results[m][a] {
				results[m][a][i] = make([]float64, p.Trials)
			}
		}
	}

	jobs := make(chan job)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				u, err := runTrial(p, j)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				results[j.manager][j.attacker][j.pct][j.trial] = u
			}
		}()
	}

	total := len(p.Managers) * len(p.Attackers) * len(p.Percents) * p.Trials
	logrus.Infof("sweep: %d trials on %d workers", total, workers)
schedule:
	for m := range p.Managers {
		for a := range p.Attackers {
			for i := range p.Percents {
				for t := 0; t < p.Trials; t++ {
					select {
					case <-ctx.Done():
						break schedule
					case jobs <- job{manager: m, attacker: a, pct: i, trial: t}:
					}
				}
			}
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return aggregate(p, results), nil
}

// runTrial uses the trial index as seed offset so every manager and attacker
// strategy sees the same populations.
func runTrial(p Params, j job) (float64, error) {
	users := p.NumBuckets * p.UsersPerBucket
	attackers := int(float64(users) * p.Percents[j.pct])
	cfg := sim.DefaultConfig()
	cfg.GoodUsers = users - attackers
	cfg.Attackers = attackers
	cfg.NumBuckets = p.NumBuckets
	cfg.Managers = []string{p.Managers[j.manager]}
	cfg.Attacker = p.Attackers[j.attacker]
	cfg.Seed = p.Seed + int64(j.trial)
	cfg.Rounds = p.Rounds
	cfg.LogLevel = "error"

	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return 0, err
	}
	utilities, err := s.Run(p.Rounds, false)
	if err != nil {
		return 0, err
	}
	return utilities[p.Managers[j.manager]], nil
}

func aggregate(p Params, results [][][][]float64) *Report {
	r := &Report{ID: uuid.NewString(), Params: p}
	for m, manager := range p.Managers {
		for a, attacker := range p.Attackers {
			s := Series{Manager: manager, Attacker: attacker}
			for i, pct := range p.Percents {
				pt := summarize(results[m][a][i])
				pt.Percent = pct
				pt.Attacker = attacker
				s.Points = append(s.Points, pt)
			}
			r.Series = append(r.Series, s)
		}
		r.WorstCase = append(r.WorstCase, worstCase(manager, r.Series[len(r.Series)-len(p.Attackers):]))
	}
	return r
}

// summarize returns mean, sample standard deviation and the error bar of ys.
func summarize(ys []float64) Point {
	mean, std := stat.MeanStdDev(ys, nil)
	if len(ys) < 2 || math.IsNaN(std) {
		std = 0
	}
	return Point{
		Mean:   mean,
		StdDev: std,
		ErrBar: errBarZ * 2 * std / math.Sqrt(float64(len(ys))),
	}
}

// worstCase picks, at each ratio, the attacker strategy with the lowest mean utility.
func worstCase(manager string, series []Series) Series {
	out := Series{Manager: manager, Attacker: "worst-case"}
	if len(series) == 0 {
		return out
	}
	for i := range series[0].Points {
		worst := series[0].Points[i]
		for _, s := range series[1:] {
			if s.Points[i].Mean < worst.Mean {
				worst = s.Points[i]
			}
		}
		out.Points = append(out.Points, worst)
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Mean returns the mean utility of manager against attacker at the ratio index,
// and false if the series does not exist.
func (r *Report) Mean(manager, attacker string, idx int) (float64, bool) {
	for _, s := range r.Series {
		if s.Manager == manager && s.Attacker == attacker && idx >= 0 && idx < len(s.Points) {
			return s.Points[idx].Mean, true
		}
	}
	return 0, false
}
