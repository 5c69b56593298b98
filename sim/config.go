package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config describes one simulation scenario. Loadable from YAML or TOML;
// fields absent from the file keep their DefaultConfig values.
type Config struct {
	GoodUsers  int `yaml:"good_users" toml:"good_users"`
	Attackers  int `yaml:"attackers" toml:"attackers"`
	NumBuckets int `yaml:"num_buckets" toml:"num_buckets"`
	// Threshold is part of the configuration surface but no policy reads it yet.
	Threshold float64  `yaml:"threshold" toml:"threshold"`
	Managers  []string `yaml:"managers" toml:"managers"`
	Seed      int64    `yaml:"seed" toml:"seed"`
	Rounds    int      `yaml:"rounds" toml:"rounds"`

	BucketCapacity       int     `yaml:"bucket_capacity" toml:"bucket_capacity"`
	Attacker             string  `yaml:"attacker" toml:"attacker"`
	BoundedBudget        int     `yaml:"bounded_budget" toml:"bounded_budget"`
	EliminationThreshold float64 `yaml:"elimination_threshold" toml:"elimination_threshold"`
	LogLevel             string  `yaml:"log_level" toml:"log_level"`
}

// DefaultConfig returns the 10 buckets x 10 users, 5% attackers scenario.
func DefaultConfig() Config {
	return Config{
		GoodUsers:            95,
		Attackers:            5,
		NumBuckets:           10,
		Managers:             []string{"sieve-v0-s0"},
		Seed:                 42,
		Rounds:               10,
		BucketCapacity:       DefaultBucketCapacity,
		Attacker:             "basic",
		BoundedBudget:        DefaultBoundedBudget,
		EliminationThreshold: DefaultEliminationThreshold,
		LogLevel:             "warn",
	}
}

// LoadConfig reads a scenario file. The format follows the extension:
// .toml is TOML, anything else is YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing scenario config %s: %w", path, err)
	}
	return &cfg, nil
}

// Population returns the total number of users.
func (c *Config) Population() int {
	return c.GoodUsers + c.Attackers
}

// Validate checks counts, names and parameter ranges. Every failure wraps ErrConfig.
func (c *Config) Validate() error {
	if c.GoodUsers < 0 || c.Attackers < 0 {
		return fmt.Errorf("user counts must be non-negative, got good=%d attackers=%d: %w", c.GoodUsers, c.Attackers, ErrConfig)
	}
	if c.Population() == 0 {
		return fmt.Errorf("population is empty: %w", ErrConfig)
	}
	if c.NumBuckets < 1 {
		return fmt.Errorf("num_buckets must be >= 1, got %d: %w", c.NumBuckets, ErrConfig)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %f: %w", c.Threshold, ErrConfig)
	}
	if c.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d: %w", c.Rounds, ErrConfig)
	}
	if len(c.Managers) == 0 {
		return fmt.Errorf("no managers configured: %w", ErrConfig)
	}
	seen := make(map[string]bool, len(c.Managers))
	for _, name := range c.Managers {
		if !IsValidManager(name) {
			return fmt.Errorf("unknown manager %q (valid: %s): %w", name, strings.Join(ManagerNames(), ", "), ErrConfig)
		}
		if seen[name] {
			return fmt.Errorf("manager %q listed twice: %w", name, ErrConfig)
		}
		seen[name] = true
	}
	perBucket := (c.Population() + c.NumBuckets - 1) / c.NumBuckets
	if c.BucketCapacity < perBucket {
		return fmt.Errorf("bucket_capacity %d cannot hold %d users in %d buckets: %w",
			c.BucketCapacity, c.Population(), c.NumBuckets, ErrConfig)
	}
	if !ValidAttackers[c.Attacker] {
		return fmt.Errorf("unknown attacker strategy %q: %w", c.Attacker, ErrConfig)
	}
	if c.BoundedBudget < 0 {
		return fmt.Errorf("bounded_budget must be non-negative, got %d: %w", c.BoundedBudget, ErrConfig)
	}
	if c.EliminationThreshold < 0 {
		return fmt.Errorf("elimination_threshold must be non-negative, got %f: %w", c.EliminationThreshold, ErrConfig)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %v: %w", err, ErrConfig)
		}
	}
	return nil
}

// managerSpec resolves a manager name and applies the scenario's parameter overrides.
func (c *Config) managerSpec(name string) (ManagerSpec, error) {
	spec, err := LookupManagerSpec(name)
	if err != nil {
		return spec, err
	}
	switch spec.Kind {
	case KindBounded:
		spec.Budget = c.BoundedBudget
	case KindProtag:
		spec.EliminationThreshold = c.EliminationThreshold
	}
	return spec, nil
}
