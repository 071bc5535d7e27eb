package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RunPlan is the YAML description of what an ingestion run searches for.
type RunPlan struct {
	Queries            []string      `yaml:"queries"`
	Locations          []string      `yaml:"locations"`
	MaxResultsPerQuery int           `yaml:"max_results_per_query"`
	MaxQueries         int           `yaml:"max_queries"`
	MaxLocations       int           `yaml:"max_locations"`
	PacingDelay        time.Duration `yaml:"pacing_delay"`
	Threshold          float64       `yaml:"threshold"`
	ChunkSize          int           `yaml:"chunk_size"`
	ExcludeTerms       []string      `yaml:"exclude_terms"`
	Target             string        `yaml:"target"`
	SeedLookback       time.Duration `yaml:"seed_lookback"`
}

// DefaultRunPlan is used when no plan file is configured.
func DefaultRunPlan() RunPlan {
	return RunPlan{
		Queries:            []string{"software engineer", "data analyst"},
		MaxResultsPerQuery: 50,
		PacingDelay:        2 * time.Second,
		Threshold:          85,
		ChunkSize:          500,
	}
}

// LoadRunPlan reads and validates the plan at path. An empty path yields
// DefaultRunPlan.
func LoadRunPlan(path string) (RunPlan, error) {
	if path == "" {
		return DefaultRunPlan(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return RunPlan{}, fmt.Errorf("read run plan: %w", err)
	}
	var plan RunPlan
	if err := yaml.Unmarshal(b, &plan); err != nil {
		return RunPlan{}, fmt.Errorf("parse run plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return RunPlan{}, err
	}
	return plan, nil
}

// Validate reports every problem in the plan at once.
func (p RunPlan) Validate() error {
	var errs []string

	if len(p.Queries) == 0 {
		errs = append(errs, "queries must have at least 1 entry")
	}
	checkTerms := func(name string, terms []string) {
		for i, t := range terms {
			if strings.TrimSpace(t) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] cannot be empty", name, i))
			}
		}
	}
	checkTerms("queries", p.Queries)
	checkTerms("locations", p.Locations)
	checkTerms("exclude_terms", p.ExcludeTerms)

	if p.MaxResultsPerQuery < 0 {
		errs = append(errs, "max_results_per_query must be >= 0")
	}
	if p.MaxQueries < 0 || p.MaxLocations < 0 {
		errs = append(errs, "max_queries and max_locations must be >= 0")
	}
	if p.PacingDelay < 0 || p.SeedLookback < 0 {
		errs = append(errs, "pacing_delay and seed_lookback must be >= 0")
	}
	if p.Threshold < 0 || p.Threshold > 100 {
		errs = append(errs, "threshold must be 0..100")
	}
	if p.ChunkSize < 0 || p.ChunkSize > 500 {
		errs = append(errs, "chunk_size must be 0..500")
	}
	switch p.Target {
	case "", "canonical", "staging":
	default:
		errs = append(errs, fmt.Sprintf("target must be canonical or staging, got %q", p.Target))
	}

	if len(errs) > 0 {
		return errors.New("run plan validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
