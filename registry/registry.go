// Package registry loads the optional test plan: a YAML file naming the
// groups and cases of a run, with per-entry skip markers. A plan restricts
// what the runner executes; cases it does not mention run normally.
package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// Ordinal bounds accepted in a plan, matching the selection filter bounds.
const (
	maxGroupOrdinal = 100
	maxCaseOrdinal  = 100
)

// CasePlan configures a single test case within a group.
type CasePlan struct {
	Ordinal int    `yaml:"ordinal,omitempty"`
	Name    string `yaml:"name,omitempty"`
	Skip    bool   `yaml:"skip,omitempty"`
}

// GroupPlan configures a test group and its cases.
type GroupPlan struct {
	Ordinal int        `yaml:"ordinal,omitempty"`
	Name    string     `yaml:"name,omitempty"`
	Skip    bool       `yaml:"skip,omitempty"`
	Cases   []CasePlan `yaml:"cases,omitempty"`
}

// Plan is a parsed test plan.
type Plan struct {
	Groups []GroupPlan `yaml:"groups"`
}

// Registry manages the test plan for a run.
type Registry struct {
	config Config
	plan   *Plan
	mu     sync.RWMutex
}

// Config contains registry configuration.
type Config struct {
	Log      log.Logger
	PlanFile string
}

// NewRegistry loads and validates the plan file named in the config.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.PlanFile == "" {
		return nil, fmt.Errorf("plan file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.NewLogger(log.DiscardHandler())
	}

	r := &Registry{config: cfg}
	if err := r.loadPlan(cfg.PlanFile); err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	cfg.Log.Debug("Plan loaded", "len(groups)", len(r.plan.Groups))
	return r, nil
}

// Plan returns the loaded plan.
func (r *Registry) Plan() *Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plan
}

func (r *Registry) loadPlan(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("parsing plan file: %w", err)
	}
	if err := validatePlan(&plan); err != nil {
		return err
	}

	r.plan = &plan
	return nil
}

func validatePlan(plan *Plan) error {
	for i, g := range plan.Groups {
		if g.Ordinal == 0 && g.Name == "" {
			return fmt.Errorf("group %d: either ordinal or name is required", i)
		}
		if g.Ordinal < 0 || g.Ordinal > maxGroupOrdinal {
			return fmt.Errorf("group %d: ordinal %d out of range [0, %d]", i, g.Ordinal, maxGroupOrdinal)
		}
		for j, c := range g.Cases {
			if c.Ordinal == 0 && c.Name == "" {
				return fmt.Errorf("group %d case %d: either ordinal or name is required", i, j)
			}
			if c.Ordinal < 0 || c.Ordinal > maxCaseOrdinal {
				return fmt.Errorf("group %d case %d: ordinal %d out of range [0, %d]", i, j, c.Ordinal, maxCaseOrdinal)
			}
		}
	}
	return nil
}

// Permits reports whether the plan allows the given case identity to run.
// Cases the plan does not mention are permitted; a matching entry with a
// skip marker, on itself or its group, blocks execution.
func (p *Plan) Permits(group int, groupName string, caseOrdinal int, caseName string) bool {
	if p == nil {
		return true
	}
	for _, g := range p.Groups {
		if !matchesEntry(g.Ordinal, g.Name, group, groupName) {
			continue
		}
		if g.Skip {
			return false
		}
		for _, c := range g.Cases {
			if matchesEntry(c.Ordinal, c.Name, caseOrdinal, caseName) {
				return !c.Skip
			}
		}
		return true
	}
	return true
}

func matchesEntry(ordinal int, name string, candidateOrdinal int, candidateName string) bool {
	if ordinal != 0 {
		return ordinal == candidateOrdinal
	}
	return name == candidateName
}
