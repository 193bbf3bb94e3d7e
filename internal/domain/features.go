package domain

import (
	"fmt"
	"sort"
)

// DefaultFeatureCosts is the built-in cost table. Config may override or extend it.
func DefaultFeatureCosts() map[string]int {
	return map[string]int{
		"script_generation": 10,
		"hook_generation":   5,
		"content_audit":     15,
		"analytics_report":  20,
		"feedback_analysis": 5,
		"content_planner":   10,
	}
}

// FeatureCosts maps a feature name to its credit cost. It is immutable once built.
type FeatureCosts struct {
	costs map[string]int
}

// FeatureCost is one entry of the table, for listing.
type FeatureCost struct {
	Feature string `json:"feature"`
	Cost    int    `json:"cost"`
}

// NewFeatureCosts copies and validates a cost table.
func NewFeatureCosts(costs map[string]int) (*FeatureCosts, error) {
	if len(costs) == 0 {
		return nil, fmt.Errorf("feature cost table is empty")
	}
	table := make(map[string]int, len(costs))
	for name, cost := range costs {
		if name == "" {
			return nil, fmt.Errorf("feature cost table has an empty feature name")
		}
		if cost < 0 {
			return nil, fmt.Errorf("feature %q has negative cost %d", name, cost)
		}
		table[name] = cost
	}
	return &FeatureCosts{costs: table}, nil
}

// Cost returns the cost of a registered feature.
func (f *FeatureCosts) Cost(feature string) (int, bool) {
	cost, ok := f.costs[feature]
	return cost, ok
}

// List returns the table sorted by feature name.
func (f *FeatureCosts) List() []FeatureCost {
	out := make([]FeatureCost, 0, len(f.costs))
	for name, cost := range f.costs {
		out = append(out, FeatureCost{Feature: name, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out
}
