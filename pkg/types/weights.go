// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Strategy names a weighting strategy used by synthesis.
type Strategy string

const (
	StrategyStandard     Strategy = "standard"
	StrategyOptimistic   Strategy = "optimistic"
	StrategyConservative Strategy = "conservative"
)

// Strategies lists every named strategy in presentation order.
var Strategies = []Strategy{StrategyStandard, StrategyOptimistic, StrategyConservative}

// ParseStrategy maps a case-insensitive name onto a Strategy. An empty name
// selects the standard strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyStandard:
		return StrategyStandard, nil
	case StrategyOptimistic:
		return StrategyOptimistic, nil
	case StrategyConservative:
		return StrategyConservative, nil
	default:
		return "", fmt.Errorf("unknown strategy %q: want standard, optimistic, or conservative", s)
	}
}

// Title returns the capitalized strategy name.
func (s Strategy) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// WorkerWeight is one worker's share in a WeightProfile.
type WorkerWeight struct {
	Worker string  `json:"worker" yaml:"worker"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// WeightProfile is an ordered set of per-worker weights. The order fixes the
// order in which synthesis reports per-worker confidences and scans findings.
type WeightProfile struct {
	Name    Strategy       `json:"name" yaml:"name"`
	Weights []WorkerWeight `json:"weights" yaml:"weights"`
}

// Weight returns the weight assigned to worker and whether it is present.
func (p WeightProfile) Weight(worker string) (float64, bool) {
	for _, w := range p.Weights {
		if w.Worker == worker {
			return w.Weight, true
		}
	}
	return 0, false
}

// Workers returns the worker names in profile order.
func (p WeightProfile) Workers() []string {
	names := make([]string, len(p.Weights))
	for i, w := range p.Weights {
		names[i] = w.Worker
	}
	return names
}

// Total returns the sum of all weights.
func (p WeightProfile) Total() float64 {
	total := 0.0
	for _, w := range p.Weights {
		total += w.Weight
	}
	return total
}

// With returns a copy of the profile with the given overrides applied. Workers
// not already in the profile are appended in override order.
func (p WeightProfile) With(name Strategy, overrides ...WorkerWeight) WeightProfile {
	out := WeightProfile{Name: name, Weights: make([]WorkerWeight, len(p.Weights))}
	copy(out.Weights, p.Weights)
	for _, o := range overrides {
		found := false
		for i := range out.Weights {
			if out.Weights[i].Worker == o.Worker {
				out.Weights[i].Weight = o.Weight
				found = true
				break
			}
		}
		if !found {
			out.Weights = append(out.Weights, o)
		}
	}
	return out
}
