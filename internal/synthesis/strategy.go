// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import "github.com/pdiddy/intellidrug/pkg/types"

// standard is the baseline profile. Its weights sum to 1.0 and the
// recommendation thresholds are calibrated against it.
var standard = types.WeightProfile{
	Name: types.StrategyStandard,
	Weights: []types.WorkerWeight{
		{Worker: types.WorkerPatent, Weight: 0.25},
		{Worker: types.WorkerClinical, Weight: 0.20},
		{Worker: types.WorkerMarket, Weight: 0.20},
		{Worker: types.WorkerWeb, Weight: 0.15},
		{Worker: types.WorkerEXIM, Weight: 0.10},
		{Worker: types.WorkerInternal, Weight: 0.10},
	},
}

// optimistic leans on growth signals: clinical activity, market size and
// web intelligence.
var optimistic = standard.With(types.StrategyOptimistic,
	types.WorkerWeight{Worker: types.WorkerClinical, Weight: 0.25},
	types.WorkerWeight{Worker: types.WorkerMarket, Weight: 0.25},
	types.WorkerWeight{Worker: types.WorkerWeb, Weight: 0.20},
)

// conservative leans on patent risk and internal knowledge.
var conservative = standard.With(types.StrategyConservative,
	types.WorkerWeight{Worker: types.WorkerPatent, Weight: 0.30},
	types.WorkerWeight{Worker: types.WorkerMarket, Weight: 0.15},
	types.WorkerWeight{Worker: types.WorkerInternal, Weight: 0.15},
)

// Profile returns the weight profile for a strategy. Unknown strategies
// resolve to the standard profile. The returned profile is a copy.
func Profile(s types.Strategy) types.WeightProfile {
	switch s {
	case types.StrategyOptimistic:
		return optimistic.With(s)
	case types.StrategyConservative:
		return conservative.With(s)
	default:
		return standard.With(types.StrategyStandard)
	}
}

// Profiles returns every named profile in presentation order.
func Profiles() []types.WeightProfile {
	out := make([]types.WeightProfile, 0, len(types.Strategies))
	for _, s := range types.Strategies {
		out = append(out, Profile(s))
	}
	return out
}
