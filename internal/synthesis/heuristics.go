// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"strconv"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// heuristic derives key factors, strengths, weaknesses and risks from the
// typed fields of one worker's result. Each heuristic adds at most one key
// factor and at most one line per condition.
type heuristic struct {
	worker string
	apply  func(rec *types.Recommendation, r types.WorkerResult)
}

var heuristics = []heuristic{
	{worker: types.WorkerPatent, apply: patentHeuristic},
	{worker: types.WorkerClinical, apply: clinicalHeuristic},
	{worker: types.WorkerMarket, apply: marketHeuristic},
}

func applyHeuristics(rec *types.Recommendation, results types.WorkerResults) {
	for _, h := range heuristics {
		r, ok := results[h.worker]
		if !ok || r.Failed() {
			continue
		}
		h.apply(rec, r)
	}
}

func patentHeuristic(rec *types.Recommendation, r types.WorkerResult) {
	if r.PatentStatus != types.PatentUnknown {
		rec.KeyFactors = appendUnique(rec.KeyFactors, "Patent status: "+r.PatentStatus.String())
		switch r.PatentStatus {
		case types.PatentActive:
			rec.Strengths = appendUnique(rec.Strengths, "Active patent protection")
		case types.PatentExpired:
			rec.Weaknesses = appendUnique(rec.Weaknesses, "Patent expired")
		}
	}
	if r.FTOStatus.IsRisk() {
		rec.Risks = appendUnique(rec.Risks, "Patent infringement risk detected")
	}
}

func clinicalHeuristic(rec *types.Recommendation, r types.WorkerResult) {
	if r.ActiveTrials == nil {
		return
	}
	n := *r.ActiveTrials
	rec.KeyFactors = appendUnique(rec.KeyFactors, fmt.Sprintf("Active clinical trials: %d", n))
	if n > 0 {
		rec.Strengths = appendUnique(rec.Strengths, fmt.Sprintf("Active in %d clinical trials", n))
	} else {
		rec.Weaknesses = appendUnique(rec.Weaknesses, "No active clinical trials found")
	}
}

func marketHeuristic(rec *types.Recommendation, r types.WorkerResult) {
	if r.OpportunityScore == nil {
		return
	}
	score := strconv.FormatFloat(*r.OpportunityScore, 'f', -1, 64)
	rec.KeyFactors = appendUnique(rec.KeyFactors, "Market opportunity score: "+score)
}
