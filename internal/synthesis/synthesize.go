// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis combines per-worker results into a single
// Recommendation. Synthesize is a pure function of its inputs apart from the
// timestamp it stamps on the output, so one set of worker results can be
// re-scored under every weight profile without re-running workers.
package synthesis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Recommendation thresholds applied to the overall confidence.
const (
	ProceedThreshold     = 0.75
	CautionThreshold     = 0.50
	ReviewThreshold      = 0.40
	NeedsReviewThreshold = 0.60
)

// topFindings is how many of the strongest findings are promoted to key factors.
const topFindings = 3

// summaryFactors is how many key factors the summary sentence quotes.
const summaryFactors = 3

// now is overridden in tests.
var now = time.Now

// scoredFinding is a finding together with the worker that reported it and
// its normalized strength in [0, 1].
type scoredFinding struct {
	worker   string
	text     string
	strength float64
	positive bool
}

// Synthesize computes the Recommendation for subject and context from the
// collected worker results under the given weight profile.
//
// Workers in the profile but absent from results contribute confidence 0.
// Workers in results but absent from the profile are not weighted but their
// findings and heuristic fields are still used.
func Synthesize(subject, context string, results types.WorkerResults, profile types.WeightProfile) types.Recommendation {
	rec := types.Recommendation{
		Strategy:   profile.Name,
		KeyFactors: []string{},
		Strengths:  []string{},
		Weaknesses: []string{},
		Risks:      []string{},
	}

	overall, uncertainty := weighConfidence(&rec, results, profile)

	applyHeuristics(&rec, results)

	findings := collectFindings(results, profile)
	for _, f := range findings {
		if f.text == "" {
			continue
		}
		if f.positive {
			rec.Strengths = append(rec.Strengths, f.text)
		} else {
			rec.Weaknesses = append(rec.Weaknesses, f.text)
		}
	}

	if len(findings) > 0 {
		sum := 0.0
		for _, f := range findings {
			sum += f.strength
		}
		rec.EvidenceBasedScore = pct(sum / float64(len(findings)))
	} else {
		rec.EvidenceBasedScore = pct(overall)
	}

	for _, f := range strongest(findings, topFindings) {
		if f.text != "" {
			rec.KeyFactors = appendUnique(rec.KeyFactors, f.text)
		}
	}

	rec.Recommendation = Classify(overall)
	rec.Confidence = overall
	rec.UncertaintyPct = uncertainty
	rec.Score = pct(overall)
	rec.NeedsReview = overall < NeedsReviewThreshold
	rec.Label = rec.Recommendation.Label()
	if rec.NeedsReview {
		rec.Label += " " + types.NeedsReviewQualifier
	}
	rec.ConfidenceLabel = ConfidenceLabel(overall)
	rec.ConfidenceDisplay = fmt.Sprintf("%d%% ±%d%%", rec.Score, uncertainty)
	rec.ConfidenceTooltip = fmt.Sprintf(
		"Weighted agreement across analysis workers is %d%% with a spread of ±%d%%. Values below %d%% call for further research.",
		rec.Score, uncertainty, pct(NeedsReviewThreshold))

	if len(rec.Risks) == 0 {
		rec.Risks = []string{types.NoRisksSentinel}
	}
	rec.Summary = summarize(subject, context, rec)
	rec.Timestamp = now().UTC()
	return rec
}

// SynthesizeAnalysis re-scores a stored analysis under profile.
func SynthesizeAnalysis(a types.Analysis, profile types.WeightProfile) types.Recommendation {
	return Synthesize(a.Subject, a.Context, a.Results, profile)
}

// weighConfidence fills the per-worker confidences and returns the overall
// weighted confidence and the uncertainty percentage.
func weighConfidence(rec *types.Recommendation, results types.WorkerResults, profile types.WeightProfile) (float64, int) {
	overall := 0.0
	var reported []float64
	for _, ww := range profile.Weights {
		res, ok := results[ww.Worker]
		conf := 0.0
		if ok && !res.Failed() {
			conf = unit(res.Confidence)
		}
		overall += conf * ww.Weight
		if ok {
			reported = append(reported, conf)
		}

		wc := types.WorkerConfidence{
			Worker:        ww.Worker,
			DisplayName:   types.DisplayName(ww.Worker),
			ConfidencePct: pct(conf),
			Weight:        ww.Weight,
			Error:         res.Error,
		}
		if !ok {
			wc.Error = "no result"
		}
		rec.WorkerConfidences = append(rec.WorkerConfidences, wc)
	}

	// Profiles that do not sum to 1.0 scale the sum; keep it a confidence.
	overall = unit(math.Round(overall*1e6) / 1e6)

	uncertainty := 0
	if len(reported) > 1 {
		sd, err := stats.StandardDeviationPopulation(reported)
		if err == nil {
			uncertainty = clampPct(int(math.Round(sd * 100)))
		}
	}
	return overall, uncertainty
}

// collectFindings returns every finding in scan order: workers in profile
// order first, then any remaining workers sorted by name.
func collectFindings(results types.WorkerResults, profile types.WeightProfile) []scoredFinding {
	order := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, name := range profile.Workers() {
		if _, ok := results[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range results.Names() {
		if !seen[name] {
			order = append(order, name)
		}
	}

	var out []scoredFinding
	for _, name := range order {
		for _, f := range results[name].Findings {
			out = append(out, scoredFinding{
				worker:   name,
				text:     f.Finding,
				strength: float64(f.Strength()) / 100,
				positive: f.Positive(),
			})
		}
	}
	return out
}

// strongest returns up to n findings by descending strength. Equal strengths
// keep encounter order.
func strongest(findings []scoredFinding, n int) []scoredFinding {
	sorted := make([]scoredFinding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].strength > sorted[j].strength
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Classify maps an overall confidence onto a verdict.
func Classify(confidence float64) types.Verdict {
	switch {
	case confidence >= ProceedThreshold:
		return types.VerdictProceed
	case confidence >= CautionThreshold:
		return types.VerdictProceedWithCaution
	case confidence >= ReviewThreshold:
		return types.VerdictReviewRequired
	default:
		return types.VerdictNotRecommended
	}
}

// ConfidenceLabel returns High, Medium, Low, or Very Low using the verdict
// thresholds.
func ConfidenceLabel(confidence float64) string {
	switch Classify(confidence) {
	case types.VerdictProceed:
		return "High"
	case types.VerdictProceedWithCaution:
		return "Medium"
	case types.VerdictReviewRequired:
		return "Low"
	default:
		return "Very Low"
	}
}

func summarize(subject, context string, rec types.Recommendation) string {
	if strings.TrimSpace(subject) == "" {
		subject = "the subject"
	}
	if strings.TrimSpace(context) == "" {
		context = "the target context"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of %s for %s suggests to %s with %d%% confidence.",
		subject, context, strings.ToLower(rec.Label), rec.Score)
	if len(rec.KeyFactors) > 0 {
		factors := rec.KeyFactors
		if len(factors) > summaryFactors {
			factors = factors[:summaryFactors]
		}
		fmt.Fprintf(&b, " Key factors include: %s.", strings.Join(factors, ", "))
	}
	fmt.Fprintf(&b, " Evidence-based score: %d/100.", rec.EvidenceBasedScore)
	return b.String()
}

// appendUnique appends s unless an identical string is already present.
func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// unit clamps x into [0, 1]; NaN becomes 0.
func unit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// pct converts a [0, 1] fraction into a rounded 0-100 integer.
func pct(x float64) int {
	return clampPct(int(math.Round(unit(x) * 100)))
}

func clampPct(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
