// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Source credibility by source type. Unlisted types score defaultCredibility.
var credibility = map[string]float64{
	"pubmed":          1.0,
	"clinical_trials": 0.9,
	"regulatory":      0.9,
	"patent":          0.8,
	"market_report":   0.7,
	"news":            0.5,
	"blog":            0.3,
}

const defaultCredibility = 0.3

// Component weights of a source-based evidence score.
const (
	credibilityWeight = 0.4
	recencyWeight     = 0.2
	countWeight       = 0.2
	consensusWeight   = 0.2

	// consensus is fixed until workers report agreement between sources.
	consensus = 0.7

	// fullCount is the number of sources that earns the full count component.
	fullCount = 10

	// recencyDecay is subtracted from the recency component per year of age.
	recencyDecay = 0.1
)

// ScoreSources derives a 0-100 evidence strength from the sources behind a
// finding: their credibility, recency relative to now, and count. Workers may
// use it to fill evidence_strength; Synthesize never overrides a supplied
// strength. An empty source list scores 0.
func ScoreSources(sources []types.Source, now time.Time) int {
	if len(sources) == 0 {
		return 0
	}
	year := now.Year()
	var cred, recency float64
	for _, src := range sources {
		c, ok := credibility[strings.ToLower(src.Type)]
		if !ok {
			c = defaultCredibility
		}
		cred += c

		age := 0
		if src.Year > 0 {
			age = year - src.Year
		}
		recency += math.Max(0, 1-float64(age)*recencyDecay)
	}
	n := float64(len(sources))
	cred /= n
	recency = math.Min(1, recency/n)
	count := math.Min(1, n/fullCount)

	score := credibilityWeight*cred + recencyWeight*recency + countWeight*count + consensusWeight*consensus
	return clampPct(int(math.Round(score * 100)))
}

// Grade buckets an evidence strength into Strong, Moderate, or Weak.
func Grade(strength int) string {
	switch {
	case strength >= 80:
		return "Strong"
	case strength >= 50:
		return "Moderate"
	default:
		return "Weak"
	}
}
