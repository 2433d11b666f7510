// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare ranks per-subject recommendations and selects the best
// candidates, reporting ties rather than picking an arbitrary winner.
package compare

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Error messages returned inside ComparisonResult.Error.
const (
	ErrNoSubjects = "No subjects to compare"
	ErrNoUsable   = "No valid subject data to compare"
)

// summaryStrengths is how many of the winner's strengths the summary quotes.
const summaryStrengths = 2

var now = time.Now

// CompareResults reduces per-subject outcomes into a ranked comparison.
// Subjects whose run failed are listed in Failed and excluded from ranking.
// It never panics or returns an error; degenerate input yields a result
// with Error set.
func CompareResults(outcomes []types.SubjectOutcome) types.ComparisonResult {
	res := types.ComparisonResult{Timestamp: now().UTC()}
	if len(outcomes) == 0 {
		res.Error = ErrNoSubjects
		return res
	}

	for _, o := range outcomes {
		res.Subjects = append(res.Subjects, o.Subject)
		if o.Recommendation == nil || o.Error != "" {
			msg := o.Error
			if msg == "" {
				msg = "no recommendation produced"
			}
			res.Failed = append(res.Failed, types.SubjectFailure{Subject: o.Subject, Error: msg})
			continue
		}
		rec := o.Recommendation
		res.Ranked = append(res.Ranked, types.RankedSubject{
			Subject:        o.Subject,
			Score:          rec.Score,
			Recommendation: rec.Recommendation,
			Label:          rec.Label,
			Confidence:     rec.Confidence,
			Strengths:      rec.Strengths,
			Weaknesses:     rec.Weaknesses,
			Risks:          rec.Risks,
		})
	}
	if len(res.Ranked) == 0 {
		res.Error = ErrNoUsable
		return res
	}

	res.TopScore = res.Ranked[0].Score
	for _, r := range res.Ranked[1:] {
		if r.Score > res.TopScore {
			res.TopScore = r.Score
		}
	}
	// Input order, before sorting.
	for _, r := range res.Ranked {
		if r.Score == res.TopScore {
			res.BestCandidates = append(res.BestCandidates, r.Subject)
		}
	}

	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Score > res.Ranked[j].Score
	})

	res.Summary = summarize(res)
	return res
}

func summarize(res types.ComparisonResult) string {
	if len(res.BestCandidates) > 1 {
		return fmt.Sprintf("%d subjects tied with top score of %d/100: %s.",
			len(res.BestCandidates), res.TopScore, strings.Join(res.BestCandidates, ", "))
	}
	winner := res.Ranked[0]
	strengths := winner.Strengths
	if len(strengths) > summaryStrengths {
		strengths = strengths[:summaryStrengths]
	}
	key := "None"
	if len(strengths) > 0 {
		key = strings.Join(strengths, ", ")
	}
	return fmt.Sprintf("%s is the top candidate with a score of %d/100. Key strengths: %s.",
		winner.Subject, res.TopScore, key)
}

// FormatTable writes the ranking as a human-readable table to w.
func FormatTable(res types.ComparisonResult, w io.Writer) {
	if res.Error != "" {
		fmt.Fprintf(w, "Comparison failed: %s\n", res.Error)
		writeFailures(res, w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-30s  %-5s  %-10s  %s\n", "Rank", "Subject", "Score", "Confidence", "Recommendation")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, r := range res.Ranked {
		marker := ""
		if isBest(res, r.Subject) {
			marker = " *"
		}
		fmt.Fprintf(w, "%-4d  %-30s  %-5d  %-10s  %s%s\n",
			i+1, truncate(r.Subject, 30), r.Score, fmt.Sprintf("%.0f%%", r.Confidence*100), r.Label, marker)
	}
	writeFailures(res, w)
	fmt.Fprintf(w, "\n%s\n", res.Summary)
}

func writeFailures(res types.ComparisonResult, w io.Writer) {
	for _, f := range res.Failed {
		fmt.Fprintf(w, "warning: %s failed: %s\n", f.Subject, f.Error)
	}
}

func isBest(res types.ComparisonResult, subject string) bool {
	for _, s := range res.BestCandidates {
		if s == subject {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
