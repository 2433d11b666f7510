// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Verdict is the categorical outcome of synthesis.
type Verdict string

const (
	VerdictProceed            Verdict = "PROCEED"
	VerdictProceedWithCaution Verdict = "PROCEED_WITH_CAUTION"
	VerdictReviewRequired     Verdict = "REVIEW_REQUIRED"
	VerdictNotRecommended     Verdict = "NOT_RECOMMENDED"
)

// Label returns the verdict with underscores replaced by spaces.
func (v Verdict) Label() string {
	return strings.ReplaceAll(string(v), "_", " ")
}

// NeedsReviewQualifier is appended to the label of a low-confidence recommendation.
const NeedsReviewQualifier = "(NEEDS REVIEW)"

// NoRisksSentinel is the single risk entry reported when no risk was detected.
const NoRisksSentinel = "No significant risks identified"

// WorkerConfidence is one worker's contribution to a recommendation.
type WorkerConfidence struct {
	// Worker is the canonical worker name.
	Worker string `json:"worker" yaml:"worker"`

	// DisplayName is the human-readable worker name.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// ConfidencePct is the worker's raw confidence as a 0-100 integer.
	ConfidencePct int `json:"confidence_pct" yaml:"confidence_pct"`

	// Weight is the worker's weight in the profile used.
	Weight float64 `json:"weight" yaml:"weight"`

	// Error carries the worker's failure message, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Recommendation is the synthesized verdict for one subject/context pair.
// It is computed once from a WorkerResults map and a WeightProfile and is not
// modified afterwards.
type Recommendation struct {
	Recommendation     Verdict            `json:"recommendation" yaml:"recommendation"`
	Label              string             `json:"label" yaml:"label"`
	Strategy           Strategy           `json:"strategy" yaml:"strategy"`
	Confidence         float64            `json:"confidence" yaml:"confidence"`
	UncertaintyPct     int                `json:"uncertainty_pct" yaml:"uncertainty_pct"`
	ConfidenceLabel    string             `json:"confidence_label" yaml:"confidence_label"`
	ConfidenceDisplay  string             `json:"confidence_display" yaml:"confidence_display"`
	ConfidenceTooltip  string             `json:"confidence_tooltip" yaml:"confidence_tooltip"`
	Score              int                `json:"score" yaml:"score"`
	EvidenceBasedScore int                `json:"evidence_based_score" yaml:"evidence_based_score"`
	KeyFactors         []string           `json:"key_factors" yaml:"key_factors"`
	Strengths          []string           `json:"strengths" yaml:"strengths"`
	Weaknesses         []string           `json:"weaknesses" yaml:"weaknesses"`
	Risks              []string           `json:"risks" yaml:"risks"`
	Summary            string             `json:"summary" yaml:"summary"`
	NeedsReview        bool               `json:"needs_review" yaml:"needs_review"`
	WorkerConfidences  []WorkerConfidence `json:"per_worker_confidences" yaml:"per_worker_confidences"`
	Timestamp          time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Analysis is the complete outcome of one orchestrator run.
type Analysis struct {
	// ID is assigned when the analysis is archived.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Subject and Context are the two inputs every worker received.
	Subject string `json:"subject" yaml:"subject"`
	Context string `json:"context" yaml:"context"`

	// Timestamp is the UTC time at which all workers settled.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Results maps each configured worker to its result or error placeholder.
	Results WorkerResults `json:"results" yaml:"results"`

	// Recommendation is the synthesis output under Recommendation.Strategy.
	Recommendation Recommendation `json:"synthesis" yaml:"synthesis"`

	// ReportPath is the file written by the report collaborator, if any.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// ReportError records a report generation failure. It never invalidates
	// the analysis.
	ReportError string `json:"report_error,omitempty" yaml:"report_error,omitempty"`
}

// SubjectOutcome is the input to comparison for one subject: either a
// completed Recommendation or the error that prevented one.
type SubjectOutcome struct {
	Subject        string          `json:"subject" yaml:"subject"`
	Recommendation *Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Error          string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// RankedSubject is one row of a comparison ranking.
type RankedSubject struct {
	Subject        string   `json:"subject" yaml:"subject"`
	Score          int      `json:"score" yaml:"score"`
	Recommendation Verdict  `json:"recommendation" yaml:"recommendation"`
	Label          string   `json:"label" yaml:"label"`
	Confidence     float64  `json:"confidence" yaml:"confidence"`
	Strengths      []string `json:"strengths" yaml:"strengths"`
	Weaknesses     []string `json:"weaknesses" yaml:"weaknesses"`
	Risks          []string `json:"risks" yaml:"risks"`
}

// SubjectFailure is the placeholder for a subject whose run produced no
// usable recommendation. Failed subjects are excluded from ranking.
type SubjectFailure struct {
	Subject string `json:"subject" yaml:"subject"`
	Error   string `json:"error" yaml:"error"`
}

// ComparisonResult ranks several subjects by recommendation score. When Error
// is set no ranking could be produced.
type ComparisonResult struct {
	Subjects       []string         `json:"subjects" yaml:"subjects"`
	BestCandidates []string         `json:"best_candidates" yaml:"best_candidates"`
	TopScore       int              `json:"top_score" yaml:"top_score"`
	Ranked         []RankedSubject  `json:"ranked" yaml:"ranked"`
	Failed         []SubjectFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Summary        string           `json:"summary" yaml:"summary"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp      time.Time        `json:"timestamp" yaml:"timestamp"`
}

// Comparison is the outcome of a multi-subject orchestrator run.
type Comparison struct {
	ID        string              `json:"id,omitempty" yaml:"id,omitempty"`
	Context   string              `json:"context" yaml:"context"`
	Subjects  []string            `json:"subjects" yaml:"subjects"`
	Timestamp time.Time           `json:"timestamp" yaml:"timestamp"`
	Analyses  map[string]Analysis `json:"analyses" yaml:"analyses"`
	Failures  map[string]string   `json:"failures,omitempty" yaml:"failures,omitempty"`
	Result    ComparisonResult    `json:"comparison_synthesis" yaml:"comparison_synthesis"`
}
