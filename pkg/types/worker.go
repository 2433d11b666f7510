// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the intellidrug engine:
// worker results, weight profiles, recommendations, comparisons, progress
// states, conversation messages, and configuration.
package types

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Canonical worker names. Weight profiles and synthesis heuristics key off
// these names.
const (
	WorkerPatent   = "patent_analysis"
	WorkerClinical = "clinical_analysis"
	WorkerMarket   = "market_analysis"
	WorkerWeb      = "web_analysis"
	WorkerEXIM     = "exim_analysis"
	WorkerInternal = "internal_analysis"
)

// CanonicalWorkers lists the six analysis sources in their display order.
var CanonicalWorkers = []string{
	WorkerPatent,
	WorkerClinical,
	WorkerMarket,
	WorkerWeb,
	WorkerEXIM,
	WorkerInternal,
}

var displayNames = map[string]string{
	WorkerPatent:   "Patent Analysis",
	WorkerClinical: "Clinical Trials",
	WorkerMarket:   "Market Analysis",
	WorkerWeb:      "Web Intelligence",
	WorkerEXIM:     "EXIM Analysis",
	WorkerInternal: "Internal Knowledge",
}

// DisplayName returns the human-readable name for a worker. Unknown workers
// are title-cased from their snake_case name.
func DisplayName(worker string) string {
	if name, ok := displayNames[worker]; ok {
		return name
	}
	parts := strings.Fields(strings.ReplaceAll(worker, "_", " "))
	for i, p := range parts {
		r := []rune(p)
		parts[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(parts, " ")
}

// Evidence strength bounds and the neutral default applied to findings whose
// strength is missing or unparsable.
const (
	MinEvidenceStrength     = 0
	MaxEvidenceStrength     = 100
	NeutralEvidenceStrength = 50
)

// PatentStatus is the protection state reported by the patent worker.
type PatentStatus string

const (
	PatentUnknown PatentStatus = ""
	PatentActive  PatentStatus = "active"
	PatentExpired PatentStatus = "expired"
	PatentPending PatentStatus = "pending"
)

// ParsePatentStatus maps a free-text label onto a PatentStatus.
func ParsePatentStatus(s string) PatentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "granted", "in force":
		return PatentActive
	case "expired", "lapsed":
		return PatentExpired
	case "pending", "filed":
		return PatentPending
	default:
		return PatentUnknown
	}
}

// String returns the display label ("Active", "Expired", "Pending", "Unknown").
func (s PatentStatus) String() string {
	if s == PatentUnknown {
		return "Unknown"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// FTOStatus is the freedom-to-operate assessment reported by the patent worker.
type FTOStatus string

const (
	FTOUnknown    FTOStatus = ""
	FTOClear      FTOStatus = "clear"
	FTOLowRisk    FTOStatus = "low_risk"
	FTOMediumRisk FTOStatus = "medium_risk"
	FTOHighRisk   FTOStatus = "high_risk"
	FTORisk       FTOStatus = "risk"
)

// ParseFTOStatus maps a free-text label ("High Risk", "clear") onto an FTOStatus.
func ParseFTOStatus(s string) FTOStatus {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch FTOStatus(norm) {
	case FTOClear, FTOLowRisk, FTOMediumRisk, FTOHighRisk, FTORisk:
		return FTOStatus(norm)
	default:
		return FTOUnknown
	}
}

// IsRisk reports whether the status indicates a material infringement risk.
func (s FTOStatus) IsRisk() bool {
	return s == FTOMediumRisk || s == FTOHighRisk || s == FTORisk
}

// Source describes one piece of supporting evidence behind a finding.
type Source struct {
	// Type is the source category (e.g. "pubmed", "clinical_trials", "patent", "news").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Title is an optional human-readable label.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// URL links to the source when available.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Count is the number of underlying documents the source aggregates.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
}

// Finding is a single evidence statement produced by a worker. A nil
// EvidenceStrength or IsPositive means the worker did not say; see Strength
// and Positive for the defaults.
type Finding struct {
	// Finding is the statement text.
	Finding string `json:"finding" yaml:"finding"`

	// EvidenceStrength is a 0-100 confidence in the statement.
	EvidenceStrength *int `json:"evidence_strength,omitempty" yaml:"evidence_strength,omitempty"`

	// IsPositive classifies the finding as a strength (true) or weakness (false).
	IsPositive *bool `json:"is_positive,omitempty" yaml:"is_positive,omitempty"`

	// Sources lists the evidence behind the finding.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// NewFinding returns a finding with an explicit strength and polarity.
func NewFinding(text string, strength int, positive bool) Finding {
	return Finding{Finding: text, EvidenceStrength: &strength, IsPositive: &positive}
}

// Strength returns EvidenceStrength clamped into [0, 100], or 50 when unset.
func (f Finding) Strength() int {
	if f.EvidenceStrength == nil {
		return NeutralEvidenceStrength
	}
	return clampInt(*f.EvidenceStrength, MinEvidenceStrength, MaxEvidenceStrength)
}

// Positive reports whether the finding counts as a strength. Unset means true.
func (f Finding) Positive() bool {
	return f.IsPositive == nil || *f.IsPositive
}

// UnmarshalJSON decodes a finding leniently: a missing or unparsable
// evidence_strength or is_positive is left unset.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = findingFromMap(raw)
	return nil
}

// UnmarshalYAML applies the same lenient rules as UnmarshalJSON.
func (f *Finding) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*f = findingFromMap(raw)
	return nil
}

func findingFromMap(raw map[string]any) Finding {
	var f Finding
	if text, ok := raw["finding"].(string); ok {
		f.Finding = text
	} else if text, ok := raw["description"].(string); ok {
		f.Finding = text
	}
	if v, ok := raw["evidence_strength"]; ok {
		if n, ok := toFloat(v); ok {
			strength := int(math.Round(clampFloat(n, MinEvidenceStrength, MaxEvidenceStrength)))
			f.EvidenceStrength = &strength
		}
	}
	if v, ok := raw["is_positive"]; ok {
		if b, ok := toBool(v); ok {
			f.IsPositive = &b
		}
	}
	if list, ok := raw["sources"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			f.Sources = append(f.Sources, sourceFromMap(m))
		}
	}
	return f
}

func sourceFromMap(m map[string]any) Source {
	var s Source
	s.Type, _ = m["type"].(string)
	s.Title, _ = m["title"].(string)
	s.URL, _ = m["url"].(string)
	if n, ok := toFloat(m["year"]); ok {
		s.Year = int(n)
	}
	if n, ok := toFloat(m["count"]); ok {
		s.Count = int(n)
	}
	return s
}

// WorkerResult is what one worker reports for one subject/context pair. A
// failed worker is represented by a result with Error set and zero confidence.
type WorkerResult struct {
	// Confidence is the worker's overall confidence in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Findings lists evidence statements in the order the worker produced them.
	Findings []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`

	// Error is set when the worker raised or timed out.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// PatentStatus is reported by the patent worker.
	PatentStatus PatentStatus `json:"patent_status,omitempty" yaml:"patent_status,omitempty"`

	// FTOStatus is the freedom-to-operate assessment from the patent worker.
	FTOStatus FTOStatus `json:"fto_status,omitempty" yaml:"fto_status,omitempty"`

	// ActiveTrials is the active clinical trial count from the clinical worker.
	ActiveTrials *int `json:"active_trials,omitempty" yaml:"active_trials,omitempty"`

	// OpportunityScore is the market opportunity score from the market worker.
	OpportunityScore *float64 `json:"opportunity_score,omitempty" yaml:"opportunity_score,omitempty"`

	// Details carries worker-specific fields the engine does not interpret.
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// ErrorResult builds the placeholder recorded for a failed worker.
func ErrorResult(msg string) WorkerResult {
	return WorkerResult{Error: msg, Confidence: 0.0}
}

// Failed reports whether the result is an error placeholder.
func (r WorkerResult) Failed() bool {
	return r.Error != ""
}

// UnmarshalJSON decodes a worker payload leniently. Confidence that is missing
// or unparsable becomes 0; findings that are not objects are skipped; unknown
// keys are collected into Details.
func (r *WorkerResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = WorkerResultFromMap(raw)
	return nil
}

// UnmarshalYAML applies the same lenient rules as UnmarshalJSON.
func (r *WorkerResult) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = WorkerResultFromMap(raw)
	return nil
}

// WorkerResultFromMap converts a semi-structured worker payload into a
// WorkerResult. Well-known status labels are parsed into their enums.
func WorkerResultFromMap(raw map[string]any) WorkerResult {
	var r WorkerResult
	for key, v := range raw {
		switch key {
		case "confidence":
			if n, ok := toFloat(v); ok {
				r.Confidence = clampFloat(n, 0, 1)
			}
		case "error":
			if s, ok := v.(string); ok {
				r.Error = s
			}
		case "findings":
			list, ok := v.([]any)
			if !ok {
				continue
			}
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					r.Findings = append(r.Findings, findingFromMap(m))
				}
			}
		case "patent_status":
			if s, ok := v.(string); ok {
				r.PatentStatus = ParsePatentStatus(s)
			}
		case "fto_status":
			if s, ok := v.(string); ok {
				r.FTOStatus = ParseFTOStatus(s)
			}
		case "active_trials":
			if n, ok := toFloat(v); ok {
				trials := int(n)
				r.ActiveTrials = &trials
			}
		case "opportunity_score":
			if n, ok := toFloat(v); ok {
				r.OpportunityScore = &n
			}
		case "details":
			if m, ok := v.(map[string]any); ok {
				for k, dv := range m {
					r.setDetail(k, dv)
				}
			}
		default:
			r.setDetail(key, v)
		}
	}
	return r
}

func (r *WorkerResult) setDetail(key string, v any) {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = v
}

// WorkerResults maps worker name to that worker's result for one run.
type WorkerResults map[string]WorkerResult

// Names returns the worker names in sorted order.
func (w WorkerResults) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed returns the sorted names of workers whose entry is an error placeholder.
func (w WorkerResults) Failed() []string {
	var failed []string
	for _, name := range w.Names() {
		if w[name].Failed() {
			failed = append(failed, name)
		}
	}
	return failed
}
