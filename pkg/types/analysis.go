// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultTemperature is used when an AnalysisRequest omits temperature.
const DefaultTemperature = 0.1

// AnalysisRequest is the input to the three-step requirement analysis.
// Field names follow the wire format expected by existing clients.
type AnalysisRequest struct {
	// OriginalRequirement is the requirement text under analysis.
	OriginalRequirement string `json:"original_requirement"`

	// RegulationDocumentName names a PDF in the organization's bucket,
	// with or without the .pdf extension.
	RegulationDocumentName string `json:"regulation_document_name"`

	// OrganizationID scopes document lookups to one tenant.
	OrganizationID string `json:"organizationId"`

	// SystemName and Objective give the model context. Optional.
	SystemName string `json:"system_name,omitempty"`
	Objective  string `json:"objective,omitempty"`

	// ReqID is a caller-supplied requirement identifier. When empty the
	// model assigns one.
	ReqID string `json:"req_id,omitempty"`

	// Temperature is the model sampling temperature in [0, 1].
	// Nil means DefaultTemperature.
	Temperature *float64 `json:"temperature,omitempty"`
}

// Validate checks required fields and the temperature range.
func (r *AnalysisRequest) Validate() error {
	if r.OriginalRequirement == "" {
		return fmt.Errorf("original_requirement is required")
	}
	if r.OrganizationID == "" {
		return fmt.Errorf("organizationId is required")
	}
	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 1.0) {
		return fmt.Errorf("temperature %v out of range [0, 1]", *r.Temperature)
	}
	return nil
}

// EffectiveTemperature returns the requested temperature or the default.
func (r *AnalysisRequest) EffectiveTemperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Rating is a quality rating that arrives from the model as either a JSON
// string or a number. It always marshals back as a string.
type Rating string

// UnmarshalJSON accepts "8", 8, and 8.0 alike.
func (q *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Rating(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quality rating is neither string nor number: %s", data)
	}
	*q = Rating(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// Step1Analysis is the model's INCOSE/EARS analysis of the requirement.
type Step1Analysis struct {
	ReqID               string   `json:"req_id" yaml:"req_id"`
	OriginalRequirement string   `json:"original_requirement" yaml:"original_requirement"`
	IncoseFormat        string   `json:"incose_format" yaml:"incose_format"`
	EarsFormat          string   `json:"ears_format" yaml:"ears_format"`
	IncoseViolations    []string `json:"incose_violations" yaml:"incose_violations"`
	EarsViolations      []string `json:"ears_violations" yaml:"ears_violations"`
	RequirementPattern  string   `json:"requirement_pattern" yaml:"requirement_pattern"`
	QualityRating       Rating   `json:"quality_rating" yaml:"quality_rating"`
	Feedback            string   `json:"feedback" yaml:"feedback"`
	AnalysisTimestamp   string   `json:"analysis_timestamp" yaml:"analysis_timestamp"`
}

// RelevantPassage is one regulation excerpt the model judged applicable.
type RelevantPassage struct {
	Section        string `json:"section" yaml:"section"`
	Text           string `json:"text" yaml:"text"`
	RelevanceScore string `json:"relevance_score" yaml:"relevance_score"`
	Impact         string `json:"impact" yaml:"impact"`
}

// Step2Analysis is the regulatory research result for one document.
type Step2Analysis struct {
	RegulationDocument string            `json:"regulation_document" yaml:"regulation_document"`
	RelevantPassages   []RelevantPassage `json:"relevant_passages" yaml:"relevant_passages"`
	ComplianceConcerns []string          `json:"compliance_concerns" yaml:"compliance_concerns"`
	RegulatoryKeywords []string          `json:"regulatory_keywords" yaml:"regulatory_keywords"`
	AnalysisTimestamp  string            `json:"analysis_timestamp" yaml:"analysis_timestamp"`
}

// ComplianceStatus values returned in Step3Analysis.
const (
	StatusCompliant    = "COMPLIANT"
	StatusNonCompliant = "NON_COMPLIANT"
	StatusPartial      = "PARTIAL"
)

// Step3Analysis is the integrated, regulation-aware final requirement.
type Step3Analysis struct {
	FinalRequirementEars      string   `json:"final_requirement_ears" yaml:"final_requirement_ears"`
	FinalRequirementIncose    string   `json:"final_requirement_incose" yaml:"final_requirement_incose"`
	ComplianceStatus          string   `json:"compliance_status" yaml:"compliance_status"`
	IdentifiedConflicts       []string `json:"identified_conflicts" yaml:"identified_conflicts"`
	ResolutionStrategies      []string `json:"resolution_strategies" yaml:"resolution_strategies"`
	ComplianceRecommendations []string `json:"compliance_recommendations" yaml:"compliance_recommendations"`
	RegulatoryTraceability    []string `json:"regulatory_traceability" yaml:"regulatory_traceability"`
	FinalQualityRating        Rating   `json:"final_quality_rating" yaml:"final_quality_rating"`
	EnhancementSummary        string   `json:"enhancement_summary" yaml:"enhancement_summary"`
	AnalysisTimestamp         string   `json:"analysis_timestamp" yaml:"analysis_timestamp"`
}

// AnalysisResult bundles all three steps. The analysisJson field names are
// part of the public API contract.
type AnalysisResult struct {
	Status             string         `json:"status" yaml:"status"`
	OrganizationID     string         `json:"organizationId,omitempty" yaml:"organization_id,omitempty"`
	Step1              *Step1Analysis `json:"analysisJson" yaml:"step1"`
	Step2              *Step2Analysis `json:"analysisJson2" yaml:"step2"`
	Step3              *Step3Analysis `json:"analysisJson3" yaml:"step3"`
	ProcessedTimestamp string         `json:"processed_timestamp" yaml:"processed_timestamp"`
}
