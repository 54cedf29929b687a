// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// step1PromptTmpl instructs the model to analyze a requirement against
// INCOSE and EARS standards and respond with strict JSON.
var step1PromptTmpl = template.Must(template.New("step1").Parse(`As a requirements engineering expert, analyze the following requirement against INCOSE and EARS (Easy Approach to Requirements Syntax) standards.

System Name: {{.SystemName}}
Objective: {{.Objective}}
Original Requirement: {{.OriginalRequirement}}
REQ-ID: {{.ReqID}}

Please provide a comprehensive analysis that includes:

1. INCOSE Format Analysis:
   - Rewrite the requirement following INCOSE best practices
   - Identify any INCOSE rule violations
   - Provide feedback on clarity, completeness, and correctness

2. EARS Format Analysis:
   - Rewrite the requirement in EARS format (When <trigger>, the <system> shall <response>)
   - Identify the trigger, system, and response components
   - Provide feedback on EARS compliance

3. Structured Analysis:
   - Extract/assign REQ_ID if not provided
   - Identify requirement patterns (functional, performance, interface, etc.)
   - List specific violations and recommendations
   - Rate the requirement quality (1-10 scale)

Return your response as a valid JSON object with the following structure:
{
    "req_id": "extracted or provided REQ_ID",
    "original_requirement": "the original requirement text",
    "incose_format": "requirement rewritten in INCOSE format",
    "ears_format": "requirement rewritten in EARS format",
    "incose_violations": ["list of INCOSE violations found"],
    "ears_violations": ["list of EARS violations found"],
    "requirement_pattern": "functional/performance/interface/etc",
    "quality_rating": "1-10 rating",
    "feedback": "detailed feedback and recommendations",
    "analysis_timestamp": "{{.Timestamp}}"
}
Do not include any text outside the JSON object.
`))

// step2PromptTmpl instructs the model to research the regulation text for
// passages relevant to the analyzed requirement.
var step2PromptTmpl = template.Must(template.New("step2").Parse(`As a regulatory compliance expert, analyze the following requirement against the provided regulation document.

Requirement Analysis from Step 1:
{{.Step1JSON}}

Regulation Document: {{.DocumentName}}
Regulation Text: {{.RegulationText}}

Tasks:
1. Search through the regulation text for passages relevant to this requirement
2. Identify specific regulatory clauses, sections, or standards that apply
3. Extract relevant regulatory text that could impact the requirement
4. Assess potential compliance issues or conflicts

Return your response as a valid JSON object with the following structure:
{
    "regulation_document": "{{.DocumentName}}",
    "relevant_passages": [
        {
            "section": "section/clause identifier",
            "text": "relevant regulatory text",
            "relevance_score": "1-10 how relevant this passage is",
            "impact": "description of how this impacts the requirement"
        }
    ],
    "compliance_concerns": ["list of potential compliance issues"],
    "regulatory_keywords": ["key terms found in regulation relevant to requirement"],
    "analysis_timestamp": "{{.Timestamp}}"
}
Do not include any text outside the JSON object.
`))

// step3PromptTmpl instructs the model to integrate the requirement and
// regulatory analyses into final compliant requirement forms.
var step3PromptTmpl = template.Must(template.New("step3").Parse(`As a systems engineering expert, integrate the requirement analysis with regulatory findings to produce enhanced, compliant requirements.

Requirement Analysis (Step 1):
{{.Step1JSON}}

Regulatory Analysis (Step 2):
{{.Step2JSON}}

Tasks:
1. Combine requirement analysis with regulatory findings
2. Identify conflicts between the requirement and regulations
3. Produce enhanced versions that comply with both EARS/INCOSE standards AND regulations
4. Provide final compliance feedback and recommendations
5. Create a final requirement that satisfies all standards

Return your response as a valid JSON object with the following structure:
{
    "final_requirement_ears": "final requirement in EARS format with regulatory compliance",
    "final_requirement_incose": "final requirement in INCOSE format with regulatory compliance",
    "compliance_status": "COMPLIANT/NON_COMPLIANT/PARTIAL",
    "identified_conflicts": ["list of conflicts between requirement and regulations"],
    "resolution_strategies": ["strategies to resolve conflicts"],
    "compliance_recommendations": ["specific recommendations for full compliance"],
    "regulatory_traceability": ["list of regulatory sections this requirement traces to"],
    "final_quality_rating": "1-10 rating for the enhanced requirement",
    "enhancement_summary": "summary of improvements made to achieve compliance",
    "analysis_timestamp": "{{.Timestamp}}"
}
Do not include any text outside the JSON object.
`))

func renderStep1Prompt(req *types.AnalysisRequest, timestamp string) (string, error) {
	var buf bytes.Buffer
	err := step1PromptTmpl.Execute(&buf, struct {
		SystemName          string
		Objective           string
		OriginalRequirement string
		ReqID               string
		Timestamp           string
	}{
		SystemName:          req.SystemName,
		Objective:           req.Objective,
		OriginalRequirement: req.OriginalRequirement,
		ReqID:               req.ReqID,
		Timestamp:           timestamp,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderStep2Prompt(step1 *types.Step1Analysis, regulationText, documentName, timestamp string) (string, error) {
	step1JSON, err := json.MarshalIndent(step1, "", "  ")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = step2PromptTmpl.Execute(&buf, struct {
		Step1JSON      string
		DocumentName   string
		RegulationText string
		Timestamp      string
	}{
		Step1JSON:      string(step1JSON),
		DocumentName:   documentName,
		RegulationText: regulationText,
		Timestamp:      timestamp,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderStep3Prompt(step1 *types.Step1Analysis, step2 *types.Step2Analysis, timestamp string) (string, error) {
	step1JSON, err := json.MarshalIndent(step1, "", "  ")
	if err != nil {
		return "", err
	}
	step2JSON, err := json.MarshalIndent(step2, "", "  ")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = step3PromptTmpl.Execute(&buf, struct {
		Step1JSON string
		Step2JSON string
		Timestamp string
	}{
		Step1JSON: string(step1JSON),
		Step2JSON: string(step2JSON),
		Timestamp: timestamp,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
