// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis runs requirement text through a three-step generative
// model pipeline: INCOSE/EARS analysis, regulatory research against a
// regulation document, and compliance integration.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// ModelBackend abstracts the generative model API so tests can supply a
// mock. Implementations return the raw response text for one prompt.
type ModelBackend interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// RegulationSource fetches regulation text for an organization's document.
// A missing document is reported with storage.ErrNotFound.
type RegulationSource interface {
	FetchText(ctx context.Context, organizationID, documentName string) (string, error)
}

// timeNow is a package-level var for test substitution.
var timeNow = time.Now

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const (
	defaultMaxRetries          = 3
	defaultRegulationTextLimit = 10000
)

// Analyzer orchestrates the three analysis steps against a model backend.
type Analyzer struct {
	backend     ModelBackend
	regulations RegulationSource
	cfg         types.AnalysisConfig
}

// New creates an Analyzer. regulations may be nil when callers always
// supply regulation text themselves (offline mode with a local file).
func New(backend ModelBackend, regulations RegulationSource, cfg types.AnalysisConfig) *Analyzer {
	return &Analyzer{backend: backend, regulations: regulations, cfg: cfg}
}

// Run executes all three steps for one request, fetching the regulation
// text from the configured source. A missing regulation document is not an
// error: step 2 degrades to a placeholder naming the missing document so
// step 3 still runs.
func (a *Analyzer) Run(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if a.regulations == nil || req.RegulationDocumentName == "" {
		return a.RunWithText(ctx, req, "")
	}

	text, err := a.regulations.FetchText(ctx, req.OrganizationID, req.RegulationDocumentName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return a.RunWithText(ctx, req, "")
		}
		return nil, fmt.Errorf("fetching regulation %q: %w", req.RegulationDocumentName, err)
	}

	return a.RunWithText(ctx, req, text)
}

// RunWithText executes all three steps with regulation text supplied by
// the caller. Empty text produces the missing-regulation placeholder for
// step 2.
func (a *Analyzer) RunWithText(ctx context.Context, req *types.AnalysisRequest, regulationText string) (*types.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	temp := req.EffectiveTemperature()

	step1, err := a.Step1(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("step 1 (INCOSE/EARS analysis): %w", err)
	}

	var step2 *types.Step2Analysis
	if regulationText == "" {
		step2 = a.MissingRegulationStep2(req.RegulationDocumentName)
	} else {
		step2, err = a.Step2(ctx, step1, regulationText, req.RegulationDocumentName, temp)
		if err != nil {
			return nil, fmt.Errorf("step 2 (regulatory research): %w", err)
		}
	}

	step3, err := a.Step3(ctx, step1, step2, temp)
	if err != nil {
		return nil, fmt.Errorf("step 3 (compliance integration): %w", err)
	}

	return &types.AnalysisResult{
		Status:             "success",
		OrganizationID:     req.OrganizationID,
		Step1:              step1,
		Step2:              step2,
		Step3:              step3,
		ProcessedTimestamp: timeNow().UTC().Format(time.RFC3339),
	}, nil
}

// Step1 analyzes the requirement against INCOSE and EARS standards.
func (a *Analyzer) Step1(ctx context.Context, req *types.AnalysisRequest) (*types.Step1Analysis, error) {
	prompt, err := renderStep1Prompt(req, a.timestamp())
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	var out types.Step1Analysis
	if err := a.generateJSON(ctx, prompt, req.EffectiveTemperature(), &out); err != nil {
		return nil, err
	}
	if out.AnalysisTimestamp == "" {
		out.AnalysisTimestamp = a.timestamp()
	}
	return &out, nil
}

// Step2 researches the regulation text for passages relevant to the
// requirement. The text is truncated to the configured limit before it is
// embedded in the prompt.
func (a *Analyzer) Step2(ctx context.Context, step1 *types.Step1Analysis, regulationText, documentName string, temperature float64) (*types.Step2Analysis, error) {
	limit := a.cfg.RegulationTextLimit
	if limit <= 0 {
		limit = defaultRegulationTextLimit
	}
	if len(regulationText) > limit {
		regulationText = regulationText[:limit]
	}

	prompt, err := renderStep2Prompt(step1, regulationText, documentName, a.timestamp())
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	var out types.Step2Analysis
	if err := a.generateJSON(ctx, prompt, temperature, &out); err != nil {
		return nil, err
	}
	if out.RegulationDocument == "" {
		out.RegulationDocument = documentName
	}
	if out.AnalysisTimestamp == "" {
		out.AnalysisTimestamp = a.timestamp()
	}
	return &out, nil
}

// Step3 integrates the requirement and regulatory analyses into final
// compliant requirement forms.
func (a *Analyzer) Step3(ctx context.Context, step1 *types.Step1Analysis, step2 *types.Step2Analysis, temperature float64) (*types.Step3Analysis, error) {
	prompt, err := renderStep3Prompt(step1, step2, a.timestamp())
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	var out types.Step3Analysis
	if err := a.generateJSON(ctx, prompt, temperature, &out); err != nil {
		return nil, err
	}
	if out.AnalysisTimestamp == "" {
		out.AnalysisTimestamp = a.timestamp()
	}
	return &out, nil
}

// MissingRegulationStep2 builds the placeholder step 2 result used when no
// regulation document is available for the analysis.
func (a *Analyzer) MissingRegulationStep2(documentName string) *types.Step2Analysis {
	return &types.Step2Analysis{
		RegulationDocument: documentName,
		RelevantPassages:   []types.RelevantPassage{},
		ComplianceConcerns: []string{"No regulation document found for analysis"},
		RegulatoryKeywords: []string{},
		AnalysisTimestamp:  a.timestamp(),
	}
}

func (a *Analyzer) timestamp() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// generateJSON calls the backend with retry, strips any markdown code
// fences from the response, and decodes it into out.
func (a *Analyzer) generateJSON(ctx context.Context, prompt string, temperature float64, out any) error {
	maxRetries := a.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	text, err := callWithRetry(ctx, a.backend, prompt, temperature, maxRetries)
	if err != nil {
		return err
	}

	cleaned := stripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parsing model response JSON: %w", err)
	}
	return nil
}

// callWithRetry calls the model backend with exponential backoff.
func callWithRetry(ctx context.Context, backend ModelBackend, prompt string, temperature float64, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := backend.Generate(ctx, prompt, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// stripCodeFences removes a surrounding ```json ... ``` (or bare ```) block
// the model sometimes wraps around its JSON response.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
