// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/atoms-tech/requirements-engine/internal/analysis"
	"github.com/atoms-tech/requirements-engine/internal/pdftext"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [requirement text]",
	Short: "Run the three-step analysis for one requirement",
	Long: `Analyze runs a single requirement through the full pipeline: INCOSE/EARS
analysis, regulatory research, and compliance integration. The regulation
document is read from a local file (--regulation); a PDF is converted to
text first. Without a regulation the pipeline records that none was found.

Results are written as YAML (default) or JSON to stdout or --output.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("organization", "local", "organization identifier recorded in the result")
	analyzeCmd.Flags().String("regulation", "", "path to a local regulation document (.pdf or plain text)")
	analyzeCmd.Flags().String("system-name", "", "system the requirement belongs to")
	analyzeCmd.Flags().String("objective", "", "objective the requirement supports")
	analyzeCmd.Flags().String("req-id", "", "requirement identifier")
	analyzeCmd.Flags().Float64("temperature", types.DefaultTemperature, "model sampling temperature in [0, 1]")
	analyzeCmd.Flags().String("model", "", "generative model identifier (default gemini-1.5-flash)")
	analyzeCmd.Flags().String("output", "", "write the result to this file instead of stdout")
	analyzeCmd.Flags().Bool("json", false, "emit JSON instead of YAML")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the requirement text as an argument")
	}
	requirement := strings.Join(args, " ")

	organization, _ := cmd.Flags().GetString("organization")
	regulationPath, _ := cmd.Flags().GetString("regulation")
	systemName, _ := cmd.Flags().GetString("system-name")
	objective, _ := cmd.Flags().GetString("objective")
	reqID, _ := cmd.Flags().GetString("req-id")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	model, _ := cmd.Flags().GetString("model")
	output, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")

	if model == "" {
		model = viper.GetString("analysis.model")
	}

	cfg := types.AnalysisConfig{
		Model:               model,
		APIKey:              secretDefault("gemini-api-key", os.Getenv("GEMINI_API_KEY")),
		MaxRetries:          viper.GetInt("analysis.max_retries"),
		RegulationTextLimit: viper.GetInt("analysis.regulation_text_limit"),
	}

	ctx := context.Background()
	backend, err := analysis.NewGeminiBackend(ctx, cfg)
	if err != nil {
		return err
	}
	analyzer := analysis.New(backend, nil, cfg)

	regulationText, regulationName, err := loadRegulation(regulationPath)
	if err != nil {
		return err
	}

	req := &types.AnalysisRequest{
		OriginalRequirement:    requirement,
		RegulationDocumentName: regulationName,
		OrganizationID:         organization,
		SystemName:             systemName,
		Objective:              objective,
		ReqID:                  reqID,
		Temperature:            &temperature,
	}

	result, err := analyzer.RunWithText(ctx, req, regulationText)
	if err != nil {
		return err
	}

	var data []byte
	if asJSON {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = yaml.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Result written to %s\n", output)
	return nil
}

// loadRegulation reads a local regulation document. PDFs are converted to
// text; any other file is used verbatim. An empty path means no regulation.
func loadRegulation(path string) (text, name string, err error) {
	if path == "" {
		return "", "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading regulation %s: %w", path, err)
	}

	name = path
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		text, err = pdftext.Extract(data)
		if err != nil {
			return "", "", fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return text, name, nil
	}
	return string(data), name, nil
}
