// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atoms-tech/requirements-engine/internal/analysis"
	"github.com/atoms-tech/requirements-engine/internal/jobs"
	"github.com/atoms-tech/requirements-engine/internal/regdoc"
	"github.com/atoms-tech/requirements-engine/internal/server"
	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the requirements analysis HTTP service",
	Long: `Serve runs the hosted API: synchronous and asynchronous requirement
analysis, and per-organization regulation document management backed by
cloud storage buckets.

The Gemini API key is read from the GEMINI_API_KEY environment variable
or the .secrets/gemini-api-key file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "TCP port to listen on")
	serveCmd.Flags().String("project-id", "", "cloud project that owns created buckets")
	serveCmd.Flags().String("bucket-location", "US", "location for newly created buckets")
	serveCmd.Flags().String("model", "", "generative model identifier (default gemini-1.5-flash)")
	serveCmd.Flags().String("data-dir", "data", "directory for the job database")
	serveCmd.Flags().Duration("retention", 24*time.Hour, "how long finished jobs are kept")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	cfg := serveConfig(cmd)

	cfg.Analysis.APIKey = secretDefault("gemini-api-key", os.Getenv("GEMINI_API_KEY"))
	if cfg.Analysis.APIKey == "" {
		return fmt.Errorf("Gemini API key required: set GEMINI_API_KEY or .secrets/gemini-api-key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewGCSStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	docs := regdoc.New(store, cfg.Storage)

	backend, err := analysis.NewGeminiBackend(ctx, cfg.Analysis)
	if err != nil {
		return err
	}
	analyzer := analysis.New(backend, docs, cfg.Analysis)

	jobStore, err := jobs.NewStore(cfg.Jobs)
	if err != nil {
		return err
	}
	defer jobStore.Close()

	runner := jobs.NewRunner(jobStore, analyzer, logger)

	srv := server.New(cfg.Server, logger, analyzer, docs, jobStore, runner)
	return srv.Run(ctx)
}

// serveConfig resolves service configuration from flags, falling back to
// the viper config file.
func serveConfig(cmd *cobra.Command) types.ServiceConfig {
	port, _ := cmd.Flags().GetInt("port")
	projectID, _ := cmd.Flags().GetString("project-id")
	bucketLocation, _ := cmd.Flags().GetString("bucket-location")
	model, _ := cmd.Flags().GetString("model")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	retention, _ := cmd.Flags().GetDuration("retention")

	if projectID == "" {
		projectID = viper.GetString("storage.project_id")
	}
	if model == "" {
		model = viper.GetString("analysis.model")
	}

	return types.ServiceConfig{
		Server: types.ServerConfig{
			Port:         port,
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Storage: types.StorageConfig{
			ProjectID:      projectID,
			BucketLocation: bucketLocation,
			BucketSuffix:   viper.GetString("storage.bucket_suffix"),
		},
		Analysis: types.AnalysisConfig{
			Model:               model,
			MaxRetries:          viper.GetInt("analysis.max_retries"),
			RegulationTextLimit: viper.GetInt("analysis.regulation_text_limit"),
		},
		Jobs: types.JobsConfig{
			DataDir:   dataDir,
			Retention: retention,
		},
	}
}
