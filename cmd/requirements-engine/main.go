// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the requirements-engine CLI.
// The serve subcommand runs the HTTP analysis service; analyze and
// documents operate the pipeline and document buckets directly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atoms-tech/requirements-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the requirements-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "requirements-engine",
	Short: "Requirements analysis against INCOSE/EARS standards and regulations",
	Long: `requirements-engine analyzes software requirements against INCOSE and EARS
standards and checks them for compliance with uploaded regulation documents.
Analysis runs through a three-step generative model pipeline; regulation
PDFs live in per-organization storage buckets.

Run the hosted API with "serve", or use "analyze" and "documents" to drive
the pipeline and document storage from the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./requirements-engine.yaml or ~/.config/requirements-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("requirements-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "requirements-engine"))
		}
	}

	viper.SetEnvPrefix("REQUIREMENTS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
