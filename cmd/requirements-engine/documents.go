// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atoms-tech/requirements-engine/internal/regdoc"
	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage an organization's regulation documents",
	Long: `Documents operates directly on an organization's storage bucket:
list uploaded regulation PDFs, upload new ones, or delete them.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an organization's regulation documents",
	RunE:  runDocumentsList,
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload PDF regulation documents",
	Long: `Upload stores one or more local PDFs in the organization's bucket.
Duplicate filenames are renamed "name(N).pdf". The bucket is created on
first upload.`,
	RunE: runDocumentsUpload,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [document-name]",
	Short: "Delete one regulation document",
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.PersistentFlags().String("organization", "", "organization identifier (required)")
	documentsListCmd.Flags().Bool("json", false, "emit JSON instead of a listing")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsUploadCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

// documentsService builds a regdoc.Service over cloud storage from flags
// and config.
func documentsService(cmd *cobra.Command) (*regdoc.Service, func() error, string, error) {
	organization, _ := cmd.Flags().GetString("organization")
	if organization == "" {
		return nil, nil, "", fmt.Errorf("--organization is required")
	}

	cfg := types.StorageConfig{
		ProjectID:      viper.GetString("storage.project_id"),
		BucketLocation: viper.GetString("storage.bucket_location"),
		BucketSuffix:   viper.GetString("storage.bucket_suffix"),
	}

	store, err := storage.NewGCSStore(context.Background(), cfg)
	if err != nil {
		return nil, nil, "", err
	}

	return regdoc.New(store, cfg), store.Close, organization, nil
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	svc, closeStore, organization, err := documentsService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	docs, err := svc.ListDocuments(context.Background(), organization)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling documents: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		fmt.Printf("No documents for organization %s\n", organization)
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%-50s %10d bytes\n", doc.Name, doc.Size)
	}
	fmt.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentsUpload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files to upload")
	}

	svc, closeStore, organization, err := documentsService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", path, err)
			failed++
			continue
		}

		finalName, err := svc.UploadDocument(context.Background(), organization, filepath.Base(path), data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("uploaded %s as %s\n", path, finalName)
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to upload", failed)
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one document name")
	}

	svc, closeStore, organization, err := documentsService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.DeleteDocument(context.Background(), organization, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
