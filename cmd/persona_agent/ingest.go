package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/fetch"
	"github.com/jonathan/persona-engine/internal/ingestion"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a CSV export, a PDF or a web page as a source",
	Long: `Extract, clean and chunk a source document. With a database configured the
source and its chunks are stored; with a storage bucket the original file is archived.`,
	RunE: runIngest,
}

var (
	ingestFile       string
	ingestURL        string
	ingestCompany    string
	ingestUseBrowser bool
	ingestOutput     string
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "Path to a .csv or .pdf file")
	ingestCmd.Flags().StringVarP(&ingestURL, "url", "u", "", "Web page URL to scrape")
	ingestCmd.Flags().StringVarP(&ingestCompany, "company", "c", "", "Company the source belongs to")
	ingestCmd.Flags().BoolVar(&ingestUseBrowser, "browser", false, "Render the page with headless Chrome")
	ingestCmd.Flags().StringVarP(&ingestOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	ingestCmd.MarkFlagsOneRequired("file", "url")
	ingestCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	var ext string
	if ingestFile != "" {
		ext = strings.ToLower(filepath.Ext(ingestFile))
		if ext != ".csv" && ext != ".pdf" {
			return errors.New("only .csv and .pdf files are supported")
		}
	} else if err := fetch.ValidateURL(ingestURL); err != nil {
		return err
	}

	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	pipeline, err := svc.pipeline(cmd.Context())
	if err != nil {
		return err
	}

	var result any
	switch {
	case ingestURL != "":
		result, err = pipeline.IngestURL(cmd.Context(), ingestCompany, ingestURL, ingestUseBrowser || svc.cfg.Fetch.UseBrowser)
	default:
		data, readErr := os.ReadFile(ingestFile)
		if readErr != nil {
			return fmt.Errorf("failed to read file: %w", readErr)
		}
		up := ingestion.Upload{CompanyName: ingestCompany, FileName: filepath.Base(ingestFile), Data: data}
		if ext == ".csv" {
			result, err = pipeline.IngestCRM(cmd.Context(), up)
		} else {
			result, err = pipeline.IngestPDF(cmd.Context(), up)
		}
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), ingestOutput, result)
}
