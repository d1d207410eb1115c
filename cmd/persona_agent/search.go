package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/research"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find a company's official site, news and case studies",
	RunE:  runSearch,
}

var (
	searchCompany       string
	searchNoNews        bool
	searchNoCaseStudies bool
	searchOutput        string
	searchVerbose       bool
)

func init() {
	searchCmd.Flags().StringVarP(&searchCompany, "company", "c", "", "Company name (required)")
	searchCmd.Flags().BoolVar(&searchNoNews, "no-news", false, "Skip news articles")
	searchCmd.Flags().BoolVar(&searchNoCaseStudies, "no-case-studies", false, "Skip case studies")
	searchCmd.Flags().StringVarP(&searchOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print a summary to stderr")
	_ = searchCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	searcher, err := svc.searcher(cmd.Context())
	if err != nil {
		return err
	}
	result, err := searcher.SearchCompany(cmd.Context(), searchCompany, research.Options{
		IncludeNews:        !searchNoNews,
		IncludeCaseStudies: !searchNoCaseStudies,
	})
	if err != nil {
		return err
	}
	if searchVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintCompanySearch(result)
	}
	return writeJSON(cmd.OutOrStdout(), searchOutput, result)
}
