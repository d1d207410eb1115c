package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate personas for a company with the LLM",
	Long: `Generate a tiered persona set for a company. Context can come from a text file
and from stored sources (requires a database). Use --evaluate to score the result.`,
	RunE: runGenerate,
}

var (
	generateCompany     string
	generateCount       int
	generateContextFile string
	generateSourceIDs   []string
	generateEvaluate    bool
	generateOutput      string
	generateVerbose     bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateCompany, "company", "c", "", "Company name (required)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", types.DefaultGenerateCount, "Number of personas (3-7)")
	generateCmd.Flags().StringVar(&generateContextFile, "context-file", "", "Text file with extra company context")
	generateCmd.Flags().StringSliceVar(&generateSourceIDs, "source-id", nil, "Stored source ID to draw context from (repeatable)")
	generateCmd.Flags().BoolVar(&generateEvaluate, "evaluate", false, "Evaluate the generated personas")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print a summary to stderr")
	_ = generateCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req := types.GenerateRequest{
		CompanyName:   generateCompany,
		GenerateCount: generateCount,
		Evaluate:      generateEvaluate,
	}
	if generateContextFile != "" {
		data, err := os.ReadFile(generateContextFile)
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		req.Context = string(data)
	}
	for _, raw := range generateSourceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid source id %q: %w", raw, err)
		}
		req.SourceIDs = append(req.SourceIDs, id)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	var ev *evaluation.Evaluator
	if req.Evaluate {
		if ev, err = svc.evaluator(cmd.Context()); err != nil {
			return err
		}
	}
	gen, err := svc.generator(cmd.Context(), ev)
	if err != nil {
		return err
	}

	result, err := gen.Generate(cmd.Context(), generation.Request{
		CompanyName: req.CompanyName,
		Count:       req.GenerateCount,
		Context:     req.Context,
		SourceIDs:   req.SourceIDs,
		Evaluate:    req.Evaluate,
	})
	if err != nil {
		return err
	}
	if generateVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintPersonas(result)
	}
	return writeJSON(cmd.OutOrStdout(), generateOutput, result)
}
