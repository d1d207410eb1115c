package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/schemas"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the diversity of a persona set",
	Long: `Read a persona JSON file (a bare array, {"personas": [...]} or {"result": {"personas": [...]}}),
evaluate semantic, industry, geographic, size and tier diversity, print a summary
and optionally write the full result as JSON.`,
	RunE: runEvaluate,
}

var (
	evaluateInput  string
	evaluateOutput string
	evaluateQuiet  bool
)

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateInput, "in", "i", "", "Path to persona JSON file (required)")
	evaluateCmd.Flags().StringVarP(&evaluateOutput, "out", "o", "", "Path to write the evaluation result JSON")
	evaluateCmd.Flags().BoolVarP(&evaluateQuiet, "quiet", "q", false, "Skip the printed summary")
	_ = evaluateCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(evaluateCmd)
}

// personaEvaluator is the part of evaluation.Evaluator the command uses.
type personaEvaluator interface {
	EvaluatePersonas(ctx context.Context, personas []persona.Record) (*evaluation.Result, error)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	ev, err := svc.evaluator(cmd.Context())
	if err != nil {
		return err
	}
	var summary io.Writer
	if !evaluateQuiet {
		summary = cmd.OutOrStdout()
	}
	_, err = evaluateFile(cmd.Context(), ev, svc.log, evaluateInput, evaluateOutput, summary)
	return err
}

// evaluateFile evaluates the personas in inPath, prints a summary to w when
// w is non-nil and writes the JSON result to outPath when set. A result that
// does not match the evaluation schema is logged, not returned.
func evaluateFile(ctx context.Context, ev personaEvaluator, log logger.Logger, inPath, outPath string, w io.Writer) (*evaluation.Result, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}
	records, err := persona.Decode(data)
	if err != nil {
		return nil, err
	}
	persona.CheckAll(ctx, log, records)

	result, err := ev.EvaluatePersonas(ctx, records)
	if err != nil {
		return nil, err
	}

	if w != nil {
		observability.NewPrinter(w).PrintEvaluation(result)
	}
	if outPath != "" {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write output file: %w", err)
		}
		if err := schemas.ValidateFile(schemas.EvaluationResult, outPath); err != nil {
			log.Warn(ctx, "evaluation result does not match schema", logger.Err(err))
		}
	}
	return result, nil
}
