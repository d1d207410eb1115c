// Package generation drafts buyer-persona sets with Gemini, grounded in
// ingested source documents, and optionally scores them for diversity.
package generation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/prompts"
	"github.com/jonathan/persona-engine/internal/schemas"
)

// Context limits.
const (
	DefaultMaxContextChars = 24000
	ChunksPerSource        = 20
)

// ChunkSource loads stored chunks for source documents.
type ChunkSource interface {
	GetChunksForSources(ctx context.Context, sourceIDs []uuid.UUID, limit int) ([]db.SourceChunk, error)
}

// Request describes one generation run.
type Request struct {
	CompanyName string
	Count       int
	Context     string
	SourceIDs   []uuid.UUID
	Evaluate    bool
}

// Result is a generated persona set.
type Result struct {
	CompanyName string             `json:"company_name"`
	Personas    []persona.Persona  `json:"personas"`
	TierTargets map[string]int     `json:"tier_targets"`
	Warnings    []persona.Warning  `json:"warnings,omitempty"`
	Evaluation  *evaluation.Result `json:"evaluation,omitempty"`
	EvalError   string             `json:"evaluation_error,omitempty"`
	Model       llm.ModelTier      `json:"model_tier"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Generator builds prompts, calls the model and post-processes its output.
type Generator struct {
	client          llm.Client
	chunks          ChunkSource
	evaluator       *evaluation.Evaluator
	log             logger.Logger
	metrics         *metrics.Manager
	maxContextChars int
	now             func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithChunkSource enables source_ids lookups.
func WithChunkSource(c ChunkSource) Option {
	return func(g *Generator) { g.chunks = c }
}

// WithEvaluator enables Request.Evaluate.
func WithEvaluator(e *evaluation.Evaluator) Option {
	return func(g *Generator) { g.evaluator = e }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithMaxContextChars caps the source text placed in the prompt.
func WithMaxContextChars(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxContextChars = n
		}
	}
}

// New creates a Generator around client.
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:          client,
		log:             logger.Nop(),
		maxContextChars: DefaultMaxContextChars,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate drafts req.Count personas for req.CompanyName.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, &Error{Stage: "prompt", Message: "company name is required"}
	}
	if req.Count < 1 {
		return nil, &Error{Stage: "prompt", Message: "persona count must be positive"}
	}

	sourceText, err := g.sourceContext(ctx, req)
	if err != nil {
		return nil, err
	}

	targets := evaluation.TierTargets(req.Count)
	prompt, err := buildPrompt(name, req.Count, targets, sourceText)
	if err != nil {
		return nil, &Error{Stage: "prompt", Message: "failed to render prompt", Cause: err}
	}

	tier := llm.TierFor(req.Count)
	start := g.now()
	raw, err := g.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, &Error{Stage: "llm", Message: "model call failed", Cause: err}
	}
	g.log.Debug(ctx, "persona draft received",
		logger.String("company", name),
		logger.Int("bytes", len(raw)),
		logger.Float64("elapsed_s", g.now().Sub(start).Seconds()))

	personas, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if len(personas) != req.Count {
		g.log.Warn(ctx, "persona count differs from request",
			logger.Int("requested", req.Count),
			logger.Int("received", len(personas)))
	}

	records := persona.Records(personas)
	result := &Result{
		CompanyName: name,
		Personas:    personas,
		TierTargets: targets,
		Warnings:    persona.CheckAll(ctx, g.log, records),
		Model:       tier,
		GeneratedAt: g.now().UTC(),
	}
	g.metrics.RecordPersonasGenerated(len(personas))

	if req.Evaluate && g.evaluator != nil {
		eval, err := g.evaluator.EvaluatePersonas(ctx, records)
		if err != nil {
			g.log.Warn(ctx, "evaluation of generated personas failed", logger.Err(err))
			result.EvalError = err.Error()
		} else {
			result.Evaluation = eval
		}
	}

	g.log.Info(ctx, "personas generated",
		logger.String("company", name),
		logger.Int("count", len(personas)),
		logger.Int("warnings", len(result.Warnings)))
	return result, nil
}

// sourceContext joins the caller's context with stored chunks, capped at maxContextChars.
func (g *Generator) sourceContext(ctx context.Context, req Request) (string, error) {
	var parts []string
	if text := strings.TrimSpace(req.Context); text != "" {
		parts = append(parts, text)
	}
	if len(req.SourceIDs) > 0 {
		if g.chunks == nil {
			return "", &Error{Stage: "context", Message: "source_ids given but no source store is configured"}
		}
		chunks, err := g.chunks.GetChunksForSources(ctx, req.SourceIDs, ChunksPerSource)
		if err != nil {
			return "", &Error{Stage: "context", Message: "failed to load source chunks", Cause: err}
		}
		for _, c := range chunks {
			parts = append(parts, c.Content)
		}
	}
	return truncateRunes(strings.Join(parts, "\n\n"), g.maxContextChars), nil
}

func buildPrompt(company string, count int, targets map[string]int, sourceText string) (llm.Prompt, error) {
	system, err := prompts.Get(prompts.PersonasFile, "system")
	if err != nil {
		return llm.Prompt{}, err
	}
	if sourceText == "" {
		sourceText, err = prompts.Render(prompts.PersonasFile, "no-context", map[string]string{"CompanyName": company})
		if err != nil {
			return llm.Prompt{}, err
		}
	}
	user, err := prompts.Render(prompts.PersonasFile, "generate", map[string]string{
		"CompanyName": company,
		"Context":     sourceText,
		"Count":       strconv.Itoa(count),
		"TierTargets": formatTargets(targets),
	})
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: system, User: user}, nil
}

func formatTargets(targets map[string]int) string {
	return fmt.Sprintf("%s: %d, %s: %d, %s: %d",
		evaluation.Tier1, targets[evaluation.Tier1],
		evaluation.Tier2, targets[evaluation.Tier2],
		evaluation.Tier3, targets[evaluation.Tier3])
}

// decode parses the model output, fills a missing name or invalid tier, and
// validates the set against the persona schema.
func decode(raw string) ([]persona.Persona, error) {
	personas, err := persona.DecodeTyped([]byte(llm.CleanJSONBlock(raw)))
	if err != nil {
		return nil, &Error{Stage: "decode", Message: "model returned malformed personas", Cause: err}
	}
	for i := range personas {
		repair(i, &personas[i])
	}
	if err := schemas.ValidateValue(schemas.PersonaSet, map[string]any{"personas": personas}); err != nil {
		return nil, &Error{Stage: "schema", Message: "model output does not match the persona schema", Cause: err}
	}
	return personas, nil
}

func repair(i int, p *persona.Persona) {
	if strings.TrimSpace(p.Name) == "" {
		if len(p.JobTitles) > 0 {
			p.Name = p.JobTitles[0]
		} else {
			p.Name = fmt.Sprintf("Persona %d", i+1)
		}
	}
	switch p.Tier {
	case evaluation.Tier1, evaluation.Tier2, evaluation.Tier3:
	default:
		p.Tier = evaluation.Tier3
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
