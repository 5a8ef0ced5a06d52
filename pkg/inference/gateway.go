package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-specforge-be/pkg/llm"
)

// Typed failures so the worker can map them onto the error taxonomy.
var (
	ErrTimeout          = errors.New("inference timed out")
	ErrProviderRejected = errors.New("inference provider rejected the request")
	ErrMalformedOutput  = errors.New("inference returned malformed structured output")
)

// Settings are the caller-visible generation knobs forwarded per request.
type Settings struct {
	Model       string
	Temperature float64
	Language    string
}

// Gateway turns free-form model output into strict-schema documents. It is
// the only place raw LLM text is parsed; everything downstream works with
// StructuredResult.
type Gateway struct {
	provider llm.LLMProvider
	timeout  time.Duration
}

func NewGateway(provider llm.LLMProvider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Gateway{
		provider: provider,
		timeout:  timeout,
	}
}

func (g *Gateway) options(settings Settings) []llm.Option {
	opts := []llm.Option{}
	if settings.Model != "" {
		opts = append(opts, llm.WithModel(settings.Model))
	}
	if settings.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(settings.Temperature))
	}
	return opts
}

func (g *Gateway) generate(ctx context.Context, prompt string, settings Settings) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.provider.Generate(ctx, prompt, g.options(settings)...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return raw, nil
}

// GenerateSpecification runs the main analysis prompt and parses the
// result against the strict schema.
func (g *Gateway) GenerateSpecification(ctx context.Context, prompt string, settings Settings) (*StructuredResult, error) {
	raw, err := g.generate(ctx, prompt, settings)
	if err != nil {
		return nil, err
	}

	var result StructuredResult
	if err := json.Unmarshal(extractJSON(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(result.Features) == 0 && len(result.FunctionalRequirements) == 0 {
		return nil, fmt.Errorf("%w: document has neither features nor functional requirements", ErrMalformedOutput)
	}
	return &result, nil
}

// Converse runs one conversational revision turn. The model either returns
// an updated document plus a reply, or a reply alone.
func (g *Gateway) Converse(ctx context.Context, prompt string, settings Settings) (*ChatOutcome, error) {
	raw, err := g.generate(ctx, prompt, settings)
	if err != nil {
		return nil, err
	}

	var outcome ChatOutcome
	if err := json.Unmarshal(extractJSON(raw), &outcome); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if outcome.Reply == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}
	return &outcome, nil
}

// ClassifySemantics runs the draft gate's drift check and parses findings.
func (g *Gateway) ClassifySemantics(ctx context.Context, prompt string, settings Settings) ([]SemanticFinding, error) {
	raw, err := g.generate(ctx, prompt, settings)
	if err != nil {
		return nil, err
	}

	var findings struct {
		Findings []SemanticFinding `json:"findings"`
	}
	if err := json.Unmarshal(extractJSON(raw), &findings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	for _, f := range findings.Findings {
		if f.Type != "SEMANTIC_MISMATCH" && f.Type != "SCOPE_CREEP" {
			return nil, fmt.Errorf("%w: unknown finding type %q", ErrMalformedOutput, f.Type)
		}
	}
	return findings.Findings, nil
}

// extractJSON tolerates models that wrap JSON in a markdown fence or
// leading prose; it slices from the first brace to the last.
func extractJSON(raw string) []byte {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return []byte(raw)
	}
	return []byte(raw[start : end+1])
}
