package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

const classifierInstruction = "You are a helpful assistant that helps users plan their travel plans. " +
	"Pick the function that matches the user's latest message. Answer directly only when no function fits."

// TextGenerator produces free text from a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IntentClassifier maps an utterance and recent history to one of the assistant functions.
type IntentClassifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (*Classification, error)
}

// Embedder returns one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type ClassifyRequest struct {
	History   []types.ChatTurn
	Utterance string
}

// Classification is either a function call (Function set) or a plain answer in Text.
type Classification struct {
	Function string
	Args     map[string]any
	Text     string
}

// Options configures the Gemini client.
type Options struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	Timeout        time.Duration
}

var (
	_ TextGenerator    = (*AIClient)(nil)
	_ IntentClassifier = (*AIClient)(nil)
	_ Embedder         = (*AIClient)(nil)
)

type AIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
	timeout        time.Duration
	metrics        *metrics.AppMetrics
	logger         *slog.Logger
}

func NewAIClient(ctx context.Context, opts Options, m *metrics.AppMetrics, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if opts.APIKey == "" {
		err := errors.New("GOOGLE_GEMINI_API_KEY is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = "text-embedding-004"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{
		client:         client,
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		temperature:    opts.Temperature,
		timeout:        opts.Timeout,
		metrics:        m,
		logger:         logger,
	}, nil
}

// Generate sends a single-turn prompt and returns the response text.
func (ai *AIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(ai.temperature)}

	var text string
	err := withDeadline(ctx, ai.timeout, ai.metrics, "generate", func(ctx context.Context) error {
		resp, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		ai.logger.ErrorContext(ctx, "Gemini generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		err = errors.New("model returned an empty response")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty response")
		return "", err
	}

	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated")
	return text, nil
}

// Classify runs function calling over the assistant functions.
func (ai *AIClient) Classify(ctx context.Context, req ClassifyRequest) (*Classification, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Classify", trace.WithAttributes(
		attribute.Int("history.length", len(req.History)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Utterance, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		SystemInstruction: genai.NewContentFromText(classifierInstruction, genai.RoleUser),
		Tools:             geminiTools(),
	}

	var resp *genai.GenerateContentResponse
	err := withDeadline(ctx, ai.timeout, ai.metrics, "classify", func(ctx context.Context) error {
		var err error
		resp, err = ai.client.Models.GenerateContent(ctx, ai.model, contents, config)
		return err
	})
	if err != nil {
		ai.logger.ErrorContext(ctx, "Gemini classification failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Classification failed")
		return nil, err
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		span.SetAttributes(attribute.String("function", calls[0].Name))
		span.SetStatus(codes.Ok, "Function selected")
		return &Classification{Function: calls[0].Name, Args: calls[0].Args}, nil
	}

	span.SetStatus(codes.Ok, "Plain answer")
	return &Classification{Text: resp.Text()}, nil
}

// Embed returns one embedding per text, in input order.
func (ai *AIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Embed", trace.WithAttributes(
		attribute.Int("texts.count", len(texts)),
		attribute.String("model", ai.embeddingModel),
	))
	defer span.End()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	var resp *genai.EmbedContentResponse
	err := withDeadline(ctx, ai.timeout, ai.metrics, "embed", func(ctx context.Context) error {
		var err error
		resp, err = ai.client.Models.EmbedContent(ctx, ai.embeddingModel, contents, nil)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding failed")
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		err = fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding count mismatch")
		return nil, err
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	span.SetStatus(codes.Ok, "Embeddings created")
	return out, nil
}

// withDeadline bounds fn by timeout, records latency and maps deadline overruns to ErrUpstreamTimeout.
func withDeadline(ctx context.Context, timeout time.Duration, m *metrics.AppMetrics, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	m.ObserveLLMCall(ctx, op, start)
	if err == nil {
		return nil
	}
	m.RecordUpstreamError(ctx, "llm")
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, types.ErrUpstreamTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
