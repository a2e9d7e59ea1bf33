package generativeAI

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ IntentClassifier = (*OpenAIClassifier)(nil)

// OpenAIClassifier classifies intents with OpenAI tool calling.
type OpenAIClassifier struct {
	client  openai.Client
	model   string
	timeout time.Duration
	metrics *metrics.AppMetrics
	logger  *slog.Logger
}

func NewOpenAIClassifier(apiKey, model string, timeout time.Duration, m *metrics.AppMetrics, logger *slog.Logger) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClassifier{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, req ClassifyRequest) (*Classification, error) {
	ctx, span := otel.Tracer("OpenAIClassifier").Start(ctx, "Classify", trace.WithAttributes(
		attribute.Int("history.length", len(req.History)),
		attribute.String("model", c.model),
	))
	defer span.End()

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(classifierInstruction)}
	for _, turn := range req.History {
		if turn.Role == types.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Utterance))

	var resp *openai.ChatCompletion
	err := withDeadline(ctx, c.timeout, c.metrics, "classify", func(ctx context.Context) error {
		var err error
		resp, err = c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(c.model),
			Messages: messages,
			Tools:    openAITools(),
		})
		return err
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "OpenAI classification failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Classification failed")
		return nil, err
	}
	if len(resp.Choices) == 0 {
		err = fmt.Errorf("classify: %w", types.ErrClassification)
		span.RecordError(err)
		span.SetStatus(codes.Error, "No choices")
		return nil, err
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		span.SetStatus(codes.Ok, "Plain answer")
		return &Classification{Text: msg.Content}, nil
	}

	call := msg.ToolCalls[0].Function
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			err = fmt.Errorf("%w: %v", types.ErrInvalidArguments, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Bad tool arguments")
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("function", call.Name))
	span.SetStatus(codes.Ok, "Function selected")
	return &Classification{Function: call.Name, Args: args}, nil
}
