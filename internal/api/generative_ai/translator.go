package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Translator renders text in a target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

var _ Translator = (*LLMTranslator)(nil)

// LLMTranslator translates through a TextGenerator.
type LLMTranslator struct {
	gen    TextGenerator
	target language.Tag
	name   string
	logger *slog.Logger
}

// NewLLMTranslator validates target as a BCP 47 tag, e.g. "ko" or "pt-BR".
func NewLLMTranslator(gen TextGenerator, target string, logger *slog.Logger) (*LLMTranslator, error) {
	tag, err := language.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid translation target %q: %w", target, err)
	}
	return &LLMTranslator{
		gen:    gen,
		target: tag,
		name:   display.English.Tags().Name(tag),
		logger: logger,
	}, nil
}

// Target returns the configured target language.
func (t *LLMTranslator) Target() language.Tag {
	return t.target
}

func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	ctx, span := otel.Tracer("Translator").Start(ctx, "Translate", trace.WithAttributes(
		attribute.String("target", t.target.String()),
	))
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	prompt := fmt.Sprintf("Translate the following text into %s. Reply with the translation only.\n\n%s", t.name, text)
	out, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		t.logger.WarnContext(ctx, "Translation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Translation failed")
		return "", err
	}
	span.SetStatus(codes.Ok, "Translated")
	return strings.TrimSpace(out), nil
}
