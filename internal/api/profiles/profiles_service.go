package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

// Service turns a user's stored profile into ranking hints.
type Service interface {
	Hints(ctx context.Context, userID uuid.UUID) (string, error)
}

type ServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewProfilesService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, logger: logger}
}

func (s *ServiceImpl) Hints(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "Hints", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Hints"), slog.String("userID", userID.String()))

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load profile")
		return "", fmt.Errorf("error loading preference profile: %w", err)
	}

	hints, err := ResolveHints(profile)
	if err != nil {
		l.ErrorContext(ctx, "Profile contains an unknown tag", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown tag")
		return "", err
	}

	span.SetStatus(codes.Ok, "Hints resolved")
	return hints, nil
}
