package profiles

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

func newTestRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresProfilesRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mockPool, NewPostgresProfilesRepo(mockPool, metrics.NewNoop(), logger)
}

func TestPostgresProfilesRepo_GetProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	query := `SELECT personality FROM users WHERE user_id = \$1`

	t.Run("decodes personality", func(t *testing.T) {
		mockPool, repo := newTestRepo(t)
		mockPool.ExpectQuery(query).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"personality"}).AddRow([]byte(`{"money":"money1","photo":"photo2"}`)))

		profile, err := repo.GetProfile(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, types.PreferenceTag("money1"), profile[types.DimensionMoney])
		assert.Equal(t, types.PreferenceTag("photo2"), profile[types.DimensionPhoto])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("null personality", func(t *testing.T) {
		mockPool, repo := newTestRepo(t)
		mockPool.ExpectQuery(query).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"personality"}).AddRow([]byte(nil)))

		profile, err := repo.GetProfile(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, profile)
	})

	t.Run("no user", func(t *testing.T) {
		mockPool, repo := newTestRepo(t)
		mockPool.ExpectQuery(query).WithArgs(userID).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetProfile(ctx, userID)
		assert.ErrorIs(t, err, types.ErrProfileNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		mockPool, repo := newTestRepo(t)
		mockPool.ExpectQuery(query).WithArgs(userID).WillReturnError(errors.New("connection reset"))

		_, err := repo.GetProfile(ctx, userID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrProfileNotFound)
	})
}

type stubRepo struct {
	profile types.PreferenceProfile
	err     error
}

func (s stubRepo) GetProfile(context.Context, uuid.UUID) (types.PreferenceProfile, error) {
	return s.profile, s.err
}

func TestServiceImpl_Hints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("resolves", func(t *testing.T) {
		svc := NewProfilesService(stubRepo{profile: types.PreferenceProfile{types.DimensionSchedule: "schedule1"}}, logger)
		hints, err := svc.Hints(ctx, uuid.New())
		require.NoError(t, err)
		assert.Contains(t, hints, hintPhrases[types.DimensionSchedule]["schedule1"])
	})

	t.Run("unknown tag propagates", func(t *testing.T) {
		svc := NewProfilesService(stubRepo{profile: types.PreferenceProfile{types.DimensionSchedule: "schedule9"}}, logger)
		_, err := svc.Hints(ctx, uuid.New())
		assert.ErrorIs(t, err, types.ErrUnknownTag)
	})
}
