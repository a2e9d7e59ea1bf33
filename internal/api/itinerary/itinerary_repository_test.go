package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var entryColumnNames = []string{"plan_id", "user_id", "trip_id", "title", "plan_date", "plan_time",
	"place", "address", "latitude", "longitude", "description", "crew_id"}

func newRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresItineraryRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresItineraryRepo(mockPool, metrics.NewNoop(), testLogger())
}

func TestPostgresItineraryRepo_InsertEntries(t *testing.T) {
	ctx := context.Background()
	entries := []types.ItineraryEntry{
		{PlanID: uuid.New(), UserID: uuid.New(), TripID: uuid.New(), Title: "a", Date: "2025-04-01", Time: "10:00:00"},
		{PlanID: uuid.New(), UserID: uuid.New(), TripID: uuid.New(), Title: "b", Date: "2025-04-01", Time: "12:00:00"},
	}

	t.Run("all rows in one transaction", func(t *testing.T) {
		mockPool, repo := newRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO trip_plans").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO trip_plans").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		require.NoError(t, repo.InsertEntries(ctx, entries))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("second row failure rolls back", func(t *testing.T) {
		mockPool, repo := newRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO trip_plans").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO trip_plans").WillReturnError(errors.New("value too long"))
		mockPool.ExpectRollback()

		err := repo.InsertEntries(ctx, entries)
		require.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresItineraryRepo_UpdateEntry(t *testing.T) {
	ctx := context.Background()
	userID, tripID, planID := uuid.New(), uuid.New(), uuid.New()
	change := EntryChange{Title: "Louvre at night", Date: "2025-04-02", Time: "20:00:00"}

	row := func(crew *uuid.UUID) *pgxmock.Rows {
		return pgxmock.NewRows(entryColumnNames).AddRow(planID, userID, tripID, "Louvre visit", "2025-04-01", "10:00:00",
			"Louvre", "Rue de Rivoli", 48.86, 2.33, "Museum", crew)
	}

	t.Run("applies the change", func(t *testing.T) {
		mockPool, repo := newRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery("FOR UPDATE").WithArgs(userID, tripID, "2025-04-01", "Louvre visit").WillReturnRows(row((*uuid.UUID)(nil)))
		mockPool.ExpectExec("UPDATE trip_plans").WithArgs(change.Title, change.Date, change.Time, planID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()

		before, after, err := repo.UpdateEntry(ctx, userID, tripID, "2025-04-01", "Louvre visit", change)
		require.NoError(t, err)
		assert.Equal(t, "Louvre visit", before.Title)
		assert.Equal(t, "Louvre at night", after.Title)
		assert.Equal(t, "2025-04-02", after.Date)
		assert.Equal(t, "Louvre", after.Place)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("crew entry is rejected", func(t *testing.T) {
		mockPool, repo := newRepo(t)
		crew := uuid.New()
		mockPool.ExpectBegin()
		mockPool.ExpectQuery("FOR UPDATE").WillReturnRows(row(&crew))
		mockPool.ExpectRollback()

		_, _, err := repo.UpdateEntry(ctx, userID, tripID, "2025-04-01", "Louvre visit", change)
		assert.ErrorIs(t, err, types.ErrFrozenEntry)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing entry", func(t *testing.T) {
		mockPool, repo := newRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery("FOR UPDATE").WillReturnError(pgx.ErrNoRows)
		mockPool.ExpectRollback()

		_, _, err := repo.UpdateEntry(ctx, userID, tripID, "2025-04-01", "Louvre visit", change)
		assert.ErrorIs(t, err, types.ErrPlanNotFound)
	})
}

func TestPostgresItineraryRepo_ListEntries(t *testing.T) {
	ctx := context.Background()
	userID, tripID := uuid.New(), uuid.New()
	mockPool, repo := newRepo(t)

	mockPool.ExpectQuery(`(?s)FROM trip_plans.*ORDER BY plan_date, plan_time, plan_id`).WithArgs(userID, tripID, "").WillReturnRows(
		pgxmock.NewRows(entryColumnNames).
			AddRow(uuid.New(), userID, tripID, "a", "2025-04-01", "10:00:00", "A", "x", 1.0, 2.0, "", (*uuid.UUID)(nil)).
			AddRow(uuid.New(), userID, tripID, "b", "2025-04-01", "12:00:00", "B", "y", 1.0, 2.0, "", (*uuid.UUID)(nil)),
	)

	entries, err := repo.ListEntries(ctx, userID, tripID, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[1].Title)
	assert.False(t, entries[0].Frozen())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
