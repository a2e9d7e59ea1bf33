package itinerary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertEntries(ctx context.Context, entries []types.ItineraryEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockRepository) ListEntries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error) {
	args := m.Called(ctx, userID, tripID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ItineraryEntry), args.Error(1)
}

func (m *MockRepository) FindEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string) (*types.ItineraryEntry, error) {
	args := m.Called(ctx, userID, tripID, date, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ItineraryEntry), args.Error(1)
}

func (m *MockRepository) UpdateEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string, change EntryChange) (*types.ItineraryEntry, *types.ItineraryEntry, error) {
	args := m.Called(ctx, userID, tripID, date, title, change)
	var before, after *types.ItineraryEntry
	if v := args.Get(0); v != nil {
		before = v.(*types.ItineraryEntry)
	}
	if v := args.Get(1); v != nil {
		after = v.(*types.ItineraryEntry)
	}
	return before, after, args.Error(2)
}

type MockTrips struct {
	mock.Mock
}

func (m *MockTrips) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, userID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

type MockSelections struct {
	mock.Mock
}

func (m *MockSelections) Selections(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error) {
	args := m.Called(ctx, userID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CanonicalPlace), args.Error(1)
}

func (m *MockSelections) ClearSelection(ctx context.Context, userID, tripID uuid.UUID) error {
	args := m.Called(ctx, userID, tripID)
	return args.Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func isPlanningPrompt(p string) bool { return strings.Contains(p, "Return a JSON array only") }
func isSummaryPrompt(p string) bool  { return strings.Contains(p, "Describe this itinerary") }

type synthFixture struct {
	repo       *MockRepository
	trips      *MockTrips
	selections *MockSelections
	gen        *MockGenerator
	svc        *ServiceImpl
}

func newSynthFixture() *synthFixture {
	f := &synthFixture{
		repo:       new(MockRepository),
		trips:      new(MockTrips),
		selections: new(MockSelections),
		gen:        new(MockGenerator),
	}
	f.svc = NewItineraryService(f.repo, f.trips, f.selections, f.gen, nil, testLogger())
	return f
}

func TestServiceImpl_Synthesize(t *testing.T) {
	ctx := context.Background()
	userID, tripID := uuid.New(), uuid.New()
	trip := &types.Trip{TripID: tripID, UserID: userID, City: "Paris", Country: "France", StartDate: "2025-04-01", EndDate: "2025-04-02"}
	saved := []types.CanonicalPlace{{Title: "Louvre", Address: "Rue de Rivoli", Latitude: 48.86, Longitude: 2.33}}

	t.Run("empty buffer fails without inserting", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return([]types.CanonicalPlace{}, nil).Once()

		_, err := f.svc.Synthesize(ctx, userID, tripID)
		assert.ErrorIs(t, err, types.ErrNoSelections)
		f.repo.AssertNotCalled(t, "InsertEntries", mock.Anything, mock.Anything)
		f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("unparseable plan commits nothing and keeps the buffer", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return(saved, nil).Once()
		f.trips.On("GetTrip", mock.Anything, userID, tripID).Return(trip, nil).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isPlanningPrompt)).Return("I'd suggest visiting the Louvre first.", nil).Once()

		_, err := f.svc.Synthesize(ctx, userID, tripID)
		assert.ErrorIs(t, err, types.ErrPlanParse)
		f.repo.AssertNotCalled(t, "InsertEntries", mock.Anything, mock.Anything)
		f.selections.AssertNotCalled(t, "ClearSelection", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("commits, clears the buffer and returns the narrative", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return(saved, nil).Once()
		f.trips.On("GetTrip", mock.Anything, userID, tripID).Return(trip, nil).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isPlanningPrompt)).Return(validPlan, nil).Once()
		f.repo.On("InsertEntries", mock.Anything, mock.MatchedBy(func(entries []types.ItineraryEntry) bool {
			return len(entries) == 2 && entries[0].UserID == userID && entries[1].TripID == tripID &&
				entries[0].CrewID == nil && entries[0].PlanID != entries[1].PlanID
		})).Return(nil).Once()
		f.selections.On("ClearSelection", mock.Anything, userID, tripID).Return(nil).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isSummaryPrompt)).Return("Your Paris itinerary is ready! Day 1 - Louvre", nil).Once()

		summary, err := f.svc.Synthesize(ctx, userID, tripID)
		require.NoError(t, err)
		assert.Equal(t, "Your Paris itinerary is ready! Day 1 - Louvre", summary)
		f.repo.AssertExpectations(t)
		f.selections.AssertExpectations(t)
		f.gen.AssertExpectations(t)
	})

	t.Run("insert failure leaves the buffer", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return(saved, nil).Once()
		f.trips.On("GetTrip", mock.Anything, userID, tripID).Return(trip, nil).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isPlanningPrompt)).Return(validPlan, nil).Once()
		f.repo.On("InsertEntries", mock.Anything, mock.Anything).Return(errors.New("tx aborted")).Once()

		_, err := f.svc.Synthesize(ctx, userID, tripID)
		assert.Error(t, err)
		f.selections.AssertNotCalled(t, "ClearSelection", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("summary failure falls back to the plain schedule", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return(saved, nil).Once()
		f.trips.On("GetTrip", mock.Anything, userID, tripID).Return(trip, nil).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isPlanningPrompt)).Return(validPlan, nil).Once()
		f.repo.On("InsertEntries", mock.Anything, mock.Anything).Return(nil).Once()
		f.selections.On("ClearSelection", mock.Anything, userID, tripID).Return(errors.New("mongo down")).Once()
		f.gen.On("Generate", mock.Anything, mock.MatchedBy(isSummaryPrompt)).Return("", types.ErrUpstreamTimeout).Once()

		summary, err := f.svc.Synthesize(ctx, userID, tripID)
		require.NoError(t, err)
		assert.Contains(t, summary, "Day 1 - 2025-04-01")
		assert.Contains(t, summary, "10:00 Louvre visit (Louvre)")
	})

	t.Run("planning timeout surfaces", func(t *testing.T) {
		f := newSynthFixture()
		f.selections.On("Selections", mock.Anything, userID, tripID).Return(saved, nil).Once()
		f.trips.On("GetTrip", mock.Anything, userID, tripID).Return(trip, nil).Once()
		f.gen.On("Generate", mock.Anything, mock.Anything).Return("", types.ErrUpstreamTimeout).Once()

		_, err := f.svc.Synthesize(ctx, userID, tripID)
		assert.ErrorIs(t, err, types.ErrUpstreamTimeout)
		f.repo.AssertNotCalled(t, "InsertEntries", mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_Entries(t *testing.T) {
	ctx := context.Background()
	userID, tripID := uuid.New(), uuid.New()

	f := newSynthFixture()
	_, err := f.svc.Entries(ctx, userID, tripID, "April 1st")
	assert.ErrorIs(t, err, types.ErrInvalidArguments)

	f.repo.On("ListEntries", mock.Anything, userID, tripID, "2025-04-01").Return([]types.ItineraryEntry{{Title: "Louvre visit"}}, nil).Once()
	entries, err := f.svc.Entries(ctx, userID, tripID, "2025-04-01")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
