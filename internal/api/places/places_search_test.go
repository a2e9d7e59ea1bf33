package places

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

type MockTextSearcher struct {
	mock.Mock
}

func (m *MockTextSearcher) TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(maps.PlacesSearchResponse), args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func result(name, address string, lat, lng float64) maps.PlacesSearchResult {
	r := maps.PlacesSearchResult{
		Name:             name,
		FormattedAddress: address,
		Rating:           4.5,
		UserRatingsTotal: 120,
		Types:            []string{"cafe", "point_of_interest"},
	}
	r.Geometry.Location = maps.LatLng{Lat: lat, Lng: lng}
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapsSearcher_SearchPlaces(t *testing.T) {
	ctx := context.Background()

	t.Run("drops unschedulable results", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r *maps.TextSearchRequest) bool {
			return r.Query == "cafes in Lisbon" && r.Location == nil
		})).Return(maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{
			result("Cafe A", "Rua A 1", 38.71, -9.14),
			result("No Address", "", 38.72, -9.13),
			result("No Coords", "Rua C 3", 0, 0),
		}}, nil).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{}, metrics.NewNoop(), testLogger())
		got, err := s.SearchPlaces(ctx, "cafes in Lisbon", nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Cafe A", got[0].Title)
		require.NotNil(t, got[0].Rating)
		assert.Equal(t, 4.5, *got[0].Rating)
		assert.Equal(t, "Cafe (120 reviews)", got[0].Description)
		assert.Nil(t, got[0].Price)
		client.AssertExpectations(t)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.Anything).Return(maps.PlacesSearchResponse{}, nil).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{}, metrics.NewNoop(), testLogger())
		got, err := s.SearchPlaces(ctx, "nothing", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bias sets location and radius", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r *maps.TextSearchRequest) bool {
			return r.Location != nil && r.Location.Lat == 41.39 && r.Radius == RadiusForZoom(14)
		})).Return(maps.PlacesSearchResponse{}, nil).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{}, metrics.NewNoop(), testLogger())
		_, err := s.SearchPlaces(ctx, "tapas", &types.GeoBias{Latitude: 41.39, Longitude: 2.17, Zoom: 14})
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("transport failure", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.Anything).Return(maps.PlacesSearchResponse{}, errors.New("REQUEST_DENIED")).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{}, metrics.NewNoop(), testLogger())
		_, err := s.SearchPlaces(ctx, "cafes", nil)
		assert.ErrorIs(t, err, types.ErrUpstreamSearch)
		assert.NotErrorIs(t, err, types.ErrUpstreamTimeout)
	})

	t.Run("timeout is distinct", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).Return(maps.PlacesSearchResponse{}, context.DeadlineExceeded).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{Timeout: 10 * time.Millisecond}, metrics.NewNoop(), testLogger())
		_, err := s.SearchPlaces(ctx, "cafes", nil)
		assert.ErrorIs(t, err, types.ErrUpstreamSearch)
		assert.ErrorIs(t, err, types.ErrUpstreamTimeout)
	})

	t.Run("translates results when enabled", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.Anything).Return(maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{
			result("Cafe A", "Rua A 1", 38.71, -9.14),
			result("Cafe B", "Rua B 2", 38.72, -9.15),
		}}, nil).Once()
		tr := new(MockTranslator)
		tr.On("Translate", mock.Anything, "Cafe (120 reviews)").Return("카페 (리뷰 120개)", nil).Once()
		tr.On("Translate", mock.Anything, "Cafe (120 reviews)").Return("", errors.New("quota")).Once()

		s := NewMapsSearcher(client, tr, SearchOptions{TranslateResults: true, Concurrency: 1}, metrics.NewNoop(), testLogger())
		got, err := s.SearchPlaces(ctx, "cafes", nil)
		require.NoError(t, err)
		require.Len(t, got, 2)

		descs := []string{got[0].Description, got[1].Description}
		assert.ElementsMatch(t, []string{"카페 (리뷰 120개)", "Cafe (120 reviews)"}, descs)
		tr.AssertExpectations(t)
	})
}

func TestMapsSearcher_LookupPlace(t *testing.T) {
	ctx := context.Background()

	t.Run("first schedulable result, translated", func(t *testing.T) {
		client := new(MockTextSearcher)
		first := result("Broken", "", 1, 1)
		second := result("Sagrada Familia", "C/ de Mallorca 401", 41.40, 2.17)
		second.PriceLevel = 2
		client.On("TextSearch", mock.Anything, mock.Anything).Return(maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{first, second}}, nil).Once()
		tr := new(MockTranslator)
		tr.On("Translate", mock.Anything, mock.Anything).Return("성당", nil).Once()

		s := NewMapsSearcher(client, tr, SearchOptions{}, metrics.NewNoop(), testLogger())
		got, err := s.LookupPlace(ctx, "Sagrada Familia", nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sagrada Familia", got.Title)
		assert.Equal(t, "성당", got.Description)
		require.NotNil(t, got.Price)
		assert.Equal(t, "$$", *got.Price)
	})

	t.Run("nothing schedulable", func(t *testing.T) {
		client := new(MockTextSearcher)
		client.On("TextSearch", mock.Anything, mock.Anything).Return(maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{result("X", "", 0, 0)}}, nil).Once()

		s := NewMapsSearcher(client, nil, SearchOptions{}, metrics.NewNoop(), testLogger())
		got, err := s.LookupPlace(ctx, "X", nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRadiusForZoom(t *testing.T) {
	assert.Equal(t, uint(maxRadiusMeters), RadiusForZoom(0))
	assert.Equal(t, uint(minRadiusMeters), RadiusForZoom(21))
	assert.Equal(t, uint(2445), RadiusForZoom(14))
	assert.Equal(t, uint(maxRadiusMeters), RadiusForZoom(-3))
}
