package selections

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-trip-assistant/app/middleware"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

func newRouter(h *HandlerImpl, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	if userID != uuid.Nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(appMiddleware.WithUserID(r.Context(), userID)))
			})
		})
	}
	r.Get("/trips/{tripID}/selections", h.GetSelections)
	r.Get("/trips/{tripID}/search-results", h.GetSearchResults)
	return r
}

func TestHandlerImpl_GetSelections(t *testing.T) {
	userID, tripID := uuid.New(), uuid.New()

	t.Run("returns the buffer", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetSelections", mock.Anything, userID, tripID).
			Return(&types.SelectionBuffer{Places: []types.CanonicalPlace{place("A")}}, nil).Once()
		h := NewHandler(NewSelectionsService(repo, false, testLogger()), testLogger())

		rec := httptest.NewRecorder()
		newRouter(h, userID).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/selections", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []types.CanonicalPlace
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "A", got[0].Title)
	})

	t.Run("rejects a malformed trip id", func(t *testing.T) {
		h := NewHandler(NewSelectionsService(new(MockRepository), false, testLogger()), testLogger())

		rec := httptest.NewRecorder()
		newRouter(h, userID).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid/selections", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires a user", func(t *testing.T) {
		h := NewHandler(NewSelectionsService(new(MockRepository), false, testLogger()), testLogger())

		rec := httptest.NewRecorder()
		newRouter(h, uuid.Nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/selections", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandlerImpl_GetSearchResults(t *testing.T) {
	userID, tripID := uuid.New(), uuid.New()

	repo := new(MockRepository)
	repo.On("GetResults", mock.Anything, userID, tripID).Return(nil, errors.New("mongo down")).Once()
	h := NewHandler(NewSelectionsService(repo, false, testLogger()), testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/search-results", nil).WithContext(context.Background())
	newRouter(h, userID).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
