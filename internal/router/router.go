package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-trip-assistant/internal/api/chat"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/selections"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ChatHandler            chat.Handler
	SelectionsHandler      selections.Handler
	ItineraryHandler       itinerary.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter builds the application routes. Server-wide middleware
// (request id, access log, recoverer) is applied in main.go before mounting.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Get("/chat/messages", cfg.ChatHandler.GetMessages)

		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/search-results", cfg.SelectionsHandler.GetSearchResults)
			r.Get("/selections", cfg.SelectionsHandler.GetSelections)
			r.Get("/plans", cfg.ItineraryHandler.ListPlans)
			r.Get("/plans.ics", cfg.ItineraryHandler.ExportPlans)
		})
	})

	return r
}
