package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draftpit/auction-engine/internal/hub"
	"github.com/draftpit/auction-engine/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLog(log))

	r.Get("/healthz", Healthz)

	r.Route("/leagues/{leagueID}", func(r chi.Router) {
		r.Get("/state", GetState(h))
		r.Get("/events", ws.Handler(h))

		r.Post("/auction/start", StartAuction(h))
		r.Post("/auction/advance", AdvanceItem(h))
		r.Route("/auction/items/{playerID}", func(r chi.Router) {
			r.Post("/bids", PlaceBid(h))
			r.Post("/pass", PassOn(h))
			r.Post("/resolve", ResolveItem(h))
			r.Post("/revert", RevertItem(h))
		})

		r.Post("/market/listings", CreateListing(h))
	})

	return r
}

func requestLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}
