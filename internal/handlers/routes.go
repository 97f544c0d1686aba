package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mingunC/renovationPlatform-sub000/internal/middleware"
)

// NewRouter mounts every endpoint under /api. Everything except ping and
// statuses requires a bearer token signed with jwtSecret.
func NewRouter(h *Handler, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recovery)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Get("/statuses", h.StatusesHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtSecret))

			r.Get("/accounts/me", h.GetMyAccountHandler)
			r.Put("/accounts/me", h.SaveMyAccountHandler)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.CreateRequestHandler)
				r.Get("/", h.ListRequestsHandler)

				r.Route("/{requestId}", func(r chi.Router) {
					r.Get("/", h.GetRequestHandler)
					r.Put("/interest", h.SetInterestHandler)
					r.Get("/participants", h.ListParticipantsHandler)
					r.Put("/advance", h.AdvanceHandler)
					r.Put("/inspection", h.ScheduleInspectionHandler)
					r.Put("/bidding/open", h.OpenBiddingHandler)
					r.Put("/bidding/close", h.CloseBiddingHandler)
					r.Put("/complete", h.CompleteHandler)
					r.Put("/cancel", h.CancelHandler)
					r.Post("/bids", h.SubmitBidHandler)
					r.Get("/bids", h.ListBidsHandler)
				})
			})

			r.Get("/bids/my", h.GetUserBidsHandler)
			r.Delete("/bids/{bidId}", h.WithdrawBidHandler)
			r.Put("/bids/{bidId}/accept", h.AcceptBidHandler)
		})
	})
	return r
}
