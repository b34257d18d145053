package ui

import (
	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leadsync/internal/ui/resources"
)

func setupRoutes(r chi.Router, h *handlers) {
	r.Handle("/static/*", resources.Handler())

	r.Get("/", h.HandlePage)
	r.Get("/updates", h.HandleUpdates)
	r.Get("/healthz", h.HandleHealth)

	r.Route("/leads", func(r chi.Router) {
		r.Post("/refresh", h.action(h.refresh))
		r.Post("/toggle-all", h.action(h.toggleAll))
		r.Post("/enrich", h.action(h.enrich))
		r.Post("/{id}/toggle", h.action(h.toggleRow))
		r.Delete("/{id}", h.action(h.deleteRow))
	})

	r.Post("/page/next", h.action(h.nextPage))
	r.Post("/page/prev", h.action(h.prevPage))

	r.Route("/upload", func(r chi.Router) {
		r.Post("/", h.action(h.upload))
		r.Post("/open", h.action(h.openUpload))
		r.Post("/cancel", h.action(h.cancelUpload))
		r.Post("/retry", h.action(h.retryUpload))
	})

	r.Post("/alerts/dismiss", h.action(h.dismissAlert))
}
