package api

import "github.com/go-chi/chi/v5"

func RegisterRoutes(mux chi.Router, h *Handlers) {
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Post("/api/chat", h.Chat)
	mux.Get("/api/conversation", h.Conversation)

	// Admin is only set when the operator opts in; the routes are unauthenticated.
	if h.Admin != nil {
		mux.Get("/admin/key", h.Admin.KeyState)
		mux.Post("/admin/key", h.Admin.SelectKey)
	}
}
