package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/theme", apiHandler.ThemeHandler)

		r.Post("/conversations", apiHandler.CreateConversationHandler)
		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Get("/", apiHandler.GetConversationHandler)
			r.Delete("/", apiHandler.DeleteConversationHandler)
			r.Post("/messages", apiHandler.PostMessageHandler)
			r.Get("/turns", apiHandler.ListTurnsHandler)
			r.Get("/ws", apiHandler.ConversationSocketHandler)
		})
	})

	return r
}
