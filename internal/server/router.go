package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ravenkeep/townsquare/internal/middleware"
	"github.com/ravenkeep/townsquare/internal/services/content"
	"github.com/ravenkeep/townsquare/internal/ws"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger    *slog.Logger
	WSHandler *ws.Handler
	Content   *content.Service
}

// NewRouter creates the HTTP router: the websocket endpoint, edition
// content, and a health check
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.WSHandler != nil {
		r.Handle("/ws", cfg.WSHandler)
	}
	r.HandleFunc("/editions/{edition}.json", editionHandler(cfg.Content)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	return r
}

// editionHandler serves edition role/night-order content for host
// clients
func editionHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["edition"]

		edition, err := svc.Edition(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(edition); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
