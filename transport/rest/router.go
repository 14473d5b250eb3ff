package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// NewRouter - mounts the HTTP API, the websocket endpoint and, when staticDir is set, the web client.
func NewRouter(logger *slog.Logger, directory directoryService, history historyReader, ws http.Handler, staticDir string) http.Handler {
	h := newHandlers(logger, directory, history)

	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", h.createRoom).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/verify", h.verifyRoom).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/history", h.recentMatches).Methods(http.MethodGet)

	r.Handle("/ws", ws)

	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
