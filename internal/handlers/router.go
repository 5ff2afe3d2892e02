package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/zheric/setgame/internal/middleware"
)

// NewRouter mounts the game endpoints behind logging, recovery, heartbeat and CORS.
func NewRouter(gs *GameServer, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LogMiddleware(gs.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if gs.OriginPatterns == nil {
		gs.OriginPatterns = originPatterns(allowedOrigins)
	}

	r.Route("/game", func(r chi.Router) {
		r.Get("/", gs.ListGamesHandler)
		r.Post("/create", gs.CreateGameHandler)
		r.Get("/ws/{id}", GameWSHandler(gs))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", gs.GameStateHandler)
			r.Delete("/", gs.DeleteGameHandler)
			r.Post("/select", gs.SelectHandler)
			r.Post("/deal", gs.DealHandler)
			r.Post("/restart", gs.RestartHandler)
			r.Get("/hint", gs.HintHandler)
		})
	})
	return r
}

// originPatterns turns CORS origins into host patterns for websocket.Accept.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
