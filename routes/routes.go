package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/knockout-live/handlers"
	"github.com/Dosada05/knockout-live/middleware"
	"github.com/Dosada05/knockout-live/services"
)

// SetupRoutes mounts the full control surface. Reads are public; everything
// that mutates the tournament requires an admin token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	replayHandler *handlers.ReplayHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	adminOnly := func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.Authorize(services.RoleAdmin))
	}

	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournament", func(r chi.Router) {
		r.Get("/bracket", tournamentHandler.GetBracket)
		r.Get("/state", tournamentHandler.GetState)
		r.Get("/validate/{matchID}", tournamentHandler.ValidateMatch)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/initialize", tournamentHandler.InitializeBracket)
			r.Post("/advance", tournamentHandler.AdvanceWinner)
			r.Post("/third-place", tournamentHandler.CreateThirdPlaceMatch)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatch)
		r.Get("/{matchID}/status", matchHandler.GetMatchStatus)
		r.Get("/{matchID}/highlights", replayHandler.GetHighlights)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/simulate", matchHandler.SimulateMatch)
			r.Post("/{matchID}/play", matchHandler.PlayMatch)
			r.Post("/start/{matchID}", matchHandler.StartLiveMatch)
		})
	})

	router.Route("/replays", func(r chi.Router) {
		r.Get("/{matchID}", replayHandler.JoinReplay)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/{matchID}/start", replayHandler.StartReplay)
			r.Post("/{matchID}/join", replayHandler.JoinReplay)
			r.Post("/{matchID}/control", replayHandler.ControlReplay)
			r.Post("/{matchID}/end", replayHandler.EndReplay)
		})
	})

	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeMatch)
	router.Get("/ws/tournament", webSocketHandler.ServeTournament)
}
