package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/knockout-live/repositories"
	"github.com/Dosada05/knockout-live/services"
)

type MatchHandler struct {
	simulationService *services.SimulationService
	matchRepo         repositories.MatchRepository
	broadcaster       services.Broadcaster
}

func NewMatchHandler(simulationService *services.SimulationService, matchRepo repositories.MatchRepository, broadcaster services.Broadcaster) *MatchHandler {
	return &MatchHandler{
		simulationService: simulationService,
		matchRepo:         matchRepo,
		broadcaster:       broadcaster,
	}
}

type simulateMatchInput struct {
	MatchID  string `json:"matchId,omitempty"`
	HomeTeam string `json:"homeTeam,omitempty"`
	AwayTeam string `json:"awayTeam,omitempty"`
}

// SimulateMatch runs the instant uniform engine. With a matchId the stored
// match is simulated in place; with two team names a standalone friendly is
// generated.
func (h *MatchHandler) SimulateMatch(w http.ResponseWriter, r *http.Request) {
	var input simulateMatchInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	switch {
	case input.MatchID != "":
		match, err := h.simulationService.SimulateMatch(r.Context(), input.MatchID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	case input.HomeTeam != "" && input.AwayTeam != "":
		match, err := h.simulationService.SimulateFriendly(r.Context(), input.HomeTeam, input.AwayTeam)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	default:
		badRequestResponse(w, r, errors.New("either matchId or both homeTeam and awayTeam are required"))
	}
}

// PlayMatch runs the instant rating-weighted engine against a stored match.
func (h *MatchHandler) PlayMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	match, err := h.simulationService.PlayMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartLiveMatch kicks off a paced background simulation; progress arrives
// over the match websocket room.
func (h *MatchHandler) StartLiveMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	if err := h.simulationService.StartLiveMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"matchId": matchID, "status": "live"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	match, err := h.matchRepo.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchStatus(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	match, err := h.matchRepo.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"matchId":      match.ID,
		"status":       match.Status,
		"resolution":   match.Resolution,
		"homeScore":    match.HomeScore,
		"awayScore":    match.AwayScore,
		"winner":       match.Winner,
		"isLive":       h.simulationService.IsLive(match.ID),
		"watcherCount": h.broadcaster.WatcherCount(match.ID),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
