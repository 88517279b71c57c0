package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/knockout-live/services"
)

type TournamentHandler struct {
	bracketService    *services.BracketService
	thirdPlaceService *services.ThirdPlaceService
}

func NewTournamentHandler(bracketService *services.BracketService, thirdPlaceService *services.ThirdPlaceService) *TournamentHandler {
	return &TournamentHandler{
		bracketService:    bracketService,
		thirdPlaceService: thirdPlaceService,
	}
}

type initializeBracketInput struct {
	Teams []string `json:"teams"`
}

func (h *TournamentHandler) InitializeBracket(w http.ResponseWriter, r *http.Request) {
	var input initializeBracketInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.InitializeBracket(r.Context(), input.Teams)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	includeTeams := r.URL.Query().Get("includeTeamDetails") == "true"

	bracket, err := h.bracketService.GetBracketState(r.Context(), includeTeams)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.bracketService.GetCurrentState(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type advanceWinnerInput struct {
	MatchID  string `json:"matchId"`
	WinnerID string `json:"winnerId"`
}

func (h *TournamentHandler) AdvanceWinner(w http.ResponseWriter, r *http.Request) {
	var input advanceWinnerInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MatchID == "" {
		badRequestResponse(w, r, errMatchIDRequired)
		return
	}
	if input.WinnerID == "" {
		badRequestResponse(w, r, errWinnerIDRequired)
		return
	}

	if err := h.bracketService.AdvanceWinnerByID(r.Context(), input.MatchID, input.WinnerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"advanced": true, "matchId": input.MatchID, "winner": input.WinnerID}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ValidateMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	report, err := h.bracketService.ValidateProgression(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"validation": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) CreateThirdPlaceMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.thirdPlaceService.CreateThirdPlaceMatch(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
