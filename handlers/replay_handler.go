package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/knockout-live/middleware"
	"github.com/Dosada05/knockout-live/services"
)

type ReplayHandler struct {
	replayService *services.ReplayService
}

func NewReplayHandler(replayService *services.ReplayService) *ReplayHandler {
	return &ReplayHandler{replayService: replayService}
}

type startReplayInput struct {
	StartMinute int `json:"startMinute"`
	EndMinute   int `json:"endMinute"`
}

func (h *ReplayHandler) StartReplay(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	input := startReplayInput{StartMinute: 0, EndMinute: 90}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	snapshot, err := h.replayService.StartReplay(r.Context(), matchID, input.StartMinute, input.EndMinute)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"replay": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type joinReplayInput struct {
	ViewerID string `json:"viewerId"`
}

// JoinReplay registers the caller as a viewer of an open session. The viewer
// identity comes from the request body or the viewerId query parameter, with
// the token subject as fallback; anonymous GETs receive the snapshot without
// joining.
func (h *ReplayHandler) JoinReplay(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	viewerID := r.URL.Query().Get("viewerId")
	if r.Method == http.MethodPost && r.ContentLength > 0 {
		var input joinReplayInput
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
		if input.ViewerID != "" {
			viewerID = input.ViewerID
		}
	}
	if viewerID == "" {
		if subject, err := middleware.GetUserEmailFromContext(r.Context()); err == nil {
			viewerID = subject
		}
	}

	snapshot, err := h.replayService.JoinReplay(matchID, viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"replay": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type controlReplayInput struct {
	Action string  `json:"action"`
	Speed  float64 `json:"speed,omitempty"`
}

func (h *ReplayHandler) ControlReplay(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input controlReplayInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.replayService.ControlReplay(matchID, input.Action, input.Speed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"replay": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReplayHandler) EndReplay(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	if err := h.replayService.EndReplay(matchID, "ended by operator"); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ended": true, "matchId": matchID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReplayHandler) GetHighlights(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	highlights, err := h.replayService.GetHighlights(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchId": matchID, "highlights": highlights}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
