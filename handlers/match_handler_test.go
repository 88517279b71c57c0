package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
	"github.com/Dosada05/knockout-live/services"
)

type stubMatchRepo struct {
	repositories.MatchRepository
	match *models.Match
}

func (s stubMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	if s.match != nil && s.match.ID == id {
		return s.match, nil
	}
	return nil, repositories.ErrMatchNotFound
}

type stubBroadcaster struct {
	services.Broadcaster
	watchers int
}

func (s stubBroadcaster) WatcherCount(string) int { return s.watchers }

func TestGetMatchStatusIncludesWatcherCount(t *testing.T) {
	repo := stubMatchRepo{match: &models.Match{
		ID:        "m1",
		HomeTeam:  "Brazil",
		AwayTeam:  "Germany",
		Status:    models.MatchStatusCompleted,
		HomeScore: 2,
		AwayScore: 1,
		Winner:    "Brazil",
	}}
	sim := services.NewSimulationService(repo, nil, nil, nil, nil, nil)
	handler := NewMatchHandler(sim, repo, stubBroadcaster{watchers: 3})

	router := chi.NewRouter()
	router.Get("/matches/{matchID}/status", handler.GetMatchStatus)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/matches/m1/status", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "m1", body["matchId"])
	assert.Equal(t, float64(3), body["watcherCount"])
	assert.Equal(t, false, body["isLive"])
	assert.Equal(t, "Brazil", body["winner"])
}

func TestGetMatchStatusUnknownMatch(t *testing.T) {
	repo := stubMatchRepo{}
	sim := services.NewSimulationService(repo, nil, nil, nil, nil, nil)
	handler := NewMatchHandler(sim, repo, stubBroadcaster{})

	router := chi.NewRouter()
	router.Get("/matches/{matchID}/status", handler.GetMatchStatus)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/matches/nope/status", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
