package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
)

func newKnockoutService(seed int64) *KnockoutService {
	return NewKnockoutService(NewPenaltyService(rand.NewSource(seed)))
}

func TestResolveDecisiveResultPassesThrough(t *testing.T) {
	svc := newKnockoutService(1)
	existing := &models.Match{ID: "m1", RoundStage: models.RoundStageQuarter, HomeTeam: "Brazil", AwayTeam: "Germany"}
	result := &models.Match{
		ID: "m1", HomeTeam: "Brazil", AwayTeam: "Germany",
		HomeScore: 2, AwayScore: 1, Winner: "Brazil",
		Status: models.MatchStatusCompleted,
	}

	outcome := svc.Resolve(existing, result)

	assert.False(t, outcome.ReplayRequired)
	assert.Equal(t, models.ResolutionRegular, outcome.DecidedBy)
	assert.Equal(t, "Brazil", outcome.Result.Winner)
	assert.Nil(t, outcome.Result.PenaltyShootout)
}

func TestResolveDrawnFinalGoesToPenalties(t *testing.T) {
	svc := newKnockoutService(7)
	existing := &models.Match{ID: "final", RoundStage: models.RoundStageFinal, HomeTeam: "Spain", AwayTeam: "Italy"}
	result := &models.Match{
		ID: "final", HomeTeam: "Spain", AwayTeam: "Italy",
		HomeScore: 1, AwayScore: 1,
		Status: models.MatchStatusCompleted,
		Commentary: []models.CommentaryEvent{
			{Minute: 90, Timestamp: time.Now(), Type: "fulltime", Description: "Full-time! Spain 1 - 1 Italy."},
		},
	}

	outcome := svc.Resolve(existing, result)

	require.NotNil(t, outcome.Result.PenaltyShootout)
	assert.False(t, outcome.ReplayRequired)
	assert.Equal(t, models.ResolutionPenalties, outcome.Result.Resolution)
	assert.Equal(t, outcome.Result.PenaltyShootout.Winner, outcome.Result.Winner)
	assert.Contains(t, []string{"Spain", "Italy"}, outcome.Result.Winner)

	// Full-time commentary gets the teaser, and a dedicated penalties event
	// is appended after regulation.
	assert.Contains(t, outcome.Result.Commentary[0].Description, "The match heads to penalties!")
	last := outcome.Result.Commentary[len(outcome.Result.Commentary)-1]
	assert.Equal(t, "penalties", last.Type)
	assert.Equal(t, 121, last.Minute)
}

func TestResolveDrawnQuarterRequiresReplay(t *testing.T) {
	svc := newKnockoutService(3)
	existing := &models.Match{
		ID: "q1", RoundStage: models.RoundStageQuarter,
		HomeTeam: "France", AwayTeam: "England",
		ReplayCount: 1,
		ReplayHistory: []models.ReplayRecord{
			{HomeScore: 0, AwayScore: 0, RecordedAt: time.Now().Add(-time.Hour)},
		},
	}
	result := &models.Match{
		ID: "q1", HomeTeam: "France", AwayTeam: "England",
		HomeScore: 2, AwayScore: 2, Winner: "France",
		Status: models.MatchStatusCompleted,
	}

	outcome := svc.Resolve(existing, result)

	assert.True(t, outcome.ReplayRequired)
	assert.Equal(t, models.MatchStatusRequiresReplay, outcome.Result.Status)
	assert.Equal(t, models.ResolutionReplayPending, outcome.Result.Resolution)
	assert.Empty(t, outcome.Result.Winner, "a drawn quarter-final must not produce a winner")
	assert.Nil(t, outcome.Result.PenaltyShootout)
	assert.Equal(t, 2, outcome.Result.ReplayCount)
	require.Len(t, outcome.Result.ReplayHistory, 2)
	assert.Equal(t, 2, outcome.Result.ReplayHistory[1].HomeScore)
}

func TestResolveDrawnThirdPlaceRequiresReplay(t *testing.T) {
	svc := newKnockoutService(5)
	existing := &models.Match{ID: "tp", RoundStage: models.RoundStageThirdPlace, HomeTeam: "Croatia", AwayTeam: "Morocco"}
	result := &models.Match{
		ID: "tp", HomeTeam: "Croatia", AwayTeam: "Morocco",
		HomeScore: 0, AwayScore: 0,
		Status: models.MatchStatusCompleted,
	}

	outcome := svc.Resolve(existing, result)

	assert.True(t, outcome.ReplayRequired)
	assert.Equal(t, 1, outcome.Result.ReplayCount)
}

func TestResolveNonKnockoutDrawStands(t *testing.T) {
	svc := newKnockoutService(9)
	result := &models.Match{
		ID: "friendly", HomeTeam: "USA", AwayTeam: "Mexico",
		HomeScore: 1, AwayScore: 1,
		Status: models.MatchStatusCompleted,
	}

	outcome := svc.Resolve(nil, result)

	assert.False(t, outcome.ReplayRequired)
	assert.Equal(t, models.ResolutionRegular, outcome.Result.Resolution)
	assert.Empty(t, outcome.Result.Winner)
	assert.Nil(t, outcome.Result.PenaltyShootout)
}
