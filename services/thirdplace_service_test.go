package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
)

func thirdPlaceFixture(t *testing.T) (*ThirdPlaceService, *fakeMatchRepo, *fakeStateRepo, *recordingBroadcaster) {
	t.Helper()
	matchRepo := newFakeMatchRepo()
	stateRepo := newFakeStateRepo()
	broadcaster := &recordingBroadcaster{}
	svc := NewThirdPlaceService(matchRepo, stateRepo, broadcaster)
	svc.newID = func(prefix string) string { return prefix + "_01" }
	return svc, matchRepo, stateRepo, broadcaster
}

func seedSemi(t *testing.T, repo *fakeMatchRepo, slot int, id, home, away, winner string, status models.MatchStatus) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), nil, &models.Match{
		ID: id, HomeTeam: home, AwayTeam: away,
		Winner: winner, Status: status,
		RoundStage:  models.RoundStageSemi,
		BracketSlot: slot,
	}))
}

func TestCreateThirdPlaceMatchFromSemiLosers(t *testing.T) {
	svc, matchRepo, stateRepo, broadcaster := thirdPlaceFixture(t)
	ctx := context.Background()

	seedSemi(t, matchRepo, 0, "semi_1", "Brazil", "Italy", "Brazil", models.MatchStatusCompleted)
	seedSemi(t, matchRepo, 1, "semi_2", "France", "Argentina", "Argentina", models.MatchStatusCompleted)

	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	state, err := stateRepo.GetCurrent(ctx)
	require.NoError(t, err)
	state.StartDate = &start
	require.NoError(t, stateRepo.Save(ctx, nil, state))

	match, err := svc.CreateThirdPlaceMatch(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Italy", match.HomeTeam)
	assert.Equal(t, "France", match.AwayTeam)
	assert.True(t, match.IsThirdPlace)
	assert.Equal(t, models.RoundStageThirdPlace, match.RoundStage)
	assert.Empty(t, match.NextMatchID)
	// One day before the final, which sits on day ten.
	assert.Equal(t, 10, match.Date.Day())

	require.Len(t, broadcaster.callsOf("match_created"), 1)

	// Creating it again is rejected.
	_, err = svc.CreateThirdPlaceMatch(ctx)
	assert.ErrorIs(t, err, ErrThirdPlaceExists)
}

func TestCreateThirdPlaceMatchRequiresFinishedSemis(t *testing.T) {
	svc, matchRepo, _, _ := thirdPlaceFixture(t)
	ctx := context.Background()

	seedSemi(t, matchRepo, 0, "semi_1", "Brazil", "Italy", "Brazil", models.MatchStatusCompleted)
	seedSemi(t, matchRepo, 1, "semi_2", "France", "Argentina", "", models.MatchStatusLive)

	_, err := svc.CreateThirdPlaceMatch(ctx)
	assert.ErrorIs(t, err, ErrThirdPlaceLosersRequired)
}
