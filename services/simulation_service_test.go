package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
)

type simFixture struct {
	svc         *SimulationService
	matchRepo   *fakeMatchRepo
	stateRepo   *fakeStateRepo
	bracket     *BracketService
	broadcaster *recordingBroadcaster
}

func newSimFixture(t *testing.T, seed int64) *simFixture {
	t.Helper()
	matchRepo := newFakeMatchRepo()
	stateRepo := newFakeStateRepo()
	broadcaster := &recordingBroadcaster{}

	squads := make([]*models.Team, 0, len(bracketTeams))
	for _, name := range bracketTeams {
		squads = append(squads, testSquad(name, 80))
	}
	teamRepo := newFakeTeamRepo(squads...)

	bracket := NewBracketService(matchRepo, teamRepo, stateRepo, broadcaster)
	counter := 0
	bracket.newID = func(prefix string) string {
		counter++
		return fmt.Sprintf("%s_%02d", prefix, counter)
	}

	knockout := NewKnockoutService(NewPenaltyService(rand.NewSource(seed)))
	svc := NewSimulationService(matchRepo, teamRepo, knockout, bracket, broadcaster, nil)
	svc.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	svc.sleep = func(time.Duration) {}

	return &simFixture{svc: svc, matchRepo: matchRepo, stateRepo: stateRepo, bracket: bracket, broadcaster: broadcaster}
}

func (f *simFixture) initBracket(t *testing.T) *BracketState {
	t.Helper()
	bracket, err := f.bracket.InitializeBracket(context.Background(), bracketTeams)
	require.NoError(t, err)
	return bracket
}

func TestSimulateFriendlyPersistsAndBroadcasts(t *testing.T) {
	f := newSimFixture(t, 17)

	match, err := f.svc.SimulateFriendly(context.Background(), "USA", "Mexico")
	require.NoError(t, err)

	stored, err := f.matchRepo.GetByID(context.Background(), match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, stored.Status)
	assert.Empty(t, stored.RoundStage)

	require.Len(t, f.broadcaster.callsOf("match_created"), 1)
}

func TestSimulateMatchAdvancesBracketWinner(t *testing.T) {
	f := newSimFixture(t, 17)
	bracket := f.initBracket(t)
	ctx := context.Background()

	match, err := f.svc.SimulateMatch(ctx, bracket.QuarterFinals[0].ID)
	require.NoError(t, err)

	if match.Winner == "" {
		// A drawn quarter is parked for a replay and nobody advances.
		assert.Equal(t, models.MatchStatusRequiresReplay, match.Status)
		semi, err := f.matchRepo.GetByID(ctx, bracket.SemiFinals[0].ID)
		require.NoError(t, err)
		assert.True(t, semi.HasPlaceholder())
		return
	}

	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	semi, err := f.matchRepo.GetByID(ctx, bracket.SemiFinals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, match.Winner, semi.HomeTeam)

	state, err := f.stateRepo.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CompletedMatches)
}

func TestSimulateMatchRefusesWrongStage(t *testing.T) {
	f := newSimFixture(t, 3)
	bracket := f.initBracket(t)

	_, err := f.svc.SimulateMatch(context.Background(), bracket.SemiFinals[0].ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSimulateMatchRefusesCompletedMatch(t *testing.T) {
	f := newSimFixture(t, 3)
	bracket := f.initBracket(t)

	completeMatch(t, f.matchRepo, bracket.QuarterFinals[0].ID, "Brazil")
	_, err := f.svc.SimulateMatch(context.Background(), bracket.QuarterFinals[0].ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
}

func TestPlayMatchUsesRegisteredSquads(t *testing.T) {
	f := newSimFixture(t, 8)
	bracket := f.initBracket(t)

	match, err := f.svc.PlayMatch(context.Background(), bracket.QuarterFinals[0].ID)
	require.NoError(t, err)

	// The rating engine cannot draw, so the result always resolves.
	assert.NotEmpty(t, match.Winner)
	assert.NotEmpty(t, match.PlayerStats)
	assert.Equal(t, models.ResolutionRegular, match.Resolution)
}

func TestPlayMatchFailsWithoutSquad(t *testing.T) {
	f := newSimFixture(t, 8)
	require.NoError(t, f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: "exhib", HomeTeam: "Narnia", AwayTeam: "Mexico", Status: models.MatchStatusScheduled,
	}))

	_, err := f.svc.PlayMatch(context.Background(), "exhib")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestStartLiveMatchRunsToCompletion(t *testing.T) {
	f := newSimFixture(t, 23)
	bracket := f.initBracket(t)
	ctx := context.Background()

	matchID := bracket.QuarterFinals[0].ID
	require.NoError(t, f.svc.StartLiveMatch(ctx, matchID))

	// The runner is detached; with sleeps stubbed out it finishes quickly.
	require.Eventually(t, func() bool {
		return !f.svc.IsLive(matchID)
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := f.matchRepo.GetByID(ctx, matchID)
	require.NoError(t, err)
	assert.Contains(t, []models.MatchStatus{models.MatchStatusCompleted, models.MatchStatusRequiresReplay}, stored.Status)
	assert.NotEmpty(t, stored.Commentary)

	require.Len(t, f.broadcaster.callsOf("match_start"), 1)
	require.Len(t, f.broadcaster.callsOf("match_end"), 1)
	assert.NotEmpty(t, f.broadcaster.callsOf("commentary"))
}

func TestStartLiveMatchRejectsSecondRun(t *testing.T) {
	f := newSimFixture(t, 23)
	bracket := f.initBracket(t)
	ctx := context.Background()

	// Hold the runner open on its first sleep so the second start overlaps.
	release := make(chan struct{})
	var once sync.Once
	f.svc.sleep = func(time.Duration) {
		once.Do(func() { <-release })
	}

	matchID := bracket.QuarterFinals[0].ID
	require.NoError(t, f.svc.StartLiveMatch(ctx, matchID))
	assert.ErrorIs(t, f.svc.StartLiveMatch(ctx, matchID), ErrSimulationInProgress)

	close(release)
	require.Eventually(t, func() bool {
		return !f.svc.IsLive(matchID)
	}, 2*time.Second, 10*time.Millisecond)
}
