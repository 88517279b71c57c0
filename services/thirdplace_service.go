package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
)

// ThirdPlaceService creates the consolation match between the two semi-final
// losers, scheduled the day before the final.
type ThirdPlaceService struct {
	matches     repositories.MatchRepository
	state       repositories.TournamentStateRepository
	broadcaster Broadcaster

	newID func(prefix string) string
}

func NewThirdPlaceService(
	matches repositories.MatchRepository,
	state repositories.TournamentStateRepository,
	broadcaster Broadcaster,
) *ThirdPlaceService {
	return &ThirdPlaceService{
		matches:     matches,
		state:       state,
		broadcaster: broadcaster,
		newID: func(prefix string) string {
			return fmt.Sprintf("%s_%d_%04d", prefix, time.Now().UnixMilli(), rand.Intn(10_000))
		},
	}
}

// CreateThirdPlaceMatch builds the third-place match once both semi-finals
// have produced a winner. Creating it twice is rejected.
func (s *ThirdPlaceService) CreateThirdPlaceMatch(ctx context.Context) (*models.Match, error) {
	existing, err := s.matches.ListByRoundStage(ctx, models.RoundStageThirdPlace)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrThirdPlaceExists
	}

	semis, err := s.matches.ListByRoundStage(ctx, models.RoundStageSemi)
	if err != nil {
		return nil, err
	}
	if len(semis) != 2 {
		return nil, ErrThirdPlaceLosersRequired
	}

	losers := make([]string, 0, 2)
	for _, semi := range semis {
		if semi.Status != models.MatchStatusCompleted || semi.Winner == "" {
			return nil, ErrThirdPlaceLosersRequired
		}
		loser := semi.Opponent(semi.Winner)
		if loser == "" || loser == models.PlaceholderTeam {
			return nil, ErrThirdPlaceLosersRequired
		}
		losers = append(losers, loser)
	}

	date := time.Now().Add(24 * time.Hour)
	state, err := s.state.GetCurrent(ctx)
	if err == nil && state.StartDate != nil {
		date = state.StartDate.Add(time.Duration(thirdPlaceOffset) * 24 * time.Hour)
	}

	match := &models.Match{
		ID:           s.newID("third_place"),
		HomeTeam:     losers[0],
		AwayTeam:     losers[1],
		IsThirdPlace: true,
		Status:       models.MatchStatusScheduled,
		Date:         date,
		Stage:        "Third place play-off",
		RoundStage:   models.RoundStageThirdPlace,
		MatchType:    models.MatchTypeSimulated,
	}
	if err := s.matches.Create(ctx, nil, match); err != nil {
		return nil, err
	}

	s.broadcaster.MatchCreated(match, "third_place")
	s.broadcaster.BracketUpdate(models.StageFinal,
		fmt.Sprintf("Third place play-off scheduled: %s vs %s", losers[0], losers[1]))
	return match, nil
}
