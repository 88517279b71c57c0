package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
)

// Pacing of the live simulation loop.
const (
	kickoffDelay    = 2 * time.Second
	goalDelay       = 3 * time.Second
	attackDelay     = 1 * time.Second
	possessionDelay = 800 * time.Millisecond
	idleDelay       = 500 * time.Millisecond
	halftimeDelay   = 3 * time.Second
	fulltimeDelay   = 2 * time.Second
)

// BracketProgression is the slice of the bracket service the simulator needs:
// eligibility checks before a run and advancement bookkeeping after one.
type BracketProgression interface {
	CanSimulateMatch(ctx context.Context, match *models.Match) error
	AdvanceWinner(ctx context.Context, match *models.Match) error
	CheckTournamentCompletion(ctx context.Context, match *models.Match) error
	UpdateCompletedMatchesCount(ctx context.Context) error
}

// MatchArchiver uploads a finished match report to object storage.
type MatchArchiver interface {
	ArchiveMatchReport(ctx context.Context, match *models.Match) error
}

// SimulationService generates match results and drives live-paced runs.
// Completion side effects (advancement, counters, archiving) are best effort:
// a failure there is logged, never surfaced, because the result itself is
// already persisted.
type SimulationService struct {
	matches     repositories.MatchRepository
	teams       repositories.TeamRepository
	knockout    *KnockoutService
	bracket     BracketProgression
	broadcaster Broadcaster
	archiver    MatchArchiver

	mu   sync.Mutex
	live map[string]struct{}

	newRand func() *rand.Rand
	sleep   func(time.Duration)
}

func NewSimulationService(
	matches repositories.MatchRepository,
	teams repositories.TeamRepository,
	knockout *KnockoutService,
	bracket BracketProgression,
	broadcaster Broadcaster,
	archiver MatchArchiver,
) *SimulationService {
	return &SimulationService{
		matches:     matches,
		teams:       teams,
		knockout:    knockout,
		bracket:     bracket,
		broadcaster: broadcaster,
		archiver:    archiver,
		live:        make(map[string]struct{}),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sleep: time.Sleep,
	}
}

// SimulateFriendly generates and stores a standalone uniform-engine match
// between two named teams. It is not part of any bracket.
func (s *SimulationService) SimulateFriendly(ctx context.Context, homeTeam, awayTeam string) (*models.Match, error) {
	match := simulateUniformMatch(s.newRand(), homeTeam, awayTeam, "Friendly")
	match.CreatedAt = time.Now()

	outcome := s.knockout.Resolve(nil, match)
	if err := s.matches.Create(ctx, nil, outcome.Result); err != nil {
		return nil, err
	}
	s.broadcaster.MatchCreated(outcome.Result, "simulated")
	return outcome.Result, nil
}

// SimulateMatch runs the uniform engine against an existing match and records
// the outcome, including draw resolution and bracket advancement.
func (s *SimulationService) SimulateMatch(ctx context.Context, matchID string) (*models.Match, error) {
	existing, err := s.prepare(ctx, matchID)
	if err != nil {
		return nil, err
	}

	result := simulateUniformMatch(s.newRand(), existing.HomeTeam, existing.AwayTeam, existing.Stage)
	adoptIdentity(result, existing)
	return s.finish(ctx, existing, result)
}

// PlayMatch runs the rating-weighted engine against an existing match. Both
// squads must be registered; the engine never produces a draw.
func (s *SimulationService) PlayMatch(ctx context.Context, matchID string) (*models.Match, error) {
	existing, err := s.prepare(ctx, matchID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teams.ListByCountries(ctx, []string{existing.HomeTeam, existing.AwayTeam})
	if err != nil {
		return nil, err
	}
	byCountry := make(map[string]*models.Team, len(teams))
	for _, t := range teams {
		byCountry[t.Country] = t
	}
	homeTeamData, awayTeamData := byCountry[existing.HomeTeam], byCountry[existing.AwayTeam]
	if homeTeamData == nil || awayTeamData == nil {
		return nil, ErrTeamNotFound
	}

	result := simulateRatingsMatch(s.newRand(), homeTeamData, awayTeamData, existing.Stage)
	adoptIdentity(result, existing)
	return s.finish(ctx, existing, result)
}

// StartLiveMatch launches a minute-by-minute paced simulation in the
// background. Only one live run per match may exist at a time.
func (s *SimulationService) StartLiveMatch(ctx context.Context, matchID string) error {
	existing, err := s.prepare(ctx, matchID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, running := s.live[matchID]; running {
		s.mu.Unlock()
		return ErrSimulationInProgress
	}
	s.live[matchID] = struct{}{}
	s.mu.Unlock()

	if err := s.matches.UpdateStatus(ctx, matchID, models.MatchStatusLive); err != nil {
		s.release(matchID)
		return err
	}
	s.broadcaster.MatchStart(matchID, existing.HomeTeam, existing.AwayTeam, existing.Stage)

	go s.runLive(existing)
	return nil
}

// IsLive reports whether a paced simulation is currently running for matchID.
func (s *SimulationService) IsLive(matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.live[matchID]
	return running
}

func (s *SimulationService) release(matchID string) {
	s.mu.Lock()
	delete(s.live, matchID)
	s.mu.Unlock()
}

// prepare loads the match and rejects runs the bracket rules forbid.
func (s *SimulationService) prepare(ctx context.Context, matchID string) (*models.Match, error) {
	existing, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyCompleted
	}
	if s.bracket != nil && existing.RoundStage != "" {
		if err := s.bracket.CanSimulateMatch(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// runLive replays the uniform engine minute by minute with broadcast pacing.
// The generated events are identical in shape to the instant engine's; only
// the delivery differs. Runs detached from the request context.
func (s *SimulationService) runLive(existing *models.Match) {
	defer s.release(existing.ID)
	ctx := context.Background()

	rng := s.newRand()
	match := &models.Match{
		ID:        existing.ID,
		HomeTeam:  existing.HomeTeam,
		AwayTeam:  existing.AwayTeam,
		Status:    models.MatchStatusLive,
		Date:      existing.Date,
		Stage:     existing.Stage,
		MatchType: models.MatchTypeSimulated,
	}
	adoptIdentity(match, existing)
	match.Status = models.MatchStatusLive

	emit := func(event models.CommentaryEvent) {
		match.Commentary = append(match.Commentary, event)
		s.broadcaster.MatchCommentary(match.ID, event)
	}

	emit(models.CommentaryEvent{
		Minute:      0,
		Timestamp:   time.Now(),
		Type:        "kickoff",
		Description: fmt.Sprintf(pickTemplate(rng, "kickoff"), match.HomeTeam, match.AwayTeam),
	})
	s.sleep(kickoffDelay)

	for minute := 1; minute <= 90; minute++ {
		draw := rng.Float64()
		switch {
		case draw < goalProbability:
			isHomeGoal := rng.Float64() < 0.5
			scoringTeam := match.AwayTeam
			if isHomeGoal {
				scoringTeam = match.HomeTeam
				match.HomeScore++
			} else {
				match.AwayScore++
			}
			playerName := randomPlayer(rng)
			scorer := models.GoalScorer{
				PlayerName: playerName,
				Minute:     minute,
				Type:       "normal",
				Team:       scoringTeam,
			}
			match.GoalScorers = append(match.GoalScorers, scorer)
			emit(models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "goal",
				Team:        scoringTeam,
				PlayerName:  playerName,
				Description: fmt.Sprintf("GOAL! %s scores for %s in the %d minute!", playerName, scoringTeam, minute),
			})
			s.broadcaster.MatchGoal(match.ID, scorer, match.HomeScore, match.AwayScore)
			s.sleep(goalDelay)
		case draw < attackProbability:
			team := pickSide(rng, match.HomeTeam, match.AwayTeam)
			emit(models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "attack",
				Team:        team,
				Description: fmt.Sprintf(pickTemplate(rng, "attack"), team),
			})
			s.sleep(attackDelay)
		case draw < possessionProbability:
			team := pickSide(rng, match.HomeTeam, match.AwayTeam)
			emit(models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "possession",
				Team:        team,
				Description: fmt.Sprintf(pickTemplate(rng, "possession"), team),
			})
			s.sleep(possessionDelay)
		default:
			s.sleep(idleDelay)
		}

		if minute == 45 {
			emit(models.CommentaryEvent{
				Minute:      45,
				Timestamp:   time.Now(),
				Type:        "halftime",
				Description: fmt.Sprintf("Half-time! %s %d - %d %s.", match.HomeTeam, match.HomeScore, match.AwayScore, match.AwayTeam),
			})
			s.broadcaster.MatchScore(match.ID, match.HomeScore, match.AwayScore)
			s.sleep(halftimeDelay)
		}
	}

	match.Winner = decideWinner(match)
	match.Status = models.MatchStatusCompleted
	emit(models.CommentaryEvent{
		Minute:      90,
		Timestamp:   time.Now(),
		Type:        "fulltime",
		Description: fulltimeDescription(match),
	})
	match.Statistics = generateMatchStatistics(rng, match.HomeScore, match.AwayScore)
	s.sleep(fulltimeDelay)

	if _, err := s.finish(ctx, existing, match); err != nil {
		log.Printf("live simulation: failed to record match %s: %v", match.ID, err)
		s.broadcaster.MatchError(match.ID, err)
	}
}

// finish settles the raw score through the knockout rules, persists the
// result, and fans out the completion side effects. The persisted write is
// the only fallible step that aborts; everything after it is logged only.
func (s *SimulationService) finish(ctx context.Context, existing, result *models.Match) (*models.Match, error) {
	outcome := s.knockout.Resolve(existing, result)
	final := outcome.Result

	if err := s.matches.UpdateResult(ctx, final); err != nil {
		return nil, err
	}

	s.broadcaster.MatchEnd(final)
	if final.PenaltyShootout != nil {
		s.broadcaster.MatchPenalties(final.ID, final.PenaltyShootout)
	}

	if s.bracket != nil && final.RoundStage != "" {
		if err := s.bracket.UpdateCompletedMatchesCount(ctx); err != nil {
			log.Printf("simulation: failed to refresh completed match count after %s: %v", final.ID, err)
		}
		if !outcome.ReplayRequired && final.Winner != "" {
			if err := s.bracket.AdvanceWinner(ctx, final); err != nil {
				log.Printf("simulation: failed to advance winner of match %s: %v", final.ID, err)
			}
			if err := s.bracket.CheckTournamentCompletion(ctx, final); err != nil {
				log.Printf("simulation: failed to check tournament completion after %s: %v", final.ID, err)
			}
		}
	}

	if s.archiver != nil && final.Status == models.MatchStatusCompleted {
		if err := s.archiver.ArchiveMatchReport(ctx, final); err != nil {
			log.Printf("simulation: failed to archive report for match %s: %v", final.ID, err)
		}
	}
	return final, nil
}

// adoptIdentity copies the stored match's identity and bracket wiring onto a
// freshly generated result so UpdateResult targets the right row.
func adoptIdentity(result, existing *models.Match) {
	result.ID = existing.ID
	result.Date = existing.Date
	result.Stage = existing.Stage
	result.RoundStage = existing.RoundStage
	result.NextMatchID = existing.NextMatchID
	result.BracketSlot = existing.BracketSlot
	result.IsThirdPlace = existing.IsThirdPlace
	result.CreatedAt = existing.CreatedAt
}
