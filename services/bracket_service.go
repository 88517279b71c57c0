package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
)

const (
	bracketTeamCount    = 8
	quarterFinalCount   = 4
	semiFinalCount      = 2
	bracketTotalMatches = 7
)

// Scheduling offsets from the tournament start date, in days.
var (
	quarterFinalOffsets = [quarterFinalCount]int{1, 2, 3, 4}
	semiFinalOffsets    = [semiFinalCount]int{7, 8}
	finalOffset         = 10
	thirdPlaceOffset    = finalOffset - 1
)

// BracketState is the full bracket snapshot served to clients.
type BracketState struct {
	Stage         models.TournamentStage        `json:"stage"`
	QuarterFinals []*models.Match               `json:"quarterFinals"`
	SemiFinals    []*models.Match               `json:"semiFinals"`
	Final         *models.Match                 `json:"final,omitempty"`
	ThirdPlace    *models.Match                 `json:"thirdPlaceMatch,omitempty"`
	State         *models.TournamentState       `json:"tournamentState"`
	Teams         map[string]models.TeamDetails `json:"teams,omitempty"`
}

// BracketService owns bracket construction, winner advancement and the stage
// machine. All bracket mutations are serialized through a single mutex so two
// concurrent feeder completions cannot interleave their slot writes.
type BracketService struct {
	mu sync.Mutex

	matches     repositories.MatchRepository
	teams       repositories.TeamRepository
	state       repositories.TournamentStateRepository
	broadcaster Broadcaster

	now   func() time.Time
	newID func(prefix string) string
}

func NewBracketService(
	matches repositories.MatchRepository,
	teams repositories.TeamRepository,
	state repositories.TournamentStateRepository,
	broadcaster Broadcaster,
) *BracketService {
	return &BracketService{
		matches:     matches,
		teams:       teams,
		state:       state,
		broadcaster: broadcaster,
		now:         time.Now,
		newID: func(prefix string) string {
			return fmt.Sprintf("%s_%d_%04d", prefix, time.Now().UnixMilli(), rand.Intn(10_000))
		},
	}
}

// InitializeBracket builds a fresh 8-team single-elimination bracket: four
// quarter-finals feeding two semi-finals feeding the final. Teams pair off in
// input order (1v2, 3v4, 5v6, 7v8). Any bracket from a previous run is
// deleted first. If any insert fails the already-created matches are removed
// and the previous state is left untouched.
func (s *BracketService) InitializeBracket(ctx context.Context, teamNames []string) (*BracketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(teamNames) != bracketTeamCount {
		return nil, ErrExactlyEightTeams
	}
	seen := make(map[string]bool, bracketTeamCount)
	for _, name := range teamNames {
		if name == "" || name == models.PlaceholderTeam || seen[name] {
			return nil, ErrExactlyEightTeams
		}
		seen[name] = true
	}

	registered, err := s.teams.ListByCountries(ctx, teamNames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketInit, err)
	}
	if len(registered) != bracketTeamCount {
		return nil, ErrTeamNotFound
	}

	if err := s.deleteExistingBracket(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketInit, err)
	}

	start := s.now()
	day := 24 * time.Hour

	final := &models.Match{
		ID:         s.newID("final"),
		HomeTeam:   models.PlaceholderTeam,
		AwayTeam:   models.PlaceholderTeam,
		Status:     models.MatchStatusUpcoming,
		Date:       start.Add(time.Duration(finalOffset) * day),
		Stage:      "Final",
		RoundStage: models.RoundStageFinal,
		MatchType:  models.MatchTypeSimulated,
	}

	semis := make([]*models.Match, semiFinalCount)
	for i := 0; i < semiFinalCount; i++ {
		semis[i] = &models.Match{
			ID:          s.newID(fmt.Sprintf("semi_%d", i+1)),
			HomeTeam:    models.PlaceholderTeam,
			AwayTeam:    models.PlaceholderTeam,
			Status:      models.MatchStatusUpcoming,
			Date:        start.Add(time.Duration(semiFinalOffsets[i]) * day),
			Stage:       "Semi-final",
			RoundStage:  models.RoundStageSemi,
			NextMatchID: final.ID,
			BracketSlot: i,
			MatchType:   models.MatchTypeSimulated,
		}
	}

	quarters := make([]*models.Match, quarterFinalCount)
	for i := 0; i < quarterFinalCount; i++ {
		quarters[i] = &models.Match{
			ID:          s.newID(fmt.Sprintf("quarter_%d", i+1)),
			HomeTeam:    teamNames[i*2],
			AwayTeam:    teamNames[i*2+1],
			Status:      models.MatchStatusScheduled,
			Date:        start.Add(time.Duration(quarterFinalOffsets[i]) * day),
			Stage:       "Quarter-final",
			RoundStage:  models.RoundStageQuarter,
			NextMatchID: semis[i/2].ID,
			BracketSlot: i,
			MatchType:   models.MatchTypeSimulated,
		}
	}

	created := make([]string, 0, bracketTotalMatches)
	all := append(append([]*models.Match{final}, semis...), quarters...)
	for _, match := range all {
		if err := s.matches.Create(ctx, nil, match); err != nil {
			if len(created) > 0 {
				if delErr := s.matches.DeleteByIDs(ctx, nil, created); delErr != nil {
					log.Printf("bracket: rollback of partially created bracket failed: %v", delErr)
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrBracketInit, err)
		}
		created = append(created, match.ID)
	}

	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketInit, err)
	}
	state.CurrentStage = models.StageQuarter
	state.StartDate = &start
	state.EndDate = nil
	state.QuarterFinals = matchIDs(quarters)
	state.SemiFinals = matchIDs(semis)
	state.Final = final.ID
	state.Winner = ""
	state.ChampionTeam = ""
	state.RunnerUp = ""
	state.ThirdPlace = ""
	state.ParticipatingTeams = append([]string{}, teamNames...)
	state.TotalMatches = bracketTotalMatches
	state.CompletedMatches = 0
	state.Metadata = models.StageMetadata{}
	if err := s.state.Save(ctx, nil, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketInit, err)
	}

	s.broadcaster.StageChange(models.StageRegistration, models.StageQuarter)
	s.broadcaster.BracketUpdate(models.StageQuarter, "Tournament bracket initialized")

	return &BracketState{
		Stage:         state.CurrentStage,
		QuarterFinals: quarters,
		SemiFinals:    semis,
		Final:         final,
		State:         state,
	}, nil
}

func (s *BracketService) deleteExistingBracket(ctx context.Context) error {
	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return err
	}
	stale := append(append([]string{}, state.QuarterFinals...), state.SemiFinals...)
	if state.Final != "" {
		stale = append(stale, state.Final)
	}
	thirdPlace, err := s.matches.ListByRoundStage(ctx, models.RoundStageThirdPlace)
	if err != nil {
		return err
	}
	stale = append(stale, matchIDs(thirdPlace)...)
	if len(stale) == 0 {
		return nil
	}
	return s.matches.DeleteByIDs(ctx, nil, stale)
}

// AdvanceWinner writes a completed match's winner into its successor slot.
// The slot side is pinned by the feeder's bracket position: even slots feed
// home, odd slots feed away. The write is conditional on the slot still
// holding the placeholder, so a duplicate or conflicting advancement surfaces
// as ErrSlotConflict instead of silently overwriting a team.
func (s *BracketService) AdvanceWinner(ctx context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match.Status != models.MatchStatusCompleted {
		return ErrMatchNotCompleted
	}
	if match.RequiresReplay || match.Resolution == models.ResolutionReplayPending {
		return ErrReplayPendingNoAdvance
	}
	if match.Winner == "" {
		return ErrMatchNotCompleted
	}
	if match.Winner != match.HomeTeam && match.Winner != match.AwayTeam {
		return ErrWinnerNotParticipant
	}

	if match.NextMatchID == "" {
		// Final and third place feed nowhere.
		return s.completeRoundLocked(ctx, match.RoundStage)
	}

	next, err := s.matches.GetByID(ctx, match.NextMatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrNextMatchNotFound
		}
		return err
	}
	if next.Status == models.MatchStatusCompleted {
		return ErrNextMatchCompleted
	}

	slot := repositories.SlotHome
	if match.BracketSlot%2 != 0 {
		slot = repositories.SlotAway
	}
	if err := s.matches.FillBracketSlot(ctx, next.ID, slot, match.Winner); err != nil {
		if errors.Is(err, repositories.ErrSlotTaken) {
			return ErrSlotConflict
		}
		return err
	}

	next, err = s.matches.GetByID(ctx, next.ID)
	if err != nil {
		return err
	}
	if !next.HasPlaceholder() && next.Status == models.MatchStatusUpcoming {
		if err := s.matches.UpdateStatus(ctx, next.ID, models.MatchStatusScheduled); err != nil {
			return err
		}
		next.Status = models.MatchStatusScheduled
	}

	s.broadcaster.BracketUpdate(stageForRound(match.RoundStage),
		fmt.Sprintf("%s advance to %s", match.Winner, next.Stage))

	return s.completeRoundLocked(ctx, match.RoundStage)
}

// AdvanceWinnerByID loads the match and advances the named winner. Used by
// the manual advancement endpoint: the caller declares who won, and the
// declared winner must be one of the participants.
func (s *BracketService) AdvanceWinnerByID(ctx context.Context, matchID, winnerID string) error {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if winnerID == "" || winnerID == models.PlaceholderTeam ||
		(winnerID != match.HomeTeam && winnerID != match.AwayTeam) {
		return ErrWinnerNotParticipant
	}
	match.Winner = winnerID
	return s.AdvanceWinner(ctx, match)
}

// completeRoundLocked moves the stage machine forward once every match of the
// given round is decided. Replayed draws keep the round open. Caller holds mu.
func (s *BracketService) completeRoundLocked(ctx context.Context, round models.RoundStage) error {
	if round != models.RoundStageQuarter && round != models.RoundStageSemi {
		return nil
	}

	matches, err := s.matches.ListByRoundStage(ctx, round)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted || m.Winner == "" {
			return nil
		}
	}

	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return err
	}

	oldStage := state.CurrentStage
	switch round {
	case models.RoundStageQuarter:
		if state.Metadata.QuarterFinalsCompleted {
			return nil
		}
		if oldStage != models.StageQuarter {
			return ErrStageTransitionInvalid
		}
		state.Metadata.QuarterFinalsCompleted = true
		state.CurrentStage = models.StageSemi
	case models.RoundStageSemi:
		if state.Metadata.SemiFinalsCompleted {
			return nil
		}
		if oldStage != models.StageSemi {
			return ErrStageTransitionInvalid
		}
		state.Metadata.SemiFinalsCompleted = true
		state.CurrentStage = models.StageFinal
	}

	if err := s.state.Save(ctx, nil, state); err != nil {
		return err
	}
	s.broadcaster.StageChange(oldStage, state.CurrentStage)
	return nil
}

// stageForRound maps a match round to the tournament stage it belongs to.
func stageForRound(round models.RoundStage) models.TournamentStage {
	switch round {
	case models.RoundStageQuarter:
		return models.StageQuarter
	case models.RoundStageSemi:
		return models.StageSemi
	case models.RoundStageFinal, models.RoundStageThirdPlace:
		return models.StageFinal
	default:
		return ""
	}
}

// CanSimulateMatch reports whether a bracket match may be simulated right
// now: both participants decided, the tournament on the matching stage, and
// the match not already settled.
func (s *BracketService) CanSimulateMatch(ctx context.Context, match *models.Match) error {
	if match.Status == models.MatchStatusCompleted {
		return ErrMatchAlreadyCompleted
	}
	if match.HasPlaceholder() {
		return fmt.Errorf("%w: participants not decided yet", ErrValidationFailed)
	}
	if match.RoundStage == "" {
		return nil
	}

	required := stageForRound(match.RoundStage)
	if required == "" {
		return ErrInvalidRoundStage
	}
	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if state.CurrentStage != required {
		return fmt.Errorf("%w: tournament is in the %s stage, match belongs to %s",
			ErrSimulationNotAllowed, state.CurrentStage, required)
	}
	return nil
}

// ProgressionMatch is the trimmed match view embedded in a progression
// report.
type ProgressionMatch struct {
	ID          string             `json:"id"`
	Stage       string             `json:"stage"`
	RoundStage  models.RoundStage  `json:"roundStage"`
	Status      models.MatchStatus `json:"status"`
	Winner      string             `json:"winner,omitempty"`
	NextMatchID string             `json:"nextMatchId,omitempty"`
}

// ProgressionReport lists every progression rule a match currently violates.
type ProgressionReport struct {
	Valid  bool             `json:"valid"`
	Errors []string         `json:"errors,omitempty"`
	Match  ProgressionMatch `json:"match"`
}

// ValidateProgression is the read-only rule report behind the validation
// endpoint. It checks the advancement invariants without mutating anything:
// a feeder must be completed with a winner, carry a recognized round stage,
// and point at a successor that actually exists. All violations are
// collected, not just the first one.
func (s *BracketService) ValidateProgression(ctx context.Context, matchID string) (*ProgressionReport, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	var violations []string
	if match.Status != models.MatchStatusCompleted && match.NextMatchID != "" {
		violations = append(violations, "match must be completed before advancing")
	}
	if match.Winner == "" && match.Status == models.MatchStatusCompleted {
		violations = append(violations, "match must have a winner to advance")
	}
	if match.RoundStage != "" && stageForRound(match.RoundStage) == "" {
		violations = append(violations, "invalid round stage")
	}
	if match.NextMatchID != "" {
		if _, err := s.matches.GetByID(ctx, match.NextMatchID); err != nil {
			if !errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, err
			}
			violations = append(violations, "next match reference is invalid")
		}
	}

	return &ProgressionReport{
		Valid:  len(violations) == 0,
		Errors: violations,
		Match: ProgressionMatch{
			ID:          match.ID,
			Stage:       match.Stage,
			RoundStage:  match.RoundStage,
			Status:      match.Status,
			Winner:      match.Winner,
			NextMatchID: match.NextMatchID,
		},
	}, nil
}

// CheckTournamentCompletion records champion, runner-up and third place on
// the tournament state once the deciding matches finish.
func (s *BracketService) CheckTournamentCompletion(ctx context.Context, match *models.Match) error {
	if match.Status != models.MatchStatusCompleted || match.Winner == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return err
	}

	switch match.RoundStage {
	case models.RoundStageFinal:
		if state.Metadata.FinalCompleted {
			return nil
		}
		oldStage := state.CurrentStage
		end := s.now()
		state.Winner = match.Winner
		state.ChampionTeam = match.Winner
		state.RunnerUp = match.Opponent(match.Winner)
		state.Metadata.FinalCompleted = true
		state.CurrentStage = models.StageCompleted
		state.EndDate = &end
		if err := s.state.Save(ctx, nil, state); err != nil {
			return err
		}
		s.broadcaster.StageChange(oldStage, models.StageCompleted)
		s.broadcaster.Champion(state.ChampionTeam, state.RunnerUp)
	case models.RoundStageThirdPlace:
		if state.ThirdPlace != "" {
			return nil
		}
		state.ThirdPlace = match.Winner
		if err := s.state.Save(ctx, nil, state); err != nil {
			return err
		}
		s.broadcaster.ThirdPlace(match.Winner)
	}
	return nil
}

// UpdateCompletedMatchesCount refreshes the denormalized progress counter
// from the matches table.
func (s *BracketService) UpdateCompletedMatchesCount(ctx context.Context) error {
	count, err := s.matches.CountCompletedBracketMatches(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if state.CompletedMatches == count {
		return nil
	}
	state.CompletedMatches = count
	return s.state.Save(ctx, nil, state)
}

// GetCurrentState returns the tournament state document as-is.
func (s *BracketService) GetCurrentState(ctx context.Context) (*models.TournamentState, error) {
	return s.state.GetCurrent(ctx)
}

// GetBracketState assembles the full bracket view. The four round queries run
// concurrently; team details are attached when includeTeams is set.
func (s *BracketService) GetBracketState(ctx context.Context, includeTeams bool) (*BracketState, error) {
	state, err := s.state.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	var (
		quarters, semis, finals, thirdPlace []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quarters, err = s.matches.ListByRoundStage(gctx, models.RoundStageQuarter)
		return err
	})
	g.Go(func() error {
		var err error
		semis, err = s.matches.ListByRoundStage(gctx, models.RoundStageSemi)
		return err
	})
	g.Go(func() error {
		var err error
		finals, err = s.matches.ListByRoundStage(gctx, models.RoundStageFinal)
		return err
	})
	g.Go(func() error {
		var err error
		thirdPlace, err = s.matches.ListByRoundStage(gctx, models.RoundStageThirdPlace)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bracket := &BracketState{
		Stage:         state.CurrentStage,
		QuarterFinals: quarters,
		SemiFinals:    semis,
		State:         state,
	}
	if len(finals) > 0 {
		bracket.Final = finals[0]
	}
	if len(thirdPlace) > 0 {
		bracket.ThirdPlace = thirdPlace[0]
	}

	if includeTeams && len(state.ParticipatingTeams) > 0 {
		teams, err := s.teams.ListByCountries(ctx, state.ParticipatingTeams)
		if err != nil {
			return nil, err
		}
		bracket.Teams = make(map[string]models.TeamDetails, len(teams))
		for _, t := range teams {
			bracket.Teams[t.Country] = models.TeamDetails{
				Country:    t.Country,
				Federation: t.Federation,
				Manager:    t.Manager,
				Rating:     t.Rating,
			}
		}
	}
	return bracket, nil
}

func matchIDs(matches []*models.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids
}
