package services

import (
	"fmt"
	"time"

	"github.com/Dosada05/knockout-live/models"
)

// KnockoutOutcome describes how a simulated knockout result was settled.
type KnockoutOutcome struct {
	Result         *models.Match
	ReplayRequired bool
	DecidedBy      models.MatchResolution
}

// KnockoutService decides, from a raw simulated score, whether a knockout
// match is decisive, needs a replay, or goes to penalties.
type KnockoutService struct {
	penalties *PenaltyService
}

func NewKnockoutService(penalties *PenaltyService) *KnockoutService {
	return &KnockoutService{penalties: penalties}
}

// Resolve applies the knockout rules to a simulated result, mutating result
// in place. A drawn final goes to penalties; a draw in any other knockout
// round is flagged for a replay and must not be advanced. Non-knockout
// matches and decisive results pass through untouched.
func (s *KnockoutService) Resolve(existing, result *models.Match) KnockoutOutcome {
	outcome := KnockoutOutcome{Result: result, DecidedBy: result.Resolution}
	if outcome.DecidedBy == "" {
		outcome.DecidedBy = models.ResolutionRegular
	}

	if existing == nil || !models.KnockoutRounds[existing.RoundStage] {
		result.RequiresReplay = false
		if result.Resolution == "" {
			result.Resolution = models.ResolutionRegular
		}
		carryForwardReplayMetadata(existing, result)
		return outcome
	}

	if !result.IsDraw() {
		result.RequiresReplay = false
		if result.Resolution != models.ResolutionPenalties {
			result.Resolution = models.ResolutionRegular
		}
		outcome.DecidedBy = result.Resolution
		carryForwardReplayMetadata(existing, result)
		return outcome
	}

	homeTeam := result.HomeTeam
	if homeTeam == "" {
		homeTeam = existing.HomeTeam
	}
	awayTeam := result.AwayTeam
	if awayTeam == "" {
		awayTeam = existing.AwayTeam
	}

	if existing.RoundStage == models.RoundStageFinal {
		series := s.penalties.GenerateSeries(homeTeam, awayTeam)

		result.PenaltyShootout = series
		result.Winner = series.Winner
		result.RequiresReplay = false
		result.Resolution = models.ResolutionPenalties

		// The full-time line, if present, gets the penalties teaser appended.
		for i := range result.Commentary {
			if result.Commentary[i].Type == "fulltime" {
				result.Commentary[i].Description += " The match heads to penalties!"
				break
			}
		}
		result.Commentary = append(result.Commentary, models.CommentaryEvent{
			Minute:    121,
			Timestamp: time.Now(),
			Type:      "penalties",
			Description: fmt.Sprintf("%s %d - %d %s on penalties. %s lift the trophy!",
				homeTeam, series.HomeTeamScore, series.AwayTeamScore, awayTeam, series.Winner),
		})

		outcome.DecidedBy = models.ResolutionPenalties
		return outcome
	}

	// Quarter, semi and third place replays: the draw stands, nobody advances.
	result.RequiresReplay = true
	result.Status = models.MatchStatusRequiresReplay
	result.Resolution = models.ResolutionReplayPending
	result.Winner = ""
	result.PenaltyShootout = nil

	result.ReplayCount = existing.ReplayCount + 1
	result.ReplayHistory = append(append([]models.ReplayRecord{}, existing.ReplayHistory...), models.ReplayRecord{
		HomeScore:  result.HomeScore,
		AwayScore:  result.AwayScore,
		RecordedAt: time.Now(),
	})

	result.Commentary = append(result.Commentary, models.CommentaryEvent{
		Minute:    90,
		Timestamp: time.Now(),
		Type:      "highlight",
		Description: fmt.Sprintf("Match ended %d-%d. Replay required to determine a winner.",
			result.HomeScore, result.AwayScore),
	})

	outcome.ReplayRequired = true
	outcome.DecidedBy = models.ResolutionReplayPending
	return outcome
}

func carryForwardReplayMetadata(existing, result *models.Match) {
	if existing == nil {
		return
	}
	if result.ReplayCount == 0 {
		result.ReplayCount = existing.ReplayCount
	}
	if result.ReplayHistory == nil {
		result.ReplayHistory = existing.ReplayHistory
	}
}
