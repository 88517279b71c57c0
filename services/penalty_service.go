package services

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/Dosada05/knockout-live/models"
)

const (
	// Conversion rate of a single penalty kick.
	penaltyScoreProbability = 0.75
	regulationPenaltyRounds = 5
)

// PenaltyService simulates sudden-death penalty shootouts. The random source
// is injected so outcomes are reproducible in tests.
type PenaltyService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPenaltyService(src rand.Source) *PenaltyService {
	return &PenaltyService{rng: rand.New(src)}
}

// GenerateSeries simulates a full shootout between two teams. Kicks alternate
// home then away for up to five rounds; after every kick the series stops
// early once a side's lead exceeds the rounds either side has left. A level
// series after five rounds continues in sudden-death pairs until a pair ends
// with differing scores. The returned series never ends tied.
func (s *PenaltyService) GenerateSeries(homeTeam, awayTeam string) *models.PenaltyShootout {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := &models.PenaltyShootout{
		HomeTeamPenalties: []models.PenaltyKick{},
		AwayTeamPenalties: []models.PenaltyKick{},
	}

	for round := 1; round <= regulationPenaltyRounds; round++ {
		homeKick := s.takeKick()
		series.HomeTeamPenalties = append(series.HomeTeamPenalties, homeKick)
		if homeKick.Scored {
			series.HomeTeamScore++
		}
		if isShootoutDecided(series.HomeTeamScore, series.AwayTeamScore, round) {
			break
		}

		awayKick := s.takeKick()
		series.AwayTeamPenalties = append(series.AwayTeamPenalties, awayKick)
		if awayKick.Scored {
			series.AwayTeamScore++
		}
		if isShootoutDecided(series.HomeTeamScore, series.AwayTeamScore, round) {
			break
		}
	}

	// Sudden death: one kick each per pair until the pair splits them.
	for series.HomeTeamScore == series.AwayTeamScore {
		homeKick := s.takeKick()
		awayKick := s.takeKick()

		series.HomeTeamPenalties = append(series.HomeTeamPenalties, homeKick)
		series.AwayTeamPenalties = append(series.AwayTeamPenalties, awayKick)

		if homeKick.Scored {
			series.HomeTeamScore++
		}
		if awayKick.Scored {
			series.AwayTeamScore++
		}
	}

	if series.HomeTeamScore > series.AwayTeamScore {
		series.Winner = homeTeam
	} else {
		series.Winner = awayTeam
	}
	return series
}

func (s *PenaltyService) takeKick() models.PenaltyKick {
	return models.PenaltyKick{
		PlayerName: fmt.Sprintf("Player %d", s.rng.Intn(11)+1),
		Scored:     s.rng.Float64() < penaltyScoreProbability,
	}
}

// isShootoutDecided reports whether a lead is insurmountable with the rounds
// remaining in regulation: lead > kicks left for both sides this phase.
func isShootoutDecided(homeScore, awayScore, round int) bool {
	remaining := regulationPenaltyRounds - round
	if homeScore > awayScore+remaining {
		return true
	}
	if awayScore > homeScore+remaining {
		return true
	}
	return false
}
