package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/Dosada05/knockout-live/models"
)

// Per-minute event probabilities for the uniform engine.
const (
	goalProbability       = 0.05
	attackProbability     = 0.15 // cumulative threshold after goal
	possessionProbability = 0.30 // cumulative threshold after attack
)

// Rating-weighted engine constants: one rating point shifts the home win
// probability by 2%; a losing side concedes goals 40% of the time.
const (
	ratingWinShift       = 0.02
	loserScoresChance    = 0.4
	attackerRatingFloor  = 70
	startingElevenLength = 11
)

var playerNamePool = []string{
	"V. Osimhen", "S. Mané", "M. Salah", "A. Hakimi", "W. Ndidi",
	"I. Perisić", "T. Partey", "Y. En-Nesyri", "K. Mbappé", "E. Haaland",
	"K. Benzema", "R. Mahrez", "N. Kanté", "S. Agüero", "L. Messi",
	"J. Kimmich", "T. Kroos", "S. Gnabry", "H. Kane", "P. Aubameyang",
}

var commentaryTemplates = map[string][]string{
	"kickoff": {
		"The match is underway! %[1]s kicks off against %[2]s.",
		"And we're off! %[1]s vs %[2]s has begun.",
		"Kickoff! The action starts now between %[1]s and %[2]s.",
	},
	"possession": {
		"%s controls the ball...",
		"%s is dominating possession.",
		"%s builds from the back.",
	},
	"attack": {
		"%s launches an attack!",
		"%s breaks forward with pace!",
		"%s creates a chance!",
	},
}

func pickTemplate(rng *rand.Rand, kind string) string {
	templates := commentaryTemplates[kind]
	return templates[rng.Intn(len(templates))]
}

func randomPlayer(rng *rand.Rand) string {
	return playerNamePool[rng.Intn(len(playerNamePool))]
}

func generateMatchID(rng *rand.Rand) string {
	return fmt.Sprintf("match_%d_%06d", time.Now().UnixMilli(), rng.Intn(1_000_000))
}

// simulateUniformMatch runs the quick minute-by-minute engine: for each of
// the 90 minutes a single uniform draw decides between goal, attack
// narrative, possession narrative or nothing.
func simulateUniformMatch(rng *rand.Rand, homeTeam, awayTeam, stage string) *models.Match {
	now := time.Now()
	match := &models.Match{
		ID:        generateMatchID(rng),
		HomeTeam:  homeTeam,
		AwayTeam:  awayTeam,
		Status:    models.MatchStatusCompleted,
		Date:      now,
		Stage:     stage,
		MatchType: models.MatchTypeSimulated,
	}

	match.Commentary = append(match.Commentary, models.CommentaryEvent{
		Minute:      0,
		Timestamp:   now,
		Type:        "kickoff",
		Description: fmt.Sprintf(pickTemplate(rng, "kickoff"), homeTeam, awayTeam),
	})

	for minute := 1; minute <= 90; minute++ {
		draw := rng.Float64()
		switch {
		case draw < goalProbability:
			isHomeGoal := rng.Float64() < 0.5
			scoringTeam := awayTeam
			if isHomeGoal {
				scoringTeam = homeTeam
				match.HomeScore++
			} else {
				match.AwayScore++
			}
			playerName := randomPlayer(rng)

			match.Commentary = append(match.Commentary, models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "goal",
				Team:        scoringTeam,
				PlayerName:  playerName,
				Description: fmt.Sprintf("GOAL! %s scores for %s in the %d minute!", playerName, scoringTeam, minute),
			})
			match.GoalScorers = append(match.GoalScorers, models.GoalScorer{
				PlayerName: playerName,
				Minute:     minute,
				Type:       "normal",
				Team:       scoringTeam,
			})
		case draw < attackProbability:
			team := pickSide(rng, homeTeam, awayTeam)
			match.Commentary = append(match.Commentary, models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "attack",
				Team:        team,
				Description: fmt.Sprintf(pickTemplate(rng, "attack"), team),
			})
		case draw < possessionProbability:
			team := pickSide(rng, homeTeam, awayTeam)
			match.Commentary = append(match.Commentary, models.CommentaryEvent{
				Minute:      minute,
				Timestamp:   time.Now(),
				Type:        "possession",
				Team:        team,
				Description: fmt.Sprintf(pickTemplate(rng, "possession"), team),
			})
		}

		if minute == 45 {
			match.Commentary = append(match.Commentary, models.CommentaryEvent{
				Minute:      45,
				Timestamp:   time.Now(),
				Type:        "halftime",
				Description: fmt.Sprintf("Half-time! %s %d - %d %s.", homeTeam, match.HomeScore, match.AwayScore, awayTeam),
			})
		}
	}

	match.Winner = decideWinner(match)
	match.Commentary = append(match.Commentary, models.CommentaryEvent{
		Minute:      90,
		Timestamp:   time.Now(),
		Type:        "fulltime",
		Description: fulltimeDescription(match),
	})

	match.Statistics = generateMatchStatistics(rng, match.HomeScore, match.AwayScore)
	return match
}

// simulateRatingsMatch runs the rating-weighted engine over two full squads.
// The winner is drawn from the rating differential, so a draw is impossible
// by construction; the losing score is always strictly lower.
func simulateRatingsMatch(rng *rand.Rand, homeTeamData, awayTeamData *models.Team, stage string) *models.Match {
	homeRating := homeTeamData.Rating
	if homeRating == 0 {
		homeRating = 75
	}
	awayRating := awayTeamData.Rating
	if awayRating == 0 {
		awayRating = 75
	}

	homeWinProb := 0.5 + float64(homeRating-awayRating)*ratingWinShift

	var homeScore, awayScore int
	if rng.Float64() < homeWinProb {
		homeScore = 1 + rng.Intn(3)
		if rng.Float64() < loserScoresChance {
			awayScore = rng.Intn(homeScore)
		}
	} else {
		awayScore = 1 + rng.Intn(3)
		if rng.Float64() < loserScoresChance {
			homeScore = rng.Intn(awayScore)
		}
	}

	now := time.Now()
	match := &models.Match{
		ID:        generateMatchID(rng),
		HomeTeam:  homeTeamData.Country,
		AwayTeam:  awayTeamData.Country,
		HomeScore: homeScore,
		AwayScore: awayScore,
		Status:    models.MatchStatusCompleted,
		Date:      now,
		Stage:     stage,
		MatchType: models.MatchTypeSimulated,
	}

	for i := 0; i < homeScore; i++ {
		match.GoalScorers = append(match.GoalScorers, models.GoalScorer{
			PlayerName: pickScorer(rng, homeTeamData),
			Minute:     1 + rng.Intn(90),
			Type:       "normal",
			Team:       homeTeamData.Country,
		})
	}
	for i := 0; i < awayScore; i++ {
		match.GoalScorers = append(match.GoalScorers, models.GoalScorer{
			PlayerName: pickScorer(rng, awayTeamData),
			Minute:     1 + rng.Intn(90),
			Type:       "normal",
			Team:       awayTeamData.Country,
		})
	}
	sort.SliceStable(match.GoalScorers, func(i, j int) bool {
		return match.GoalScorers[i].Minute < match.GoalScorers[j].Minute
	})

	match.Statistics = generateMatchStatistics(rng, homeScore, awayScore)

	match.Commentary = append(match.Commentary, models.CommentaryEvent{
		Minute:      0,
		Timestamp:   now,
		Type:        "kickoff",
		Description: fmt.Sprintf("The match is underway! %s kicks off against %s.", match.HomeTeam, match.AwayTeam),
	})
	for _, goal := range match.GoalScorers {
		match.Commentary = append(match.Commentary, models.CommentaryEvent{
			Minute:      goal.Minute,
			Timestamp:   time.Now(),
			Type:        "goal",
			Team:        goal.Team,
			PlayerName:  goal.PlayerName,
			Description: fmt.Sprintf("GOAL! %s scores for %s in the %d minute!", goal.PlayerName, goal.Team, goal.Minute),
		})
	}
	match.Commentary = append(match.Commentary, models.CommentaryEvent{
		Minute:      45,
		Timestamp:   time.Now(),
		Type:        "halftime",
		Description: fmt.Sprintf("Half-time! %s %d - %d %s.", match.HomeTeam, homeScore, awayScore, match.AwayTeam),
	})

	match.Winner = decideWinner(match)
	match.Commentary = append(match.Commentary, models.CommentaryEvent{
		Minute:      90,
		Timestamp:   time.Now(),
		Type:        "fulltime",
		Description: fmt.Sprintf("Full-time! %s %d - %d %s.", match.HomeTeam, homeScore, awayScore, match.AwayTeam),
	})

	match.PlayerStats = generatePlayerStatistics(rng, homeTeamData, awayTeamData, match.GoalScorers, match.Statistics)
	return match
}

func pickSide(rng *rand.Rand, homeTeam, awayTeam string) string {
	if rng.Float64() < 0.5 {
		return homeTeam
	}
	return awayTeam
}

func decideWinner(match *models.Match) string {
	switch {
	case match.HomeScore > match.AwayScore:
		return match.HomeTeam
	case match.AwayScore > match.HomeScore:
		return match.AwayTeam
	default:
		return ""
	}
}

func fulltimeDescription(match *models.Match) string {
	base := fmt.Sprintf("Full-time! %s %d - %d %s.", match.HomeTeam, match.HomeScore, match.AwayScore, match.AwayTeam)
	if match.Winner != "" {
		return base + fmt.Sprintf(" %s wins!", match.Winner)
	}
	return base + " It's a draw!"
}

// pickScorer prefers listed attackers (or anyone with an AT rating above 70),
// falling back to a uniform squad pick.
func pickScorer(rng *rand.Rand, team *models.Team) string {
	attackers := make([]models.Player, 0)
	for _, p := range team.Players {
		if p.NaturalPosition == models.PositionAT || p.Ratings.AT > attackerRatingFloor {
			attackers = append(attackers, p)
		}
	}
	if len(attackers) > 0 {
		return attackers[rng.Intn(len(attackers))].Name
	}
	if len(team.Players) > 0 {
		return team.Players[rng.Intn(len(team.Players))].Name
	}
	return randomPlayer(rng)
}

// generateMatchStatistics derives team statistics from the final score with
// bounded randomness. Possession is biased 5 points per goal of differential
// and clamped to [35, 65]; shots on target never drop below goals scored.
func generateMatchStatistics(rng *rand.Rand, homeScore, awayScore int) models.MatchStatistics {
	scoreDiff := homeScore - awayScore

	homePossession := 50 + scoreDiff*5 + int(rng.Float64()*10-5)
	homePossession = clampInt(homePossession, 35, 65)

	baseShots := 8 + rng.Intn(6)
	homeShots := maxInt(5, baseShots+homeScore*2+rng.Intn(5))
	awayShots := maxInt(5, baseShots+awayScore*2+rng.Intn(5))

	homeOnTarget := maxInt(homeScore, int(float64(homeShots)*(0.3+rng.Float64()*0.25)))
	awayOnTarget := maxInt(awayScore, int(float64(awayShots)*(0.3+rng.Float64()*0.25)))

	homeRed, awayRed := 0, 0
	if rng.Float64() < 0.1 {
		homeRed = 1
	}
	if rng.Float64() < 0.1 {
		awayRed = 1
	}

	return models.MatchStatistics{
		Possession:    models.StatPair{Home: homePossession, Away: 100 - homePossession},
		Shots:         models.StatPair{Home: homeShots, Away: awayShots},
		ShotsOnTarget: models.StatPair{Home: homeOnTarget, Away: awayOnTarget},
		Corners:       models.StatPair{Home: rng.Intn(8) + 2, Away: rng.Intn(8) + 2},
		Fouls:         models.StatPair{Home: rng.Intn(12) + 8, Away: rng.Intn(12) + 8},
		YellowCards:   models.StatPair{Home: rng.Intn(4), Away: rng.Intn(4)},
		RedCards:      models.StatPair{Home: homeRed, Away: awayRed},
		PassAccuracy:  models.StatPair{Home: 65 + rng.Intn(25), Away: 65 + rng.Intn(25)},
	}
}

// generatePlayerStatistics builds per-player lines for each side's best
// eleven, ranked by the maximum of the four positional ratings. Team-level
// card totals are distributed over randomly chosen starters.
func generatePlayerStatistics(rng *rand.Rand, homeTeamData, awayTeamData *models.Team, goalScorers []models.GoalScorer, stats models.MatchStatistics) []models.PlayerStats {
	starters := append(
		startingEleven(homeTeamData),
		startingEleven(awayTeamData)...,
	)
	if len(starters) == 0 {
		return nil
	}

	yellowCarded := make(map[string]bool)
	for i := 0; i < stats.YellowCards.Home+stats.YellowCards.Away; i++ {
		yellowCarded[starters[rng.Intn(len(starters))].player.Name] = true
	}
	redCarded := make(map[string]bool)
	for i := 0; i < stats.RedCards.Home+stats.RedCards.Away; i++ {
		redCarded[starters[rng.Intn(len(starters))].player.Name] = true
	}

	goalsByPlayer := make(map[string]int)
	for _, g := range goalScorers {
		goalsByPlayer[g.PlayerName]++
	}

	playerStats := make([]models.PlayerStats, 0, len(starters))
	for _, starter := range starters {
		player := starter.player
		positionRating := player.Ratings.ForPosition(player.NaturalPosition)

		minutesPlayed := 90
		if redCarded[player.Name] {
			minutesPlayed = 10 + rng.Intn(61)
		}

		goals := goalsByPlayer[player.Name]

		assistProb := 0.05
		switch player.NaturalPosition {
		case models.PositionMD:
			assistProb = 0.20
		case models.PositionAT:
			assistProb = 0.15
		}
		assists := 0
		if rng.Float64() < assistProb {
			assists = rng.Intn(2)
		}

		shotMultiplier := 0.3
		switch player.NaturalPosition {
		case models.PositionAT:
			shotMultiplier = 1.5
		case models.PositionMD:
			shotMultiplier = 1.0
		}
		shots := int((rng.Float64()*4 + 1) * shotMultiplier)
		shotsOnTarget := int(float64(shots) * (0.3 + rng.Float64()*0.3))

		xgBase := 0.05
		switch player.NaturalPosition {
		case models.PositionAT:
			xgBase = 0.5
		case models.PositionMD:
			xgBase = 0.2
		}
		xg := roundTo(xgBase*(float64(positionRating)/80)*(1+rng.Float64()), 2)

		passMultiplier := 1.0
		switch player.NaturalPosition {
		case models.PositionMD:
			passMultiplier = 2.0
		case models.PositionDF:
			passMultiplier = 1.5
		}
		passes := int((30 + rng.Float64()*40) * passMultiplier)
		passAccuracy := 65 + int(float64(positionRating)/100*25) + rng.Intn(10)

		tackleMultiplier := 0.3
		switch player.NaturalPosition {
		case models.PositionDF:
			tackleMultiplier = 2.0
		case models.PositionMD:
			tackleMultiplier = 1.2
		}
		tackles := int((2 + rng.Float64()*4) * tackleMultiplier)
		interceptions := int((1 + rng.Float64()*3) * tackleMultiplier)

		rating := 6.0 + float64(positionRating)/100*2 + rng.Float64()
		rating += float64(goals)*0.5 + float64(assists)*0.3
		rating = clampFloat(rating, 6.0, 9.5)

		playerStats = append(playerStats, models.PlayerStats{
			PlayerName:    player.Name,
			Team:          starter.team,
			Position:      string(player.NaturalPosition),
			MinutesPlayed: minutesPlayed,
			Goals:         goals,
			Assists:       assists,
			Shots:         shots,
			ShotsOnTarget: shotsOnTarget,
			XG:            xg,
			Passes:        passes,
			PassAccuracy:  passAccuracy,
			Tackles:       tackles,
			Interceptions: interceptions,
			Fouls:         rng.Intn(3),
			YellowCard:    yellowCarded[player.Name],
			RedCard:       redCarded[player.Name],
			Injured:       rng.Float64() < 0.01,
			Rating:        roundTo(rating, 1),
		})
	}
	return playerStats
}

type starter struct {
	player models.Player
	team   string
}

func startingEleven(team *models.Team) []starter {
	players := append([]models.Player{}, team.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Ratings.Best() > players[j].Ratings.Best()
	})
	if len(players) > startingElevenLength {
		players = players[:startingElevenLength]
	}
	starters := make([]starter, 0, len(players))
	for _, p := range players {
		starters = append(starters, starter{player: p, team: team.Country})
	}
	return starters
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	return float64(int(v*scale+0.5)) / scale
}
