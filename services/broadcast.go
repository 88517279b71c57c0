package services

import "github.com/Dosada05/knockout-live/models"

// Broadcaster is the event surface the services push through. Implemented by
// realtime.Broadcaster; kept as an interface so services can be tested
// without a websocket hub. Every call is fire-and-forget.
type Broadcaster interface {
	MatchStart(matchID, homeTeam, awayTeam, stage string)
	MatchCommentary(matchID string, event models.CommentaryEvent)
	MatchGoal(matchID string, scorer models.GoalScorer, homeScore, awayScore int)
	MatchScore(matchID string, homeScore, awayScore int)
	MatchEnd(match *models.Match)
	MatchError(matchID string, err error)
	MatchPenalties(matchID string, shootout *models.PenaltyShootout)
	MatchCreated(match *models.Match, kind string)
	WatcherCount(matchID string) int

	BracketUpdate(stage models.TournamentStage, message string)
	StageChange(oldStage, newStage models.TournamentStage)
	Champion(champion, runnerUp string)
	ThirdPlace(winner string)

	ReplayEvent(matchID string, event models.CommentaryEvent, index, total int)
	ReplayState(matchID string, currentIndex int, isPlaying bool, speed float64, current models.CommentaryEvent, totalEvents int)
	ReplayEnd(matchID, reason string)
}
