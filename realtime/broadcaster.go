package realtime

import (
	"time"

	"github.com/Dosada05/knockout-live/models"
)

// Room topics. Match events go to the match room; tournament-wide events go
// to every connected client.
const TournamentRoom = "tournament"

func MatchRoom(matchID string) string {
	return "match:" + matchID
}

// Event is the wire envelope for every pushed message.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// RoomPublisher is the slice of Hub the broadcaster needs. Kept as an
// interface so event emission can be tested without websocket connections.
type RoomPublisher interface {
	BroadcastToRoom(roomID string, message interface{})
	BroadcastAll(message interface{})
	RoomSize(roomID string) int
}

// Broadcaster publishes typed match and tournament events. All emission is
// fire-and-forget: a publish never blocks or fails the caller.
type Broadcaster struct {
	pub RoomPublisher
}

func NewBroadcaster(pub RoomPublisher) *Broadcaster {
	return &Broadcaster{pub: pub}
}

func (b *Broadcaster) toMatch(matchID, eventType string, payload interface{}) {
	b.pub.BroadcastToRoom(MatchRoom(matchID), Event{Type: eventType, Payload: payload, Timestamp: time.Now()})
}

func (b *Broadcaster) toAll(eventType string, payload interface{}) {
	b.pub.BroadcastAll(Event{Type: eventType, Payload: payload, Timestamp: time.Now()})
}

func (b *Broadcaster) MatchStart(matchID, homeTeam, awayTeam, stage string) {
	b.toMatch(matchID, "match:start", map[string]interface{}{
		"matchId":  matchID,
		"homeTeam": homeTeam,
		"awayTeam": awayTeam,
		"stage":    stage,
	})
}

func (b *Broadcaster) MatchCommentary(matchID string, event models.CommentaryEvent) {
	payload := map[string]interface{}{
		"matchId":     matchID,
		"minute":      event.Minute,
		"type":        event.Type,
		"description": event.Description,
	}
	if event.Team != "" {
		payload["team"] = event.Team
	}
	if event.PlayerName != "" {
		payload["playerName"] = event.PlayerName
	}
	b.toMatch(matchID, "match:commentary", payload)
}

func (b *Broadcaster) MatchGoal(matchID string, scorer models.GoalScorer, homeScore, awayScore int) {
	b.toMatch(matchID, "match:goal", map[string]interface{}{
		"matchId":    matchID,
		"minute":     scorer.Minute,
		"playerName": scorer.PlayerName,
		"team":       scorer.Team,
		"type":       scorer.Type,
		"homeScore":  homeScore,
		"awayScore":  awayScore,
	})
}

func (b *Broadcaster) MatchScore(matchID string, homeScore, awayScore int) {
	b.toMatch(matchID, "match:score", map[string]interface{}{
		"matchId":   matchID,
		"homeScore": homeScore,
		"awayScore": awayScore,
	})
}

func (b *Broadcaster) MatchEnd(match *models.Match) {
	b.toMatch(match.ID, "match:end", map[string]interface{}{
		"matchId":   match.ID,
		"homeTeam":  match.HomeTeam,
		"awayTeam":  match.AwayTeam,
		"homeScore": match.HomeScore,
		"awayScore": match.AwayScore,
		"winner":    match.Winner,
		"status":    match.Status,
	})
}

func (b *Broadcaster) MatchError(matchID string, err error) {
	message := "an error occurred"
	if err != nil {
		message = err.Error()
	}
	b.toMatch(matchID, "match:error", map[string]interface{}{
		"matchId": matchID,
		"error":   message,
	})
}

func (b *Broadcaster) MatchPenalties(matchID string, shootout *models.PenaltyShootout) {
	b.toMatch(matchID, "match:penalties", map[string]interface{}{
		"matchId":         matchID,
		"penaltyShootout": shootout,
	})
}

// WatcherCount reports how many clients are subscribed to a match topic.
func (b *Broadcaster) WatcherCount(matchID string) int {
	return b.pub.RoomSize(MatchRoom(matchID))
}

// NotifyRoomChange pushes the current watcher count into a match room. Wired
// as the hub's room-change hook.
func (b *Broadcaster) NotifyRoomChange(room string, size int) {
	if room == TournamentRoom {
		return
	}
	b.pub.BroadcastToRoom(room, Event{
		Type:      "match:watchers",
		Payload:   map[string]interface{}{"count": size},
		Timestamp: time.Now(),
	})
}

func (b *Broadcaster) BracketUpdate(stage models.TournamentStage, message string) {
	if message == "" {
		message = "Bracket updated"
	}
	b.toAll("bracket:update", map[string]interface{}{
		"tournamentStage": stage,
		"message":         message,
	})
}

func (b *Broadcaster) StageChange(oldStage, newStage models.TournamentStage) {
	b.toAll("tournament:stage-change", map[string]interface{}{
		"oldStage": oldStage,
		"newStage": newStage,
	})
}

func (b *Broadcaster) Champion(champion, runnerUp string) {
	b.toAll("tournament:champion", map[string]interface{}{
		"champion": champion,
		"runnerUp": runnerUp,
	})
}

func (b *Broadcaster) ThirdPlace(winner string) {
	b.toAll("tournament:third-place", map[string]interface{}{
		"winner": winner,
	})
}

func (b *Broadcaster) MatchCreated(match *models.Match, kind string) {
	b.toAll("match:created", map[string]interface{}{
		"match": match,
		"type":  kind,
	})
}

func (b *Broadcaster) ReplayEvent(matchID string, event models.CommentaryEvent, index, total int) {
	b.toMatch(matchID, "replay:event", map[string]interface{}{
		"event": event,
		"index": index,
		"total": total,
	})
}

func (b *Broadcaster) ReplayState(matchID string, currentIndex int, isPlaying bool, speed float64, current models.CommentaryEvent, totalEvents int) {
	b.toMatch(matchID, "replay:state", map[string]interface{}{
		"currentIndex":  currentIndex,
		"isPlaying":     isPlaying,
		"playbackSpeed": speed,
		"currentEvent":  current,
		"totalEvents":   totalEvents,
	})
}

func (b *Broadcaster) ReplayEnd(matchID, reason string) {
	b.toMatch(matchID, "replay:end", map[string]interface{}{
		"reason": reason,
	})
}
