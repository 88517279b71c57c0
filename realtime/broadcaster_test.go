package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
)

type fakePublisher struct {
	roomMessages map[string][]Event
	allMessages  []Event
	sizes        map[string]int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		roomMessages: make(map[string][]Event),
		sizes:        make(map[string]int),
	}
}

func (p *fakePublisher) BroadcastToRoom(roomID string, message interface{}) {
	p.roomMessages[roomID] = append(p.roomMessages[roomID], message.(Event))
}

func (p *fakePublisher) BroadcastAll(message interface{}) {
	p.allMessages = append(p.allMessages, message.(Event))
}

func (p *fakePublisher) RoomSize(roomID string) int { return p.sizes[roomID] }

func TestMatchEventsGoToMatchRoom(t *testing.T) {
	pub := newFakePublisher()
	b := NewBroadcaster(pub)

	b.MatchStart("m1", "Brazil", "Germany", "Final")
	b.MatchGoal("m1", models.GoalScorer{PlayerName: "V. Osimhen", Minute: 23, Team: "Brazil", Type: "normal"}, 1, 0)

	events := pub.roomMessages[MatchRoom("m1")]
	require.Len(t, events, 2)
	assert.Equal(t, "match:start", events[0].Type)
	assert.Equal(t, "match:goal", events[1].Type)

	goal := events[1].Payload.(map[string]interface{})
	assert.Equal(t, "V. Osimhen", goal["playerName"])
	assert.Equal(t, 1, goal["homeScore"])
	assert.Empty(t, pub.allMessages)
}

func TestTournamentEventsGoToEveryone(t *testing.T) {
	pub := newFakePublisher()
	b := NewBroadcaster(pub)

	b.StageChange(models.StageQuarter, models.StageSemi)
	b.Champion("Brazil", "Germany")

	require.Len(t, pub.allMessages, 2)
	assert.Equal(t, "tournament:stage-change", pub.allMessages[0].Type)
	assert.Equal(t, "tournament:champion", pub.allMessages[1].Type)
}

func TestCommentaryOmitsEmptyFields(t *testing.T) {
	pub := newFakePublisher()
	b := NewBroadcaster(pub)

	b.MatchCommentary("m1", models.CommentaryEvent{Minute: 45, Type: "halftime", Description: "Half-time"})

	events := pub.roomMessages[MatchRoom("m1")]
	require.Len(t, events, 1)
	payload := events[0].Payload.(map[string]interface{})
	_, hasTeam := payload["team"]
	assert.False(t, hasTeam)
	_, hasPlayer := payload["playerName"]
	assert.False(t, hasPlayer)
}

func TestWatcherCountUsesRoomSize(t *testing.T) {
	pub := newFakePublisher()
	pub.sizes[MatchRoom("m1")] = 3
	b := NewBroadcaster(pub)

	assert.Equal(t, 3, b.WatcherCount("m1"))
}

func TestNotifyRoomChangeSkipsTournamentRoom(t *testing.T) {
	pub := newFakePublisher()
	b := NewBroadcaster(pub)

	b.NotifyRoomChange(TournamentRoom, 5)
	assert.Empty(t, pub.roomMessages)

	b.NotifyRoomChange(MatchRoom("m1"), 2)
	require.Len(t, pub.roomMessages[MatchRoom("m1")], 1)
	assert.Equal(t, "match:watchers", pub.roomMessages[MatchRoom("m1")][0].Type)
}
