package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/knockout-live/models"
)

func replayFixture(t *testing.T) (*ReplayService, *fakeMatchRepo, *recordingBroadcaster) {
	t.Helper()
	matchRepo := newFakeMatchRepo()
	broadcaster := &recordingBroadcaster{}
	svc := NewReplayService(matchRepo, broadcaster)
	svc.sleep = func(time.Duration) {}

	base := time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC)
	require.NoError(t, matchRepo.Create(context.Background(), nil, &models.Match{
		ID:       "replay-match",
		HomeTeam: "Brazil", AwayTeam: "Germany",
		Status: models.MatchStatusCompleted,
		Commentary: []models.CommentaryEvent{
			{Minute: 0, Timestamp: base, Type: "kickoff", Description: "Kickoff!"},
			{Minute: 10, Timestamp: base.Add(2 * time.Second), Type: "goal", Team: "Brazil", Description: "GOAL!"},
			{Minute: 12, Timestamp: base.Add(4 * time.Second), Type: "attack", Team: "Germany", Description: "Germany attack"},
			{Minute: 15, Timestamp: base.Add(6 * time.Second), Type: "goal", Team: "Germany", Description: "GOAL!"},
			{Minute: 45, Timestamp: base.Add(8 * time.Second), Type: "halftime", Description: "Half-time"},
			{Minute: 90, Timestamp: base.Add(10 * time.Second), Type: "fulltime", Description: "Full-time"},
		},
	}))
	return svc, matchRepo, broadcaster
}

func TestStartReplayFiltersWindowInclusive(t *testing.T) {
	svc, _, _ := replayFixture(t)

	snapshot, err := svc.StartReplay(context.Background(), "replay-match", 10, 15)
	require.NoError(t, err)

	assert.Equal(t, 3, snapshot.TotalEvents)
	assert.Equal(t, 0, snapshot.CurrentIndex)
	assert.False(t, snapshot.IsPlaying)
	assert.Equal(t, 10, snapshot.CurrentEvent.Minute)
}

func TestStartReplayEmptyWindow(t *testing.T) {
	svc, _, _ := replayFixture(t)

	_, err := svc.StartReplay(context.Background(), "replay-match", 60, 80)
	assert.ErrorIs(t, err, ErrEmptyReplayWindow)
}

func TestJoinReplayRequiresSession(t *testing.T) {
	svc, _, _ := replayFixture(t)

	_, err := svc.JoinReplay("replay-match", "alice")
	assert.ErrorIs(t, err, ErrReplaySessionNotFound)

	_, err = svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	snapshot, err := svc.JoinReplay("replay-match", "alice")
	require.NoError(t, err)
	assert.Equal(t, 6, snapshot.TotalEvents)
}

func TestJoinReplayTracksViewers(t *testing.T) {
	svc, _, _ := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	snapshot, err := svc.JoinReplay("replay-match", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.ViewerCount)

	snapshot, err = svc.JoinReplay("replay-match", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.ViewerCount)

	// Rejoining under the same identity does not inflate the count, and an
	// anonymous peek does not register at all.
	snapshot, err = svc.JoinReplay("replay-match", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.ViewerCount)

	snapshot, err = svc.JoinReplay("replay-match", "")
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.ViewerCount)
}

func TestControlReplayManualStepping(t *testing.T) {
	svc, _, broadcaster := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	snapshot, err := svc.ControlReplay("replay-match", ReplayActionNext, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.CurrentIndex)

	snapshot, err = svc.ControlReplay("replay-match", ReplayActionPrevious, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.CurrentIndex)

	// Stepping below zero stays put.
	snapshot, err = svc.ControlReplay("replay-match", ReplayActionPrevious, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.CurrentIndex)

	assert.NotEmpty(t, broadcaster.callsOf("replay_event"))
}

func TestControlReplaySpeedValidation(t *testing.T) {
	svc, _, _ := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	snapshot, err := svc.ControlReplay("replay-match", ReplayActionSpeed, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, snapshot.Speed)

	_, err = svc.ControlReplay("replay-match", ReplayActionSpeed, 0)
	assert.ErrorIs(t, err, ErrInvalidReplayAction)

	_, err = svc.ControlReplay("replay-match", "rewind", 0)
	assert.ErrorIs(t, err, ErrInvalidReplayAction)
}

func TestPlayRunsToEndAndStops(t *testing.T) {
	svc, _, broadcaster := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	_, err = svc.ControlReplay("replay-match", ReplayActionPlay, 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, err := svc.JoinReplay("replay-match", "")
		return err == nil && !snapshot.IsPlaying && snapshot.CurrentIndex == snapshot.TotalEvents-1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, broadcaster.callsOf("replay_event"), 6)
	ends := broadcaster.callsOf("replay_end")
	require.Len(t, ends, 1)
	assert.Equal(t, "finished", ends[0].payload)
}

func TestPlayWhilePlayingIsNoOp(t *testing.T) {
	svc, _, broadcaster := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	// Park the playback loop on its first sleep only.
	release := make(chan struct{})
	var calls int32
	svc.sleep = func(time.Duration) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
		}
	}

	_, err = svc.ControlReplay("replay-match", ReplayActionPlay, 0)
	require.NoError(t, err)
	_, err = svc.ControlReplay("replay-match", ReplayActionPlay, 0)
	require.NoError(t, err)

	// Only the first loop emitted an event; the second play changed nothing.
	require.Eventually(t, func() bool {
		return len(broadcaster.callsOf("replay_event")) == 1
	}, time.Second, 10*time.Millisecond)

	close(release)

	require.Eventually(t, func() bool {
		snapshot, err := svc.JoinReplay("replay-match", "")
		return err == nil && !snapshot.IsPlaying
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, broadcaster.callsOf("replay_event"), 6)
}

func TestEndReplayTearsDownSession(t *testing.T) {
	svc, _, broadcaster := replayFixture(t)
	_, err := svc.StartReplay(context.Background(), "replay-match", 0, 90)
	require.NoError(t, err)

	require.NoError(t, svc.EndReplay("replay-match", "operator"))
	_, err = svc.JoinReplay("replay-match", "")
	assert.ErrorIs(t, err, ErrReplaySessionNotFound)

	assert.ErrorIs(t, svc.EndReplay("replay-match", ""), ErrReplaySessionNotFound)
	require.Len(t, broadcaster.callsOf("replay_end"), 1)
}

func TestGetHighlightsFiltersEventTypes(t *testing.T) {
	svc, _, _ := replayFixture(t)

	highlights, err := svc.GetHighlights(context.Background(), "replay-match")
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	for _, h := range highlights {
		assert.Equal(t, "goal", h.Type)
	}
}
