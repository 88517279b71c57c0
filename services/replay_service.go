package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
)

// Playback actions accepted by ControlReplay.
const (
	ReplayActionPlay     = "play"
	ReplayActionPause    = "pause"
	ReplayActionNext     = "next"
	ReplayActionPrevious = "previous"
	ReplayActionSpeed    = "speed"
)

const (
	defaultReplaySpeed = 1.0
	maxReplaySpeed     = 16.0
	// Fallback gap when two events carry the same timestamp.
	defaultEventGap = time.Second
)

var highlightEventTypes = map[string]bool{
	"goal":         true,
	"penalties":    true,
	"penalty-goal": true,
	"penalty-miss": true,
	"red-card":     true,
	"highlight":    true,
}

type replaySession struct {
	matchID      string
	events       []models.CommentaryEvent
	currentIndex int
	isPlaying    bool
	speed        float64
	viewers      map[string]struct{}
}

// ReplaySnapshot is the session state pushed to clients on join and after
// every control action.
type ReplaySnapshot struct {
	MatchID      string                 `json:"matchId"`
	CurrentIndex int                    `json:"currentIndex"`
	TotalEvents  int                    `json:"totalEvents"`
	IsPlaying    bool                   `json:"isPlaying"`
	Speed        float64                `json:"speed"`
	ViewerCount  int                    `json:"viewerCount"`
	CurrentEvent models.CommentaryEvent `json:"currentEvent"`
}

// ReplayService replays stored commentary windows at a controllable pace.
// Event gaps are scaled by the recorded timestamp deltas divided by the
// playback speed, so a replay of a live match keeps its original rhythm.
type ReplayService struct {
	mu       sync.Mutex
	sessions map[string]*replaySession

	matches     repositories.MatchRepository
	broadcaster Broadcaster
	sleep       func(time.Duration)
}

func NewReplayService(matches repositories.MatchRepository, broadcaster Broadcaster) *ReplayService {
	return &ReplayService{
		sessions:    make(map[string]*replaySession),
		matches:     matches,
		broadcaster: broadcaster,
		sleep:       time.Sleep,
	}
}

// StartReplay opens a replay session over the commentary events whose minute
// falls inside [startMinute, endMinute]. An existing session for the match is
// replaced. The window must contain at least one event.
func (s *ReplayService) StartReplay(ctx context.Context, matchID string, startMinute, endMinute int) (*ReplaySnapshot, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	events := make([]models.CommentaryEvent, 0, len(match.Commentary))
	for _, event := range match.Commentary {
		if event.Minute >= startMinute && event.Minute <= endMinute {
			events = append(events, event)
		}
	}
	if len(events) == 0 {
		return nil, ErrEmptyReplayWindow
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	s.mu.Lock()
	if _, exists := s.sessions[matchID]; exists {
		delete(s.sessions, matchID)
		s.broadcaster.ReplayEnd(matchID, "restarted")
	}
	session := &replaySession{
		matchID: matchID,
		events:  events,
		speed:   defaultReplaySpeed,
		viewers: make(map[string]struct{}),
	}
	s.sessions[matchID] = session
	snapshot := snapshotOf(session)
	s.mu.Unlock()

	s.broadcaster.ReplayState(matchID, snapshot.CurrentIndex, snapshot.IsPlaying, snapshot.Speed, snapshot.CurrentEvent, snapshot.TotalEvents)
	return &snapshot, nil
}

// JoinReplay records the viewer on the session and returns its live state so
// a late joiner can sync up. Joining twice with the same identity is
// idempotent; an empty viewerID peeks at the state without registering.
func (s *ReplayService) JoinReplay(matchID, viewerID string) (*ReplaySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[matchID]
	if !ok {
		return nil, ErrReplaySessionNotFound
	}
	if viewerID != "" {
		session.viewers[viewerID] = struct{}{}
	}
	snapshot := snapshotOf(session)
	return &snapshot, nil
}

// ControlReplay applies a playback action. Play on an already playing session
// is a no-op so a repeated command never spawns a second playback loop; next
// and previous step manually and implicitly pause.
func (s *ReplayService) ControlReplay(matchID, action string, speed float64) (*ReplaySnapshot, error) {
	s.mu.Lock()
	session, ok := s.sessions[matchID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrReplaySessionNotFound
	}

	startLoop := false
	switch action {
	case ReplayActionPlay:
		if !session.isPlaying {
			if session.currentIndex >= len(session.events) {
				session.currentIndex = 0
			}
			session.isPlaying = true
			startLoop = true
		}
	case ReplayActionPause:
		session.isPlaying = false
	case ReplayActionNext:
		session.isPlaying = false
		if session.currentIndex < len(session.events)-1 {
			session.currentIndex++
		}
	case ReplayActionPrevious:
		session.isPlaying = false
		if session.currentIndex > 0 {
			session.currentIndex--
		}
	case ReplayActionSpeed:
		if speed <= 0 || speed > maxReplaySpeed {
			s.mu.Unlock()
			return nil, ErrInvalidReplayAction
		}
		session.speed = speed
	default:
		s.mu.Unlock()
		return nil, ErrInvalidReplayAction
	}
	snapshot := snapshotOf(session)
	s.mu.Unlock()

	if action == ReplayActionNext || action == ReplayActionPrevious {
		s.broadcaster.ReplayEvent(matchID, snapshot.CurrentEvent, snapshot.CurrentIndex, snapshot.TotalEvents)
	}
	s.broadcaster.ReplayState(matchID, snapshot.CurrentIndex, snapshot.IsPlaying, snapshot.Speed, snapshot.CurrentEvent, snapshot.TotalEvents)

	if startLoop {
		go s.runPlayback(matchID)
	}
	return &snapshot, nil
}

// EndReplay tears the session down and tells the room why.
func (s *ReplayService) EndReplay(matchID, reason string) error {
	s.mu.Lock()
	_, ok := s.sessions[matchID]
	if ok {
		delete(s.sessions, matchID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrReplaySessionNotFound
	}
	if reason == "" {
		reason = "ended"
	}
	s.broadcaster.ReplayEnd(matchID, reason)
	return nil
}

// GetHighlights returns the highlight-worthy commentary of a finished match:
// goals, penalty drama, red cards and flagged moments.
func (s *ReplayService) GetHighlights(ctx context.Context, matchID string) ([]models.CommentaryEvent, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	highlights := make([]models.CommentaryEvent, 0)
	for _, event := range match.Commentary {
		if highlightEventTypes[event.Type] {
			highlights = append(highlights, event)
		}
	}
	return highlights, nil
}

// runPlayback streams events until the session is paused, torn down or
// exhausted. One loop per session: play-while-playing never gets here twice.
func (s *ReplayService) runPlayback(matchID string) {
	for {
		s.mu.Lock()
		session, ok := s.sessions[matchID]
		if !ok || !session.isPlaying {
			s.mu.Unlock()
			return
		}
		if session.currentIndex >= len(session.events) {
			session.isPlaying = false
			session.currentIndex = len(session.events) - 1
			snapshot := snapshotOf(session)
			s.mu.Unlock()
			s.broadcaster.ReplayState(matchID, snapshot.CurrentIndex, false, snapshot.Speed, snapshot.CurrentEvent, snapshot.TotalEvents)
			s.broadcaster.ReplayEnd(matchID, "finished")
			return
		}

		index := session.currentIndex
		event := session.events[index]
		total := len(session.events)

		delay := defaultEventGap
		if index+1 < total {
			if gap := session.events[index+1].Timestamp.Sub(event.Timestamp); gap > 0 {
				delay = gap
			}
		}
		delay = time.Duration(float64(delay) / session.speed)
		session.currentIndex++
		s.mu.Unlock()

		s.broadcaster.ReplayEvent(matchID, event, index, total)
		s.sleep(delay)
	}
}

func snapshotOf(session *replaySession) ReplaySnapshot {
	index := session.currentIndex
	if index >= len(session.events) {
		index = len(session.events) - 1
	}
	return ReplaySnapshot{
		MatchID:      session.matchID,
		CurrentIndex: index,
		TotalEvents:  len(session.events),
		IsPlaying:    session.isPlaying,
		Speed:        session.speed,
		ViewerCount:  len(session.viewers),
		CurrentEvent: session.events[index],
	}
}
