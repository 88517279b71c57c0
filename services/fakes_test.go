package services

import (
	"context"
	"sort"
	"sync"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/repositories"
)

// fakeMatchRepo is an in-memory repositories.MatchRepository.
type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]*models.Match)}
}

func (r *fakeMatchRepo) clone(m *models.Match) *models.Match {
	cp := *m
	return &cp
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[match.ID] = r.clone(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return r.clone(match), nil
}

func (r *fakeMatchRepo) ListByRoundStage(ctx context.Context, stage models.RoundStage) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.RoundStage == stage {
			out = append(out, r.clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BracketSlot < out[j].BracketSlot })
	return out, nil
}

func (r *fakeMatchRepo) ListByNextMatch(ctx context.Context, nextMatchID string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.NextMatchID == nextMatchID {
			out = append(out, r.clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BracketSlot < out[j].BracketSlot })
	return out, nil
}

func (r *fakeMatchRepo) ListByIDs(ctx context.Context, ids []string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.matches[id]; ok {
			out = append(out, r.clone(m))
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) CountCompletedBracketMatches(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.RoundStage != "" && m.Status == models.MatchStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.matches[match.ID] = r.clone(match)
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (r *fakeMatchRepo) FillBracketSlot(ctx context.Context, id string, slot repositories.BracketSlot, team string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	switch slot {
	case repositories.SlotHome:
		if match.HomeTeam != models.PlaceholderTeam {
			return repositories.ErrSlotTaken
		}
		match.HomeTeam = team
	case repositories.SlotAway:
		if match.AwayTeam != models.PlaceholderTeam {
			return repositories.ErrSlotTaken
		}
		match.AwayTeam = team
	}
	return nil
}

func (r *fakeMatchRepo) DeleteByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.matches, id)
	}
	return nil
}

// fakeTeamRepo serves a fixed set of registered squads.
type fakeTeamRepo struct {
	teams map[string]*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{teams: make(map[string]*models.Team)}
	for _, t := range teams {
		repo.teams[t.Country] = t
	}
	return repo
}

func (r *fakeTeamRepo) GetByCountry(ctx context.Context, country string) (*models.Team, error) {
	team, ok := r.teams[country]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}

func (r *fakeTeamRepo) ListByCountries(ctx context.Context, countries []string) ([]*models.Team, error) {
	out := make([]*models.Team, 0, len(countries))
	for _, c := range countries {
		if team, ok := r.teams[c]; ok {
			out = append(out, team)
		}
	}
	return out, nil
}

// fakeStateRepo holds the singleton tournament state in memory.
type fakeStateRepo struct {
	mu    sync.Mutex
	state *models.TournamentState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{
		state: &models.TournamentState{
			ID:           models.TournamentStateID,
			CurrentStage: models.StageRegistration,
		},
	}
}

func (r *fakeStateRepo) GetCurrent(ctx context.Context) (*models.TournamentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.state
	return &cp, nil
}

func (r *fakeStateRepo) Save(ctx context.Context, exec repositories.SQLExecutor, state *models.TournamentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *state
	r.state = &cp
	return nil
}

// broadcastCall records one broadcaster invocation for assertions.
type broadcastCall struct {
	kind    string
	matchID string
	payload interface{}
}

// recordingBroadcaster captures every emitted event.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) record(kind, matchID string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{kind: kind, matchID: matchID, payload: payload})
}

func (b *recordingBroadcaster) callsOf(kind string) []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broadcastCall, 0)
	for _, c := range b.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (b *recordingBroadcaster) MatchStart(matchID, homeTeam, awayTeam, stage string) {
	b.record("match_start", matchID, homeTeam+" vs "+awayTeam)
}
func (b *recordingBroadcaster) MatchCommentary(matchID string, event models.CommentaryEvent) {
	b.record("commentary", matchID, event)
}
func (b *recordingBroadcaster) MatchGoal(matchID string, scorer models.GoalScorer, homeScore, awayScore int) {
	b.record("goal", matchID, scorer)
}
func (b *recordingBroadcaster) MatchScore(matchID string, homeScore, awayScore int) {
	b.record("score", matchID, [2]int{homeScore, awayScore})
}
func (b *recordingBroadcaster) MatchEnd(match *models.Match) {
	b.record("match_end", match.ID, match)
}
func (b *recordingBroadcaster) MatchError(matchID string, err error) {
	b.record("match_error", matchID, err)
}
func (b *recordingBroadcaster) MatchPenalties(matchID string, shootout *models.PenaltyShootout) {
	b.record("penalties", matchID, shootout)
}
func (b *recordingBroadcaster) MatchCreated(match *models.Match, kind string) {
	b.record("match_created", match.ID, kind)
}
func (b *recordingBroadcaster) WatcherCount(matchID string) int { return 0 }
func (b *recordingBroadcaster) BracketUpdate(stage models.TournamentStage, message string) {
	b.record("bracket_update", "", message)
}
func (b *recordingBroadcaster) StageChange(oldStage, newStage models.TournamentStage) {
	b.record("stage_change", "", [2]models.TournamentStage{oldStage, newStage})
}
func (b *recordingBroadcaster) Champion(champion, runnerUp string) {
	b.record("champion", "", [2]string{champion, runnerUp})
}
func (b *recordingBroadcaster) ThirdPlace(winner string) {
	b.record("third_place", "", winner)
}
func (b *recordingBroadcaster) ReplayEvent(matchID string, event models.CommentaryEvent, index, total int) {
	b.record("replay_event", matchID, event)
}
func (b *recordingBroadcaster) ReplayState(matchID string, currentIndex int, isPlaying bool, speed float64, current models.CommentaryEvent, totalEvents int) {
	b.record("replay_state", matchID, [2]interface{}{currentIndex, isPlaying})
}
func (b *recordingBroadcaster) ReplayEnd(matchID, reason string) {
	b.record("replay_end", matchID, reason)
}
