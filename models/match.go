package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled      MatchStatus = "scheduled"
	MatchStatusUpcoming       MatchStatus = "upcoming"
	MatchStatusLive           MatchStatus = "live"
	MatchStatusRequiresReplay MatchStatus = "requires_replay"
	MatchStatusPenalties      MatchStatus = "penalties"
	MatchStatusCompleted      MatchStatus = "completed"
)

type RoundStage string

const (
	RoundStageQuarter    RoundStage = "quarter"
	RoundStageSemi       RoundStage = "semi"
	RoundStageFinal      RoundStage = "final"
	RoundStageThirdPlace RoundStage = "third_place"
)

// KnockoutRounds are the round stages where a draw cannot stand.
var KnockoutRounds = map[RoundStage]bool{
	RoundStageQuarter:    true,
	RoundStageSemi:       true,
	RoundStageFinal:      true,
	RoundStageThirdPlace: true,
}

type MatchResolution string

const (
	ResolutionRegular       MatchResolution = "regular"
	ResolutionPenalties     MatchResolution = "penalties"
	ResolutionReplayPending MatchResolution = "replay_pending"
)

type MatchType string

const (
	MatchTypePlayed    MatchType = "played"
	MatchTypeSimulated MatchType = "simulated"
)

// PlaceholderTeam marks a bracket slot whose feeder match has not finished yet.
const PlaceholderTeam = "TBD"

type GoalScorer struct {
	PlayerName string `json:"playerName"`
	Minute     int    `json:"minute"`
	Type       string `json:"type"`
	Team       string `json:"team"`
}

// ReplayWindow is an optional positional payload attached to highlight-worthy
// commentary events so clients can render a pitch replay.
type ReplayWindow struct {
	Duration    int  `json:"duration"`
	StartTime   int  `json:"startTime"`
	IsHighlight bool `json:"isHighlight"`
}

type CommentaryEvent struct {
	Minute      int           `json:"minute"`
	Timestamp   time.Time     `json:"timestamp"`
	Type        string        `json:"type"`
	Team        string        `json:"team,omitempty"`
	PlayerName  string        `json:"playerName,omitempty"`
	Description string        `json:"description"`
	ReplayData  *ReplayWindow `json:"replayData,omitempty"`
}

type StatPair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type MatchStatistics struct {
	Possession    StatPair `json:"possession"`
	Shots         StatPair `json:"shots"`
	ShotsOnTarget StatPair `json:"shotsOnTarget"`
	Corners       StatPair `json:"corners"`
	Fouls         StatPair `json:"fouls"`
	YellowCards   StatPair `json:"yellowCards"`
	RedCards      StatPair `json:"redCards"`
	PassAccuracy  StatPair `json:"passAccuracy"`
}

type PlayerStats struct {
	PlayerName    string  `json:"playerName"`
	Team          string  `json:"team"`
	Position      string  `json:"position"`
	MinutesPlayed int     `json:"minutesPlayed"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	Shots         int     `json:"shots"`
	ShotsOnTarget int     `json:"shotsOnTarget"`
	XG            float64 `json:"xG"`
	Passes        int     `json:"passes"`
	PassAccuracy  int     `json:"passAccuracy"`
	Tackles       int     `json:"tackles"`
	Interceptions int     `json:"interceptions"`
	Fouls         int     `json:"fouls"`
	YellowCard    bool    `json:"yellowCard"`
	RedCard       bool    `json:"redCard"`
	Injured       bool    `json:"injured"`
	Rating        float64 `json:"rating"`
}

type PenaltyKick struct {
	PlayerName string `json:"playerName"`
	Scored     bool   `json:"scored"`
}

// PenaltyShootout is embedded in a Match, never stored standalone.
type PenaltyShootout struct {
	HomeTeamPenalties []PenaltyKick `json:"homeTeamPenalties"`
	AwayTeamPenalties []PenaltyKick `json:"awayTeamPenalties"`
	HomeTeamScore     int           `json:"homeTeamScore"`
	AwayTeamScore     int           `json:"awayTeamScore"`
	Winner            string        `json:"winner"`
}

type ReplayRecord struct {
	HomeScore  int       `json:"homeScore"`
	AwayScore  int       `json:"awayScore"`
	RecordedAt time.Time `json:"recordedAt"`
}

type Match struct {
	ID              string            `json:"id"`
	HomeTeam        string            `json:"homeTeam"`
	AwayTeam        string            `json:"awayTeam"`
	HomeScore       int               `json:"homeScore"`
	AwayScore       int               `json:"awayScore"`
	PenaltyShootout *PenaltyShootout  `json:"penaltyShootout,omitempty"`
	IsThirdPlace    bool              `json:"isThirdPlace"`
	Status          MatchStatus       `json:"status"`
	Resolution      MatchResolution   `json:"resolution"`
	RequiresReplay  bool              `json:"requiresReplay"`
	ReplayCount     int               `json:"replayCount"`
	ReplayHistory   []ReplayRecord    `json:"replayHistory,omitempty"`
	Date            time.Time         `json:"date"`
	Stage           string            `json:"stage,omitempty"`
	RoundStage      RoundStage        `json:"roundStage,omitempty"`
	NextMatchID     string            `json:"nextMatchId,omitempty"`
	BracketSlot     int               `json:"bracketSlot"`
	Winner          string            `json:"winner,omitempty"`
	GoalScorers     []GoalScorer      `json:"goalScorers,omitempty"`
	Commentary      []CommentaryEvent `json:"commentary,omitempty"`
	MatchType       MatchType         `json:"matchType"`
	Statistics      MatchStatistics   `json:"statistics"`
	PlayerStats     []PlayerStats     `json:"playerStats,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// HasPlaceholder reports whether either side of the match is still waiting on
// a feeder result.
func (m *Match) HasPlaceholder() bool {
	return m.HomeTeam == PlaceholderTeam || m.AwayTeam == PlaceholderTeam
}

// IsDraw reports whether the recorded score is level.
func (m *Match) IsDraw() bool {
	return m.HomeScore == m.AwayScore
}

// Opponent returns the other participant, or "" if team is not in the match.
func (m *Match) Opponent(team string) string {
	switch team {
	case m.HomeTeam:
		return m.AwayTeam
	case m.AwayTeam:
		return m.HomeTeam
	default:
		return ""
	}
}
