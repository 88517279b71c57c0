package models

import "time"

// TournamentStateID is the identity of the process-wide singleton document.
const TournamentStateID = "current_tournament"

type TournamentStage string

const (
	StageRegistration TournamentStage = "registration"
	StageQuarter      TournamentStage = "quarter"
	StageSemi         TournamentStage = "semi"
	StageFinal        TournamentStage = "final"
	StageCompleted    TournamentStage = "completed"
)

// stageOrder pins the only legal progression. Transitions move exactly one
// step forward, never backwards or skipping.
var stageOrder = []TournamentStage{
	StageRegistration,
	StageQuarter,
	StageSemi,
	StageFinal,
	StageCompleted,
}

// NextStage returns the stage following s, or "" when s is terminal or unknown.
func NextStage(s TournamentStage) TournamentStage {
	for i, stage := range stageOrder {
		if stage == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return ""
}

type StageMetadata struct {
	QuarterFinalsCompleted bool `json:"quarterFinalsCompleted"`
	SemiFinalsCompleted    bool `json:"semiFinalsCompleted"`
	FinalCompleted         bool `json:"finalCompleted"`
}

// TournamentState tracks overall tournament progress. It is only ever mutated
// by the bracket service.
type TournamentState struct {
	ID                 string          `json:"id"`
	CurrentStage       TournamentStage `json:"currentStage"`
	StartDate          *time.Time      `json:"startDate,omitempty"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	QuarterFinals      []string        `json:"quarterFinals"`
	SemiFinals         []string        `json:"semiFinals"`
	Final              string          `json:"final,omitempty"`
	Winner             string          `json:"winner,omitempty"`
	ChampionTeam       string          `json:"championTeam,omitempty"`
	RunnerUp           string          `json:"runnerUp,omitempty"`
	ThirdPlace         string          `json:"thirdPlace,omitempty"`
	ParticipatingTeams []string        `json:"participatingTeams"`
	TotalMatches       int             `json:"totalMatches"`
	CompletedMatches   int             `json:"completedMatches"`
	Metadata           StageMetadata   `json:"metadata"`
}
