package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/knockout-live/models"
	"github.com/lib/pq"
)

var ErrTournamentStateNotFound = errors.New("tournament state not found")

type TournamentStateRepository interface {
	// GetCurrent loads the singleton state, creating it lazily at the
	// registration stage on first access.
	GetCurrent(ctx context.Context) (*models.TournamentState, error)
	Save(ctx context.Context, exec SQLExecutor, state *models.TournamentState) error
}

type postgresTournamentStateRepository struct {
	db *sql.DB
}

func NewPostgresTournamentStateRepository(db *sql.DB) TournamentStateRepository {
	return &postgresTournamentStateRepository{db: db}
}

const tournamentStateColumns = `
	id, current_stage, start_date, end_date, quarter_finals, semi_finals,
	final, winner, champion_team, runner_up, third_place, participating_teams,
	total_matches, completed_matches, quarter_finals_completed,
	semi_finals_completed, final_completed`

func (r *postgresTournamentStateRepository) GetCurrent(ctx context.Context) (*models.TournamentState, error) {
	state, err := r.getByID(ctx, models.TournamentStateID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, ErrTournamentStateNotFound) {
		return nil, err
	}

	// First access: insert the registration-stage singleton. ON CONFLICT
	// covers a concurrent first access.
	insert := `
		INSERT INTO tournament_state (id, current_stage)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, models.TournamentStateID, models.StageRegistration); err != nil {
		return nil, fmt.Errorf("failed to create tournament state: %w", err)
	}
	return r.getByID(ctx, models.TournamentStateID)
}

func (r *postgresTournamentStateRepository) getByID(ctx context.Context, id string) (*models.TournamentState, error) {
	query := `SELECT` + tournamentStateColumns + ` FROM tournament_state WHERE id = $1`

	var (
		state      models.TournamentState
		final      sql.NullString
		winner     sql.NullString
		champion   sql.NullString
		runnerUp   sql.NullString
		thirdPlace sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&state.ID,
		&state.CurrentStage,
		&state.StartDate,
		&state.EndDate,
		pq.Array(&state.QuarterFinals),
		pq.Array(&state.SemiFinals),
		&final,
		&winner,
		&champion,
		&runnerUp,
		&thirdPlace,
		pq.Array(&state.ParticipatingTeams),
		&state.TotalMatches,
		&state.CompletedMatches,
		&state.Metadata.QuarterFinalsCompleted,
		&state.Metadata.SemiFinalsCompleted,
		&state.Metadata.FinalCompleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentStateNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament state: %w", err)
	}

	state.Final = final.String
	state.Winner = winner.String
	state.ChampionTeam = champion.String
	state.RunnerUp = runnerUp.String
	state.ThirdPlace = thirdPlace.String
	if state.QuarterFinals == nil {
		state.QuarterFinals = []string{}
	}
	if state.SemiFinals == nil {
		state.SemiFinals = []string{}
	}
	if state.ParticipatingTeams == nil {
		state.ParticipatingTeams = []string{}
	}
	return &state, nil
}

func (r *postgresTournamentStateRepository) Save(ctx context.Context, exec SQLExecutor, state *models.TournamentState) error {
	query := `
		UPDATE tournament_state SET
			current_stage = $1, start_date = $2, end_date = $3,
			quarter_finals = $4, semi_finals = $5, final = NULLIF($6, ''),
			winner = NULLIF($7, ''), champion_team = NULLIF($8, ''),
			runner_up = NULLIF($9, ''), third_place = NULLIF($10, ''),
			participating_teams = $11, total_matches = $12,
			completed_matches = $13, quarter_finals_completed = $14,
			semi_finals_completed = $15, final_completed = $16
		WHERE id = $17`

	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx, query,
		state.CurrentStage,
		state.StartDate,
		state.EndDate,
		pq.Array(state.QuarterFinals),
		pq.Array(state.SemiFinals),
		state.Final,
		state.Winner,
		state.ChampionTeam,
		state.RunnerUp,
		state.ThirdPlace,
		pq.Array(state.ParticipatingTeams),
		state.TotalMatches,
		state.CompletedMatches,
		state.Metadata.QuarterFinalsCompleted,
		state.Metadata.SemiFinalsCompleted,
		state.Metadata.FinalCompleted,
		state.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save tournament state: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentStateNotFound)
}
