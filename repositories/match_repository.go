package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/knockout-live/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrSlotTaken is returned by FillBracketSlot when the targeted slot no
	// longer holds the placeholder, i.e. a concurrent advancement won the race.
	ErrSlotTaken = errors.New("bracket slot already filled")
)

// BracketSlot names the side of a downstream match a winner feeds into.
type BracketSlot string

const (
	SlotHome BracketSlot = "home"
	SlotAway BracketSlot = "away"
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByRoundStage(ctx context.Context, stage models.RoundStage) ([]*models.Match, error)
	ListByNextMatch(ctx context.Context, nextMatchID string) ([]*models.Match, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Match, error)
	CountCompletedBracketMatches(ctx context.Context) (int, error)
	UpdateResult(ctx context.Context, match *models.Match) error
	UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error
	// FillBracketSlot writes the winner into the given side of the next match
	// only if that side still holds the TBD placeholder. Returns ErrSlotTaken
	// when the conditional write matches no row but the match exists.
	FillBracketSlot(ctx context.Context, id string, slot BracketSlot, team string) error
	DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

// executor resolves the tx-or-db choice: a nil exec runs against the pool.
func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

const matchColumns = `
	id, home_team, away_team, home_score, away_score, penalty_shootout,
	is_third_place, status, resolution, requires_replay, replay_count,
	replay_history, date, stage, round_stage, next_match_id, bracket_slot,
	winner, goal_scorers, commentary, match_type, statistics, player_stats,
	created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	shootout, err := marshalJSONB(match.PenaltyShootout)
	if err != nil {
		return err
	}
	history, err := marshalJSONB(match.ReplayHistory)
	if err != nil {
		return err
	}
	scorers, err := marshalJSONB(match.GoalScorers)
	if err != nil {
		return err
	}
	commentary, err := marshalJSONB(match.Commentary)
	if err != nil {
		return err
	}
	stats, err := marshalJSONB(match.Statistics)
	if err != nil {
		return err
	}
	playerStats, err := marshalJSONB(match.PlayerStats)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches
			(id, home_team, away_team, home_score, away_score, penalty_shootout,
			 is_third_place, status, resolution, requires_replay, replay_count,
			 replay_history, date, stage, round_stage, next_match_id, bracket_slot,
			 winner, goal_scorers, commentary, match_type, statistics, player_stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        NULLIF($15, ''), NULLIF($16, ''), $17, NULLIF($18, ''), $19, $20, $21, $22, $23)
		RETURNING created_at`

	err = r.executor(exec).QueryRowContext(ctx, query,
		match.ID,
		match.HomeTeam,
		match.AwayTeam,
		match.HomeScore,
		match.AwayScore,
		shootout,
		match.IsThirdPlace,
		match.Status,
		match.Resolution,
		match.RequiresReplay,
		match.ReplayCount,
		history,
		match.Date,
		match.Stage,
		string(match.RoundStage),
		match.NextMatchID,
		match.BracketSlot,
		match.Winner,
		scorers,
		commentary,
		match.MatchType,
		stats,
		playerStats,
	).Scan(&match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.ID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByRoundStage(ctx context.Context, stage models.RoundStage) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE round_stage = $1 ORDER BY date ASC, bracket_slot ASC`
	return r.queryMatches(ctx, query, string(stage))
}

func (r *postgresMatchRepository) ListByNextMatch(ctx context.Context, nextMatchID string) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE next_match_id = $1 ORDER BY bracket_slot ASC`
	return r.queryMatches(ctx, query, nextMatchID)
}

func (r *postgresMatchRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Match, error) {
	if len(ids) == 0 {
		return []*models.Match{}, nil
	}
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = ANY($1) ORDER BY date ASC, bracket_slot ASC`
	return r.queryMatches(ctx, query, pq.Array(ids))
}

func (r *postgresMatchRepository) CountCompletedBracketMatches(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM matches
		WHERE round_stage IN ('quarter', 'semi', 'final') AND status = 'completed'`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed bracket matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, match *models.Match) error {
	shootout, err := marshalJSONB(match.PenaltyShootout)
	if err != nil {
		return err
	}
	history, err := marshalJSONB(match.ReplayHistory)
	if err != nil {
		return err
	}
	scorers, err := marshalJSONB(match.GoalScorers)
	if err != nil {
		return err
	}
	commentary, err := marshalJSONB(match.Commentary)
	if err != nil {
		return err
	}
	stats, err := marshalJSONB(match.Statistics)
	if err != nil {
		return err
	}
	playerStats, err := marshalJSONB(match.PlayerStats)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches SET
			home_score = $1, away_score = $2, status = $3, resolution = $4,
			requires_replay = $5, replay_count = $6, replay_history = $7,
			winner = NULLIF($8, ''), goal_scorers = $9, commentary = $10,
			penalty_shootout = $11, statistics = $12, player_stats = $13,
			match_type = $14
		WHERE id = $15`

	result, err := r.db.ExecContext(ctx, query,
		match.HomeScore,
		match.AwayScore,
		match.Status,
		match.Resolution,
		match.RequiresReplay,
		match.ReplayCount,
		history,
		match.Winner,
		scorers,
		commentary,
		shootout,
		stats,
		playerStats,
		match.MatchType,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update result for match %s: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) FillBracketSlot(ctx context.Context, id string, slot BracketSlot, team string) error {
	column := "home_team"
	if slot == SlotAway {
		column = "away_team"
	}
	// Conditional write: only the placeholder may be replaced. This is the
	// compare-and-set that keeps concurrent sibling advancements from
	// clobbering each other.
	query := fmt.Sprintf(`UPDATE matches SET %s = $1 WHERE id = $2 AND %s = $3`, column, column)
	result, err := r.db.ExecContext(ctx, query, team, id, models.PlaceholderTeam)
	if err != nil {
		return fmt.Errorf("failed to fill %s slot of match %s: %w", slot, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrSlotTaken
	}
	return nil
}

func (r *postgresMatchRepository) DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.executor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match rows iteration error: %w", err)
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		match       models.Match
		shootout    []byte
		history     []byte
		scorers     []byte
		commentary  []byte
		stats       []byte
		playerStats []byte
		stage       sql.NullString
		roundStage  sql.NullString
		nextMatchID sql.NullString
		winner      sql.NullString
	)

	err := row.Scan(
		&match.ID,
		&match.HomeTeam,
		&match.AwayTeam,
		&match.HomeScore,
		&match.AwayScore,
		&shootout,
		&match.IsThirdPlace,
		&match.Status,
		&match.Resolution,
		&match.RequiresReplay,
		&match.ReplayCount,
		&history,
		&match.Date,
		&stage,
		&roundStage,
		&nextMatchID,
		&match.BracketSlot,
		&winner,
		&scorers,
		&commentary,
		&match.MatchType,
		&stats,
		&playerStats,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	match.Stage = stage.String
	match.RoundStage = models.RoundStage(roundStage.String)
	match.NextMatchID = nextMatchID.String
	match.Winner = winner.String

	if err := unmarshalJSONB(shootout, &match.PenaltyShootout); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(history, &match.ReplayHistory); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(scorers, &match.GoalScorers); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(commentary, &match.Commentary); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(stats, &match.Statistics); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(playerStats, &match.PlayerStats); err != nil {
		return nil, err
	}
	return &match, nil
}
