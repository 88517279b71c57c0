package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/knockout-live/models"
	"github.com/lib/pq"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	GetByCountry(ctx context.Context, country string) (*models.Team, error)
	ListByCountries(ctx context.Context, countries []string) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `
	id, federation, country, manager, rating, players, is_active,
	deactivated_at, created_at`

func (r *postgresTeamRepository) GetByCountry(ctx context.Context, country string) (*models.Team, error) {
	query := `SELECT` + teamColumns + ` FROM teams WHERE country = $1 AND is_active = TRUE`
	team, err := scanTeam(r.db.QueryRowContext(ctx, query, country))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %s: %w", country, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByCountries(ctx context.Context, countries []string) ([]*models.Team, error) {
	if len(countries) == 0 {
		return []*models.Team{}, nil
	}
	query := `SELECT` + teamColumns + ` FROM teams WHERE country = ANY($1) AND is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(countries))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0, len(countries))
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("team rows iteration error: %w", err)
	}
	return teams, nil
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var (
		team    models.Team
		players []byte
	)
	err := row.Scan(
		&team.ID,
		&team.Federation,
		&team.Country,
		&team.Manager,
		&team.Rating,
		&players,
		&team.IsActive,
		&team.DeactivatedAt,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(players, &team.Players); err != nil {
		return nil, err
	}
	return &team, nil
}
