package repository

import (
	"context"
	"fmt"
	"time"

	"epl_standings/ingestion/internal/metrics"
	"epl_standings/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// LoadError indicates persistence failed and the batch was rolled back
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load standings: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StandingsRepository handles standings database operations
type StandingsRepository struct {
	db         *Database
	pruneStale bool
}

// Position uniqueness is checked at commit: a batch that swaps two teams'
// positions would otherwise collide mid-transaction even though the final
// state is valid.
const createStandingsTable = `
	CREATE TABLE IF NOT EXISTS standings (
		season          INT NOT NULL,
		team_id         INT NOT NULL,
		position        INT NOT NULL,
		team_name       VARCHAR(100) NOT NULL,
		team_logo       VARCHAR(200),
		played          INT NOT NULL,
		won             INT NOT NULL,
		draw            INT NOT NULL,
		lose            INT NOT NULL,
		goals_for       INT NOT NULL,
		goals_against   INT NOT NULL,
		goal_difference INT NOT NULL,
		points          INT NOT NULL,
		form            VARCHAR(10),
		description     VARCHAR(100) NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (season, team_id),
		CONSTRAINT uix_season_position UNIQUE (season, position)
			DEFERRABLE INITIALLY DEFERRED
	)
`

// EnsureSchema creates the standings table if it does not exist.
// Safe to invoke on every run.
func (r *StandingsRepository) EnsureSchema(ctx context.Context) error {
	start := time.Now()

	if _, err := r.db.Pool.Exec(ctx, createStandingsTable); err != nil {
		metrics.RecordDBQuery("create", "standings", "error", time.Since(start).Seconds())
		return &LoadError{Err: fmt.Errorf("failed to ensure standings table: %w", err)}
	}

	metrics.RecordDBQuery("create", "standings", "success", time.Since(start).Seconds())
	log.Debug().Msg("Standings table created/verified")
	return nil
}

const upsertStanding = `
	INSERT INTO standings (
		season, team_id, position, team_name, team_logo,
		played, won, draw, lose, goals_for, goals_against,
		goal_difference, points, form, description
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (season, team_id) DO UPDATE SET
		position = EXCLUDED.position,
		team_name = EXCLUDED.team_name,
		team_logo = EXCLUDED.team_logo,
		played = EXCLUDED.played,
		won = EXCLUDED.won,
		draw = EXCLUDED.draw,
		lose = EXCLUDED.lose,
		goals_for = EXCLUDED.goals_for,
		goals_against = EXCLUDED.goals_against,
		goal_difference = EXCLUDED.goal_difference,
		points = EXCLUDED.points,
		form = EXCLUDED.form,
		description = EXCLUDED.description,
		updated_at = NOW()
`

// UpsertBatch persists all rows in a single transaction. Any failure rolls
// the whole batch back; re-running with identical input is a no-op state-wise.
// With pruning enabled, rows for the same seasons that are absent from the
// batch are deleted inside the same transaction.
func (r *StandingsRepository) UpsertBatch(ctx context.Context, rows []models.StandingRow) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return &LoadError{Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		_, err := tx.Exec(
			ctx, upsertStanding,
			row.Season, row.TeamID, row.Position, row.TeamName, row.TeamLogo,
			row.Played, row.Won, row.Draw, row.Lose, row.GoalsFor, row.GoalsAgainst,
			row.GoalDifference, row.Points, row.Form, row.Description,
		)
		if err != nil {
			metrics.RecordDBQuery("upsert", "standings", "error", time.Since(start).Seconds())
			return &LoadError{Err: fmt.Errorf("failed to upsert standing (season=%d, team_id=%d): %w",
				row.Season, row.TeamID, err)}
		}
	}

	if r.pruneStale {
		season := rows[0].Season
		teamIDs := make([]int, 0, len(rows))
		for _, row := range rows {
			teamIDs = append(teamIDs, row.TeamID)
		}

		result, err := tx.Exec(ctx,
			`DELETE FROM standings WHERE season = $1 AND NOT (team_id = ANY($2))`,
			season, teamIDs,
		)
		if err != nil {
			metrics.RecordDBQuery("delete", "standings", "error", time.Since(start).Seconds())
			return &LoadError{Err: fmt.Errorf("failed to prune stale standings: %w", err)}
		}
		if pruned := result.RowsAffected(); pruned > 0 {
			log.Info().
				Int("season", season).
				Int64("pruned", pruned).
				Msg("Stale standings rows pruned")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDBQuery("upsert", "standings", "error", time.Since(start).Seconds())
		return &LoadError{Err: fmt.Errorf("failed to commit transaction: %w", err)}
	}

	metrics.RecordDBQuery("upsert", "standings", "success", time.Since(start).Seconds())
	log.Info().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Standings batch upserted")

	return nil
}

const selectStanding = `
	SELECT season, team_id, position, team_name, team_logo,
	       played, won, draw, lose, goals_for, goals_against,
	       goal_difference, points, form, description, created_at, updated_at
	FROM standings
`

// GetBySeasonTeam retrieves a single standing row by its composite key
func (r *StandingsRepository) GetBySeasonTeam(ctx context.Context, season, teamID int) (*models.StandingRow, error) {
	query := selectStanding + ` WHERE season = $1 AND team_id = $2`

	var row models.StandingRow
	err := r.db.Pool.QueryRow(ctx, query, season, teamID).Scan(
		&row.Season, &row.TeamID, &row.Position, &row.TeamName, &row.TeamLogo,
		&row.Played, &row.Won, &row.Draw, &row.Lose, &row.GoalsFor, &row.GoalsAgainst,
		&row.GoalDifference, &row.Points, &row.Form, &row.Description,
		&row.CreatedAt, &row.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("standing not found: season=%d team_id=%d", season, teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get standing: %w", err)
	}

	return &row, nil
}

// ListBySeason retrieves all standings for a season ordered by position
func (r *StandingsRepository) ListBySeason(ctx context.Context, season int) ([]*models.StandingRow, error) {
	query := selectStanding + ` WHERE season = $1 ORDER BY position`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	var standings []*models.StandingRow
	for rows.Next() {
		var row models.StandingRow
		err := rows.Scan(
			&row.Season, &row.TeamID, &row.Position, &row.TeamName, &row.TeamLogo,
			&row.Played, &row.Won, &row.Draw, &row.Lose, &row.GoalsFor, &row.GoalsAgainst,
			&row.GoalDifference, &row.Points, &row.Form, &row.Description,
			&row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}

	return standings, nil
}

// CountBySeason returns the number of standings rows for a season
func (r *StandingsRepository) CountBySeason(ctx context.Context, season int) (int, error) {
	query := `SELECT COUNT(*) FROM standings WHERE season = $1`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, season).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count standings: %w", err)
	}

	return count, nil
}

// DeleteBySeason removes all rows for a season. Used by tests and
// operator tooling, never by the pipeline itself.
func (r *StandingsRepository) DeleteBySeason(ctx context.Context, season int) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM standings WHERE season = $1`, season)
	if err != nil {
		return fmt.Errorf("failed to delete standings: %w", err)
	}

	log.Debug().
		Int("season", season).
		Int64("deleted", result.RowsAffected()).
		Msg("Season standings deleted")
	return nil
}
