package repository

import (
	"database/sql"
	"fmt"
	"testing"

	"epl_standings/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Seasons used by these tests are far enough in the past to never collide
// with live data in a shared test database.

func testRow(season, position, teamID int) models.StandingRow {
	won := 20 - position
	draw := 10
	lose := 38 - won - draw
	goalsFor := 80 - position
	goalsAgainst := 30 + position

	return models.StandingRow{
		Season:         season,
		Position:       position,
		TeamID:         teamID,
		TeamName:       fmt.Sprintf("Test Club %02d", position),
		TeamLogo:       sql.NullString{String: fmt.Sprintf("https://example.com/%d.png", teamID), Valid: true},
		Played:         38,
		Won:            won,
		Draw:           draw,
		Lose:           lose,
		GoalsFor:       goalsFor,
		GoalsAgainst:   goalsAgainst,
		GoalDifference: goalsFor - goalsAgainst,
		Points:         3*won + draw,
		Form:           sql.NullString{String: "WWDLW", Valid: true},
		Description:    "Mid-table",
	}
}

func testSeason(season, teams int) []models.StandingRow {
	rows := make([]models.StandingRow, 0, teams)
	for pos := 1; pos <= teams; pos++ {
		rows = append(rows, testRow(season, pos, 1000+pos))
	}
	return rows
}

func TestStandingsRepository_EnsureSchemaIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Already created by setup; repeating must be safe
	require.NoError(t, db.Standings.EnsureSchema(ctx), "First call should succeed")
	require.NoError(t, db.Standings.EnsureSchema(ctx), "Repeated call should succeed")
}

func TestStandingsRepository_UpsertBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1901
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	rows := testSeason(season, 20)
	err := db.Standings.UpsertBatch(ctx, rows)
	require.NoError(t, err, "Should load a full season")

	count, err := db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "Should have exactly 20 rows for the season")

	// Positions must cover 1..20 with no duplicates
	listed, err := db.Standings.ListBySeason(ctx, season)
	require.NoError(t, err)
	require.Len(t, listed, 20)
	for i, row := range listed {
		assert.Equal(t, i+1, row.Position, "Rows should list in position order with no gaps")
	}
}

func TestStandingsRepository_UpsertIdempotence(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1902
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	rows := testSeason(season, 20)
	require.NoError(t, db.Standings.UpsertBatch(ctx, rows), "First load should succeed")
	require.NoError(t, db.Standings.UpsertBatch(ctx, rows), "Identical reload should succeed")

	count, err := db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "Reload must not create duplicates")

	first, err := db.Standings.GetBySeasonTeam(ctx, season, rows[0].TeamID)
	require.NoError(t, err)
	assert.Equal(t, rows[0].Points, first.Points, "Column values should be unchanged")
}

func TestStandingsRepository_UpsertOverwritesMutableColumns(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1903
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	rows := testSeason(season, 20)
	require.NoError(t, db.Standings.UpsertBatch(ctx, rows))

	// Swap the top two teams and bump stats, as a later matchday would
	rows[0].Position = 2
	rows[1].Position = 1
	rows[1].Points += 3
	rows[1].Form = sql.NullString{String: "WWWWW", Valid: true}
	rows[1].Description = "Champions League"

	require.NoError(t, db.Standings.UpsertBatch(ctx, rows), "Updated batch should load")

	updated, err := db.Standings.GetBySeasonTeam(ctx, season, rows[1].TeamID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Position, "Position should be overwritten")
	assert.Equal(t, rows[1].Points, updated.Points, "Points should be overwritten")
	assert.Equal(t, "WWWWW", updated.Form.String, "Form should be overwritten")
	assert.Equal(t, "Champions League", updated.Description, "Description should be overwritten")

	count, err := db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "Upsert must not duplicate rows")
}

func TestStandingsRepository_RoundTrip(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1904
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	row := testRow(season, 1, 2001)
	require.NoError(t, db.Standings.UpsertBatch(ctx, []models.StandingRow{row}))

	got, err := db.Standings.GetBySeasonTeam(ctx, season, row.TeamID)
	require.NoError(t, err, "Loaded row should read back")

	assert.Equal(t, row.Position, got.Position)
	assert.Equal(t, row.TeamName, got.TeamName)
	assert.Equal(t, row.Played, got.Played)
	assert.Equal(t, row.Won, got.Won)
	assert.Equal(t, row.Draw, got.Draw)
	assert.Equal(t, row.Lose, got.Lose)
	assert.Equal(t, row.GoalsFor, got.GoalsFor)
	assert.Equal(t, row.GoalsAgainst, got.GoalsAgainst)
	assert.Equal(t, row.GoalDifference, got.GoalDifference)
	assert.Equal(t, row.Points, got.Points)
	assert.Equal(t, row.Form, got.Form)
	assert.Equal(t, row.Description, got.Description)
}

func TestStandingsRepository_BatchAtomicity(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1905
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	// Row 15 claims the same position as row 3, violating UNIQUE (season, position)
	rows := testSeason(season, 20)
	rows[14].Position = rows[2].Position

	err := db.Standings.UpsertBatch(ctx, rows)
	require.Error(t, err, "Duplicate position must fail the batch")

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr, "Constraint violations surface as LoadError")

	count, err := db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "No partial load: database state must be unchanged")
}

func TestStandingsRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Standings.GetBySeasonTeam(ctx, 1900, 99999)
	assert.Error(t, err, "Should return error for non-existent row")
}

func TestStandingsRepository_PruneStaleRows(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	const season = 1906
	require.NoError(t, db.Standings.DeleteBySeason(ctx, season))

	// First load includes a team that later vanishes from the standings
	first := testSeason(season, 20)
	require.NoError(t, db.Standings.UpsertBatch(ctx, first))

	// Second response replaces the team at position 20 with a new club
	second := testSeason(season, 20)
	second[19].TeamID = 3001
	second[19].TeamName = "Promoted FC"

	// Without pruning the stale row keeps position 20, so the batch
	// violates UNIQUE (season, position) at commit and rolls back whole
	err := db.Standings.UpsertBatch(ctx, second)
	require.Error(t, err, "Stale row should collide when pruning is disabled")
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)

	count, err := db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "Failed batch must leave the first load intact")

	// With pruning enabled the stale row is deleted in the same
	// transaction, so the batch commits cleanly
	pruning := &StandingsRepository{db: db, pruneStale: true}
	require.NoError(t, pruning.UpsertBatch(ctx, second))
	count, err = db.Standings.CountBySeason(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "Pruning removes season rows absent from the batch")

	_, err = db.Standings.GetBySeasonTeam(ctx, season, first[19].TeamID)
	assert.Error(t, err, "The vanished team's row should be gone")
}
