package transform

import (
	"database/sql"
	"encoding/json"

	"epl_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Options controls validation and defaulting during flattening
type Options struct {
	// ExpectedTeams is the number of teams the competition must have
	ExpectedTeams int

	// DefaultDescription fills a missing/null description field
	DefaultDescription string
}

// Flatten converts the nested standings list into one StandingRow per team.
// The season comes from the response context, never from team entries.
//
// Validation order: row count, per-team required fields and integer casts,
// derived-field consistency, then position coverage of {1..N}. Any failure
// aborts with a typed error; values are never corrected silently.
func Flatten(season int, standings []models.TeamStanding, opts Options) ([]models.StandingRow, error) {
	if len(standings) != opts.ExpectedTeams {
		return nil, &RowCountError{Expected: opts.ExpectedTeams, Actual: len(standings)}
	}

	rows := make([]models.StandingRow, 0, len(standings))
	seenPositions := make(map[int]string, len(standings))

	for _, entry := range standings {
		row, err := flattenTeam(season, entry, opts)
		if err != nil {
			return nil, err
		}

		if _, ok := seenPositions[row.Position]; ok {
			return nil, &ConsistencyError{
				Field: "position",
				Team:  row.TeamName,
				Want:  row.Position,
				Got:   row.Position,
			}
		}
		seenPositions[row.Position] = row.TeamName

		rows = append(rows, row)
	}

	// Positions must cover exactly 1..N with no gaps
	for pos := 1; pos <= opts.ExpectedTeams; pos++ {
		if _, ok := seenPositions[pos]; !ok {
			return nil, &ConsistencyError{Field: "position", Team: "", Want: pos, Got: 0}
		}
	}

	log.Debug().
		Int("season", season).
		Int("rows", len(rows)).
		Msg("Standings flattened")

	return rows, nil
}

// flattenTeam extracts and validates a single team entry
func flattenTeam(season int, entry models.TeamStanding, opts Options) (models.StandingRow, error) {
	var row models.StandingRow

	if entry.Team == nil {
		return row, &MissingFieldError{Field: "team", Team: "<unknown>"}
	}
	if entry.Team.Name == nil || *entry.Team.Name == "" {
		return row, &MissingFieldError{Field: "team.name", Team: "<unknown>"}
	}
	teamName := *entry.Team.Name

	teamID, err := intField(entry.Team.ID, "team.id", teamName)
	if err != nil {
		return row, err
	}
	position, err := intField(entry.Rank, "rank", teamName)
	if err != nil {
		return row, err
	}
	points, err := intField(entry.Points, "points", teamName)
	if err != nil {
		return row, err
	}
	goalDiff, err := intField(entry.GoalsDiff, "goalsDiff", teamName)
	if err != nil {
		return row, err
	}

	if entry.All == nil {
		return row, &MissingFieldError{Field: "all", Team: teamName}
	}
	played, err := intField(entry.All.Played, "all.played", teamName)
	if err != nil {
		return row, err
	}
	won, err := intField(entry.All.Win, "all.win", teamName)
	if err != nil {
		return row, err
	}
	draw, err := intField(entry.All.Draw, "all.draw", teamName)
	if err != nil {
		return row, err
	}
	lose, err := intField(entry.All.Lose, "all.lose", teamName)
	if err != nil {
		return row, err
	}

	if entry.All.Goals == nil {
		return row, &MissingFieldError{Field: "all.goals", Team: teamName}
	}
	goalsFor, err := intField(entry.All.Goals.For, "all.goals.for", teamName)
	if err != nil {
		return row, err
	}
	goalsAgainst, err := intField(entry.All.Goals.Against, "all.goals.against", teamName)
	if err != nil {
		return row, err
	}

	// Derived fields are validated, not recomputed
	if goalDiff != goalsFor-goalsAgainst {
		return row, &ConsistencyError{
			Field: "goal_difference",
			Team:  teamName,
			Want:  goalsFor - goalsAgainst,
			Got:   goalDiff,
		}
	}
	if played != won+draw+lose {
		return row, &ConsistencyError{
			Field: "played",
			Team:  teamName,
			Want:  won + draw + lose,
			Got:   played,
		}
	}

	row = models.StandingRow{
		Season:         season,
		Position:       position,
		TeamID:         teamID,
		TeamName:       teamName,
		Played:         played,
		Won:            won,
		Draw:           draw,
		Lose:           lose,
		GoalsFor:       goalsFor,
		GoalsAgainst:   goalsAgainst,
		GoalDifference: goalDiff,
		Points:         points,
		Description:    opts.DefaultDescription,
	}

	if entry.Team.Logo != "" {
		row.TeamLogo = sql.NullString{String: entry.Team.Logo, Valid: true}
	}
	if entry.Form != nil && *entry.Form != "" {
		row.Form = sql.NullString{String: *entry.Form, Valid: true}
	}
	if entry.Description != nil && *entry.Description != "" {
		row.Description = *entry.Description
	}

	return row, nil
}

// intField casts a JSON number to int, distinguishing missing values from
// malformed ones
func intField(n *json.Number, field, team string) (int, error) {
	if n == nil {
		return 0, &MissingFieldError{Field: field, Team: team}
	}
	v, err := n.Int64()
	if err != nil {
		return 0, &FieldTypeError{Field: field, Team: team, Value: n.String()}
	}
	return int(v), nil
}
