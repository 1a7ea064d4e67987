package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// StandingsResponse mirrors the API-Football /standings envelope.
// The interesting payload lives at response[0].league.standings[0].
type StandingsResponse struct {
	Response []LeagueEntry `json:"response"`
}

// LeagueEntry wraps a single league block in the response list
type LeagueEntry struct {
	League LeagueBlock `json:"league"`
}

// LeagueBlock holds the league context and the nested standings groups.
// Standings is a list of groups; league competitions have exactly one group.
type LeagueBlock struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Country   string           `json:"country"`
	Season    int              `json:"season"`
	Standings [][]TeamStanding `json:"standings"`
}

// TeamStanding is one team entry as returned by the API.
// Numeric fields are json.Number so the transformer owns integer casting;
// pointer fields distinguish "absent" from zero values.
type TeamStanding struct {
	Rank        *json.Number `json:"rank"`
	Team        *TeamInfo    `json:"team"`
	Points      *json.Number `json:"points"`
	GoalsDiff   *json.Number `json:"goalsDiff"`
	Form        *string      `json:"form"`
	Status      string       `json:"status"`
	Description *string      `json:"description"`
	All         *MatchStats  `json:"all"`
}

// TeamInfo identifies the club
type TeamInfo struct {
	ID   *json.Number `json:"id"`
	Name *string      `json:"name"`
	Logo string       `json:"logo"`
}

// MatchStats is the aggregate win/draw/loss block for a team
type MatchStats struct {
	Played *json.Number `json:"played"`
	Win    *json.Number `json:"win"`
	Draw   *json.Number `json:"draw"`
	Lose   *json.Number `json:"lose"`
	Goals  *GoalStats   `json:"goals"`
}

// GoalStats holds goals scored and conceded
type GoalStats struct {
	For     *json.Number `json:"for"`
	Against *json.Number `json:"against"`
}

// StandingRow is the flat, database-shaped view of one team's standing.
// Uniquely identified by (season, team_id); (season, position) is also unique.
type StandingRow struct {
	Season         int            `db:"season"`
	Position       int            `db:"position"`
	TeamID         int            `db:"team_id"`
	TeamName       string         `db:"team_name"`
	TeamLogo       sql.NullString `db:"team_logo"`
	Played         int            `db:"played"`
	Won            int            `db:"won"`
	Draw           int            `db:"draw"`
	Lose           int            `db:"lose"`
	GoalsFor       int            `db:"goals_for"`
	GoalsAgainst   int            `db:"goals_against"`
	GoalDifference int            `db:"goal_difference"`
	Points         int            `db:"points"`
	Form           sql.NullString `db:"form"`
	Description    string         `db:"description"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}
