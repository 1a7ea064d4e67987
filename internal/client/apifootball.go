package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"epl_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Client is the API-Football client. It performs exactly one request per
// call; failures are never retried here, they propagate to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new API-Football client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchStandingsRaw performs the GET to /standings and returns the raw
// response body after status validation. The API key travels in the
// x-apisports-key header per the upstream contract.
func (c *Client) FetchStandingsRaw(ctx context.Context, league, season int) ([]byte, error) {
	url := fmt.Sprintf("%s/standings", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	q.Set("league", strconv.Itoa(league))
	q.Set("season", strconv.Itoa(season))
	req.URL.RawQuery = q.Encode()

	log.Debug().
		Str("url", url).
		Int("league", league).
		Int("season", season).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, nil
}

// ParseStandings decodes a /standings body and validates the envelope:
// a non-empty response list whose first league entry carries a non-empty
// standings group. Returns the league block with context intact.
func (c *Client) ParseStandings(body []byte) (*models.LeagueBlock, error) {
	var parsed models.StandingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &SchemaError{Field: "response", Err: err}
	}

	if len(parsed.Response) == 0 {
		return nil, &SchemaError{Field: "response"}
	}

	league := parsed.Response[0].League
	if len(league.Standings) == 0 || len(league.Standings[0]) == 0 {
		return nil, &SchemaError{Field: "response[0].league.standings"}
	}

	return &league, nil
}

// FetchStandings fetches and parses standings for a league season
func (c *Client) FetchStandings(ctx context.Context, league, season int) (*models.LeagueBlock, error) {
	body, err := c.FetchStandingsRaw(ctx, league, season)
	if err != nil {
		return nil, err
	}
	return c.ParseStandings(body)
}
