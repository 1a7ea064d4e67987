package pipeline

import (
	"context"
	"fmt"
	"time"

	"epl_standings/ingestion/internal/cache"
	"epl_standings/ingestion/internal/config"
	"epl_standings/ingestion/internal/metrics"
	"epl_standings/ingestion/internal/models"
	"epl_standings/ingestion/internal/transform"

	"github.com/rs/zerolog/log"
)

// VerificationError indicates the post-load read-back count did not match
// the expected team count. The committed transaction stands; this is a
// warning-level failure for operator follow-up.
type VerificationError struct {
	Season   int
	Expected int
	Actual   int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("post-load verification failed for season %d: expected %d rows, found %d",
		e.Season, e.Expected, e.Actual)
}

// Extractor fetches and decodes standings payloads
type Extractor interface {
	FetchStandingsRaw(ctx context.Context, league, season int) ([]byte, error)
	ParseStandings(body []byte) (*models.LeagueBlock, error)
}

// Store persists standings rows
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertBatch(ctx context.Context, rows []models.StandingRow) error
	CountBySeason(ctx context.Context, season int) (int, error)
}

// PayloadCache caches raw API payloads between runs
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// Pipeline runs the standings ETL: one fetch, one transform pass, one
// database transaction. Each run is independent and stateless.
type Pipeline struct {
	cfg       *config.Config
	extractor Extractor
	store     Store
	cache     PayloadCache // nil disables caching
}

// New creates a pipeline. The cache may be nil.
func New(cfg *config.Config, extractor Extractor, store Store, payloadCache PayloadCache) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		store:     store,
		cache:     payloadCache,
	}
}

// Run executes one full extract-transform-load cycle.
// Extraction and transformation failures abort before any database write;
// load failures roll back atomically. A VerificationError is returned after
// a successful commit and does not undo it.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	log.Info().
		Int("league", p.cfg.LeagueID).
		Int("season", p.cfg.Season).
		Msg("Starting standings ETL run")

	// Extract
	league, err := p.extract(ctx)
	if err != nil {
		metrics.RecordError("extract", fmt.Sprintf("%T", err))
		metrics.RecordRun("error", time.Since(start).Seconds())
		return err
	}

	// Season comes from the response context; fall back to the configured
	// season only if the API omitted it
	season := league.Season
	if season == 0 {
		season = p.cfg.Season
	}

	// Transform
	rows, err := transform.Flatten(season, league.Standings[0], transform.Options{
		ExpectedTeams:      p.cfg.ExpectedTeamCount,
		DefaultDescription: p.cfg.DefaultDescription,
	})
	if err != nil {
		metrics.RecordError("transform", fmt.Sprintf("%T", err))
		metrics.RecordRun("error", time.Since(start).Seconds())
		return err
	}
	log.Info().Int("rows", len(rows)).Msg("Standings transformed")

	// Load
	if err := p.store.EnsureSchema(ctx); err != nil {
		metrics.RecordError("load", fmt.Sprintf("%T", err))
		metrics.RecordRun("error", time.Since(start).Seconds())
		return err
	}
	if err := p.store.UpsertBatch(ctx, rows); err != nil {
		metrics.RecordError("load", fmt.Sprintf("%T", err))
		metrics.RecordRun("error", time.Since(start).Seconds())
		return err
	}
	metrics.RowsLoaded.Set(float64(len(rows)))

	// Verify: read back the committed row count. A mismatch is reported
	// but never rolls back the committed batch.
	count, err := p.store.CountBySeason(ctx, season)
	if err != nil {
		log.Warn().Err(err).Msg("Post-load verification query failed")
		metrics.RecordError("verify", fmt.Sprintf("%T", err))
		metrics.RecordRun("error", time.Since(start).Seconds())
		return fmt.Errorf("post-load verification query failed: %w", err)
	}
	if count != p.cfg.ExpectedTeamCount {
		verr := &VerificationError{Season: season, Expected: p.cfg.ExpectedTeamCount, Actual: count}
		log.Warn().
			Int("season", season).
			Int("expected", verr.Expected).
			Int("actual", verr.Actual).
			Msg("Post-load verification mismatch")
		metrics.RecordError("verify", "VerificationError")
		metrics.RecordRun("verification_failed", time.Since(start).Seconds())
		return verr
	}

	metrics.RecordRun("success", time.Since(start).Seconds())
	log.Info().
		Int("season", season).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("ETL run completed successfully")

	return nil
}

// extract returns the parsed league block, consulting the payload cache
// first when one is configured. Cached payloads that fail to parse are
// discarded in favor of a fresh fetch.
func (p *Pipeline) extract(ctx context.Context) (*models.LeagueBlock, error) {
	key := cache.StandingsKey(p.cfg.LeagueID, p.cfg.Season)

	if p.cache != nil {
		cached, err := p.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Payload cache read failed, fetching directly")
		} else if cached != nil {
			if league, perr := p.extractor.ParseStandings(cached); perr == nil {
				metrics.RecordCacheHit()
				log.Debug().Str("key", key).Msg("Using cached standings payload")
				return league, nil
			}
			log.Warn().Str("key", key).Msg("Cached payload unparsable, fetching directly")
		}
		metrics.RecordCacheMiss()
	}

	fetchStart := time.Now()
	body, err := p.extractor.FetchStandingsRaw(ctx, p.cfg.LeagueID, p.cfg.Season)
	if err != nil {
		metrics.RecordAPICall("standings", "error", time.Since(fetchStart).Seconds())
		return nil, err
	}
	metrics.RecordAPICall("standings", "success", time.Since(fetchStart).Seconds())

	league, err := p.extractor.ParseStandings(body)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, body); err != nil {
			log.Warn().Err(err).Msg("Payload cache write failed")
		}
	}

	return league, nil
}
