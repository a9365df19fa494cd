package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Engine turns the ranking, roster and detail sources into one ranked roster.
// Every remote call is sequential; the sources pace themselves.
type Engine struct {
	sources   Sources
	cfg       Config
	countries *countryCache
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. Zero limits fall back to the defaults.
func NewEngine(sources Sources, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if cfg.BatchWidth <= 0 {
		cfg.BatchWidth = 10
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 150
	}
	if cfg.RankingType == "" {
		cfg.RankingType = "weeklyUserDamages"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		sources: sources,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.countries = newCountryCache(sources.Countries, time.Duration(cfg.CountryCacheSeconds)*time.Second, e.now)
	return e
}

// Countries returns the country catalogue, served from cache when fresh.
func (e *Engine) Countries(ctx context.Context) ([]CountryInfo, error) {
	countries, err := e.countries.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: country list: %w", ErrSourceUnavailable, err)
	}
	return countries, nil
}

// InvalidateCountries forces the next run to refetch the catalogue.
func (e *Engine) InvalidateCountries() {
	e.countries.Invalidate()
}

// FindCountry resolves a country by case-insensitive exact name.
func (e *Engine) FindCountry(ctx context.Context, name string) (CountryInfo, error) {
	countries, err := e.Countries(ctx)
	if err != nil {
		return CountryInfo{}, err
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range countries {
		if strings.ToLower(c.Name) == want {
			return c, nil
		}
	}
	return CountryInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Reconcile builds a snapshot for the named country.
//
// Only the country lookup and the first ranking page are fatal. Later ranking
// pages and every roster page stop their sequence on failure; a failed detail
// batch drops its players.
func (e *Engine) Reconcile(ctx context.Context, countryName string) (*Snapshot, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	log := e.logger.With(zap.String("run_id", runID), zap.String("country", countryName))

	country, err := e.FindCountry(ctx, countryName)
	if err != nil {
		return nil, err
	}
	if country.ID == "" {
		return nil, fmt.Errorf("%w: %s has no id", ErrNotFound, countryName)
	}
	log.Info("Resolved country", zap.String("country_id", country.ID))

	var stats Stats

	ranking, pages, err := e.drainRanking(ctx, log)
	if err != nil {
		return nil, err
	}
	stats.Ranked = ranking.len()
	stats.RankingPages = pages

	roster := e.drainRoster(ctx, log, country.ID)
	stats.RosterSize = len(roster)

	ids := ranking.intersect(roster)
	stats.Intersected = len(ids)
	log.Info("Intersected ranking with roster",
		zap.Int("ranked", stats.Ranked),
		zap.Int("roster", stats.RosterSize),
		zap.Int("intersected", stats.Intersected),
	)

	details := e.resolveDetails(ctx, log, ids, &stats)

	players, truncated := assemble(ids, ranking, details, country.ID, e.cfg.MaxPlayers)
	stats.Resolved = len(players) + truncated
	stats.Unresolved = stats.Intersected - stats.Resolved
	stats.Truncated = truncated
	if truncated > 0 {
		log.Info("Roster capped", zap.Int("max_players", e.cfg.MaxPlayers), zap.Int("dropped", truncated))
	}

	now := e.now()
	return &Snapshot{
		RunID:             runID,
		Country:           country,
		CountryID:         country.ID,
		WeeklyDamageTotal: country.WeeklyDamage,
		ActivePopulation:  country.ActivePopulation,
		Players:           players,
		CurrentWeekID:     CurrentWeekID(now),
		FetchedAt:         now,
		Stats:             stats,
	}, nil
}

func (e *Engine) drainRanking(ctx context.Context, log *zap.Logger) (*rankingIndex, int, error) {
	index := newRankingIndex()
	cursor := ""
	pages := 0
	seen := make(map[string]struct{})

	for {
		page, err := e.sources.Ranking.RankingPage(ctx, e.cfg.RankingType, cursor)
		if err != nil {
			if pages == 0 {
				return nil, 0, fmt.Errorf("%w: ranking: %w", ErrSourceUnavailable, err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, 0, err
			}
			log.Warn("Ranking page failed, keeping pages fetched so far", zap.Int("pages", pages), zap.Error(err))
			break
		}
		pages++
		if len(page.Items) == 0 {
			break
		}
		index.add(page.Items)
		log.Debug("Ranking page", zap.Int("page", pages), zap.Int("total", index.len()))

		if page.NextCursor == "" {
			break
		}
		if _, loop := seen[page.NextCursor]; loop {
			log.Warn("Ranking cursor repeated, stopping", zap.String("cursor", page.NextCursor))
			break
		}
		seen[page.NextCursor] = struct{}{}
		cursor = page.NextCursor
	}
	return index, pages, nil
}

func (e *Engine) drainRoster(ctx context.Context, log *zap.Logger, countryID string) map[string]struct{} {
	members := make(map[string]struct{})
	cursor := ""
	seen := make(map[string]struct{})

	for {
		page, err := e.sources.Roster.RosterPage(ctx, countryID, cursor)
		if err != nil {
			log.Warn("Roster page failed, keeping members fetched so far", zap.Int("members", len(members)), zap.Error(err))
			break
		}
		if len(page.UserIDs) == 0 {
			break
		}
		for _, id := range page.UserIDs {
			if id != "" {
				members[id] = struct{}{}
			}
		}
		if page.NextCursor == "" {
			break
		}
		if _, loop := seen[page.NextCursor]; loop {
			log.Warn("Roster cursor repeated, stopping", zap.String("cursor", page.NextCursor))
			break
		}
		seen[page.NextCursor] = struct{}{}
		cursor = page.NextCursor
	}
	return members
}

func (e *Engine) resolveDetails(ctx context.Context, log *zap.Logger, ids []string, stats *Stats) map[string]UserDetail {
	resolved := make(map[string]UserDetail, len(ids))
	for i, batch := range batchIDs(ids, e.cfg.BatchWidth) {
		stats.Batches++

		wanted := make(map[string]struct{}, len(batch))
		for _, id := range batch {
			wanted[id] = struct{}{}
		}

		details, err := e.sources.Details.UserDetails(ctx, batch)
		if err != nil {
			stats.FailedBatches++
			log.Warn("Detail batch failed", zap.Int("batch", i+1), zap.Int("size", len(batch)), zap.Error(err))
			continue
		}
		for _, d := range details {
			if _, ok := wanted[d.UserID]; ok {
				resolved[d.UserID] = d
			}
		}
	}
	return resolved
}
