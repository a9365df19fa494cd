package reconcile

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the country name matches no known country.
	ErrNotFound = errors.New("country not found")
	// ErrSourceUnavailable is returned when a required remote call fails.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInProgress is returned when a reconciliation for the same country is already running.
	ErrInProgress = errors.New("reconciliation already in progress")
)

// Config holds the reconciliation limits.
type Config struct {
	// BatchWidth is the number of user ids resolved per detail request.
	BatchWidth int `mapstructure:"batch_width" default:"10"`
	// MaxPlayers caps the final roster size. Zero or less means 150.
	MaxPlayers int `mapstructure:"max_players" default:"150"`
	// RankingType is the leaderboard drained from the ranking source.
	RankingType string `mapstructure:"ranking_type" default:"weeklyUserDamages"`
	// CountryCacheSeconds is how long the country catalogue is reused between runs.
	CountryCacheSeconds int `mapstructure:"country_cache_seconds" default:"300"`
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	UserID string
	Damage int64
	Rank   int
}

// RankingPage is one page of the leaderboard. An empty NextCursor ends the sequence.
type RankingPage struct {
	Items      []RankingEntry
	NextCursor string
}

// RosterPage is one page of country membership.
type RosterPage struct {
	UserIDs    []string
	NextCursor string
}

// UserDetail is a resolved user record.
type UserDetail struct {
	UserID    string
	Username  string
	Level     int
	AvatarURL string
}

// CountryInfo describes one country of the catalogue.
type CountryInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	WeeklyDamage     int64  `json:"weekly_damage"`
	WeeklyRank       int    `json:"weekly_rank"`
	ActivePopulation int64  `json:"active_population"`
	PopulationRank   int    `json:"population_rank"`
}

// Player is a reconciled roster row.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Level        int    `json:"level"`
	AvatarURL    string `json:"avatar_url"`
	CountryID    string `json:"country_id"`
	WeeklyDamage int64  `json:"weekly_damage"`
	GlobalRank   int    `json:"global_rank"`
	CountryRank  int    `json:"country_rank"`
}

// Stats counts what happened during one run.
type Stats struct {
	Ranked        int `json:"ranked"`
	RankingPages  int `json:"ranking_pages"`
	RosterSize    int `json:"roster_size"`
	Intersected   int `json:"intersected"`
	Resolved      int `json:"resolved"`
	Unresolved    int `json:"unresolved"`
	Truncated     int `json:"truncated"`
	Batches       int `json:"batches"`
	FailedBatches int `json:"failed_batches"`
}

// Snapshot is the immutable result of one reconciliation run.
type Snapshot struct {
	RunID             string      `json:"run_id"`
	Country           CountryInfo `json:"country"`
	CountryID         string      `json:"country_id"`
	WeeklyDamageTotal int64       `json:"weekly_damage_total"`
	ActivePopulation  int64       `json:"active_population"`
	Players           []Player    `json:"players"`
	CurrentWeekID     string      `json:"current_week_id"`
	FetchedAt         time.Time   `json:"fetched_at"`
	Stats             Stats       `json:"stats"`
}
