package models

import "time"

// RosterPlayer is a player as presented to readers, battalion included.
type RosterPlayer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Level        int    `json:"level"`
	AvatarURL    string `json:"avatar_url"`
	WeeklyDamage int64  `json:"weekly_damage"`
	GlobalRank   int    `json:"global_rank"`
	CountryRank  int    `json:"country_rank"`
	Battalion    string `json:"battalion"`
}

// Totals are the country-wide figures reported by the API.
type Totals struct {
	WeeklyDamage     int64 `json:"weekly_damage"`
	ActivePopulation int64 `json:"active_population"`
	Players          int   `json:"players"`
}

// MergedView is a cached roster joined with its manual annotations.
//
// Assignments only holds players outside UNASSIGNED and is keyed by lowercased
// username. MedalHistory maps lowercased username to week id to medal type.
type MergedView struct {
	Country       Country                      `json:"country"`
	Players       []RosterPlayer               `json:"players"`
	Assignments   map[string]string            `json:"assignments"`
	MedalHistory  map[string]map[string]string `json:"medal_history"`
	Totals        Totals                       `json:"totals"`
	CurrentWeekID string                       `json:"current_week_id"`
	LastUpdated   time.Time                    `json:"last_updated"`
}

// BattalionStat aggregates the players of one battalion.
type BattalionStat struct {
	Battalion   string  `json:"battalion"`
	Soldiers    int64   `json:"soldiers"`
	TotalDamage int64   `json:"total_damage"`
	AvgDamage   float64 `json:"avg_damage"`
}

// DBInfo summarizes the cache database.
type DBInfo struct {
	Driver    string `json:"driver"`
	Location  string `json:"location"`
	Countries int64  `json:"countries"`
	Players   int64  `json:"players"`
	Medals    int64  `json:"medals"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}
