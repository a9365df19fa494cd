package models

import (
	"strings"
	"time"
)

// Battalion labels. UNASSIGNED is the default for every new player.
const (
	BattalionUnassigned = "UNASSIGNED"
	BattalionCondor     = "CONDOR"
	BattalionYaguarete  = "YAGUARETE"
	BattalionCarpincho  = "CARPINCHO"
)

// Battalions lists the assignable battalions in report priority order.
var Battalions = []string{BattalionCondor, BattalionYaguarete, BattalionCarpincho}

// Medal types.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// MedalTypes lists the medal types from highest to lowest.
var MedalTypes = []string{MedalGold, MedalSilver, MedalBronze}

// NormalizeBattalion upper-cases b and reports whether it is a known label
// (including UNASSIGNED).
func NormalizeBattalion(b string) (string, bool) {
	b = strings.ToUpper(strings.TrimSpace(b))
	if b == BattalionUnassigned {
		return b, true
	}
	for _, known := range Battalions {
		if b == known {
			return b, true
		}
	}
	return b, false
}

// NormalizeMedal lower-cases m and reports whether it is a known medal type.
func NormalizeMedal(m string) (string, bool) {
	m = strings.ToLower(strings.TrimSpace(m))
	for _, known := range MedalTypes {
		if m == known {
			return m, true
		}
	}
	return m, false
}

// CountryKey is the storage key of a country: its lowercased name.
func CountryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Country is one cached country roster header.
type Country struct {
	ID               string    `gorm:"column:id;primaryKey;size:128" json:"id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	RemoteID         string    `gorm:"column:remote_id;size:64" json:"remote_id"`
	WeeklyDamage     int64     `gorm:"column:weekly_damage" json:"weekly_damage"`
	ActivePopulation int64     `gorm:"column:active_population" json:"active_population"`
	LastUpdated      time.Time `gorm:"column:last_updated" json:"last_updated"`
}

// TableName overrides the table name.
func (Country) TableName() string {
	return "countries"
}

// Player is one cached roster row. Battalion is owned by the operator and is
// never written by a refresh.
type Player struct {
	ID           string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Username     string    `gorm:"column:username;not null" json:"username"`
	Level        int       `gorm:"column:level" json:"level"`
	AvatarURL    string    `gorm:"column:avatar_url" json:"avatar_url"`
	CountryID    string    `gorm:"column:country_id;size:128;index:idx_players_country" json:"country_id"`
	WeeklyDamage int64     `gorm:"column:weekly_damage" json:"weekly_damage"`
	GlobalRank   int       `gorm:"column:global_rank" json:"global_rank"`
	CountryRank  int       `gorm:"column:country_rank" json:"country_rank"`
	Battalion    string    `gorm:"column:battalion;size:32;default:UNASSIGNED;index:idx_players_battalion" json:"battalion"`
	LastUpdated  time.Time `gorm:"column:last_updated" json:"last_updated"`
}

// TableName overrides the table name.
func (Player) TableName() string {
	return "players"
}

// Medal is a weekly award. There is at most one per player and week.
type Medal struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PlayerID       string    `gorm:"column:player_id;size:64;uniqueIndex:idx_medals_player_week;index:idx_medals_player" json:"player_id"`
	PlayerUsername string    `gorm:"column:player_username" json:"player_username"`
	MedalType      string    `gorm:"column:medal_type;size:16" json:"medal_type"`
	WeekIdentifier string    `gorm:"column:week_identifier;size:32;uniqueIndex:idx_medals_player_week;index:idx_medals_week" json:"week_identifier"`
	CountryID      string    `gorm:"column:country_id;size:128" json:"country_id"`
	AwardedAt      time.Time `gorm:"column:awarded_at" json:"awarded_at"`
}

// TableName overrides the table name.
func (Medal) TableName() string {
	return "medals"
}

// Token is the singleton API credential, stored under the name "default".
type Token struct {
	Name        string    `gorm:"column:name;primaryKey;size:32"`
	Token       string    `gorm:"column:token"`
	LastUpdated time.Time `gorm:"column:last_updated"`
}

// TableName overrides the table name.
func (Token) TableName() string {
	return "tokens"
}

// CatalogEntry is the last known copy of the remote country catalogue,
// served when the API is unreachable.
type CatalogEntry struct {
	ID               string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	WeeklyDamage     int64     `gorm:"column:weekly_damage" json:"weekly_damage"`
	WeeklyRank       int       `gorm:"column:weekly_rank" json:"weekly_rank"`
	ActivePopulation int64     `gorm:"column:active_population" json:"active_population"`
	PopulationRank   int       `gorm:"column:population_rank" json:"population_rank"`
	LastUpdated      time.Time `gorm:"column:last_updated" json:"last_updated"`
}

// TableName overrides the table name.
func (CatalogEntry) TableName() string {
	return "country_catalog"
}
