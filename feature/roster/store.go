package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/database"
	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refreshedColumns are the player columns a refresh may overwrite.
// battalion is deliberately absent.
var refreshedColumns = []string{
	"username", "level", "avatar_url", "country_id",
	"weekly_damage", "global_rank", "country_rank", "last_updated",
}

// Store is the roster cache. Each country, player and medal write is its own
// statement; a refresh interrupted halfway leaves the rows written so far.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates the cache schema and verifies the columns the
// merge relies on.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&models.Country{}, &models.Player{}, &models.Medal{}, &models.Token{}, &models.CatalogEntry{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	missing, err := database.MissingColumns(db, models.Player{}.TableName(), []string{"id", "username", "country_id", "battalion"})
	if err != nil {
		return fmt.Errorf("inspect players: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("players table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// UpsertRoster writes a snapshot under countryName. The country row is
// replaced; players are inserted or have their refreshed columns updated.
// Players missing from the snapshot are kept.
func (s *Store) UpsertRoster(ctx context.Context, countryName string, snap *reconcile.Snapshot) error {
	key := models.CountryKey(countryName)
	db := s.db.WithContext(ctx)
	now := s.now()

	name := snap.Country.Name
	if name == "" {
		name = countryName
	}
	country := models.Country{
		ID:               key,
		Name:             name,
		RemoteID:         snap.CountryID,
		WeeklyDamage:     snap.WeeklyDamageTotal,
		ActivePopulation: snap.ActivePopulation,
		LastUpdated:      now,
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&country).Error; err != nil {
		return fmt.Errorf("save country %s: %w", key, err)
	}

	for _, p := range snap.Players {
		player := models.Player{
			ID:           p.ID,
			Username:     p.Name,
			Level:        p.Level,
			AvatarURL:    p.AvatarURL,
			CountryID:    key,
			WeeklyDamage: p.WeeklyDamage,
			GlobalRank:   p.GlobalRank,
			CountryRank:  p.CountryRank,
			Battalion:    models.BattalionUnassigned,
			LastUpdated:  now,
		}
		if err := s.upsertPlayer(db, &player); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertPlayer(db *gorm.DB, player *models.Player) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(refreshedColumns),
	}).Create(player).Error
	if err != nil {
		return fmt.Errorf("save player %s: %w", player.ID, err)
	}
	return nil
}

// LoadRoster returns the cached roster of countryName joined with its
// battalion assignments and medal history, sorted by weekly damage.
func (s *Store) LoadRoster(ctx context.Context, countryName string) (*models.MergedView, error) {
	key := models.CountryKey(countryName)
	db := s.db.WithContext(ctx)

	var country models.Country
	if err := db.Where("id = ?", key).Take(&country).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, countryName)
		}
		return nil, fmt.Errorf("load country %s: %w", key, err)
	}

	var players []models.Player
	if err := db.Where("country_id = ?", key).Order("weekly_damage DESC").Order("country_rank ASC").Order("id ASC").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("load players %s: %w", key, err)
	}

	var medals []models.Medal
	if err := db.Where("country_id = ?", key).Find(&medals).Error; err != nil {
		return nil, fmt.Errorf("load medals %s: %w", key, err)
	}

	view := &models.MergedView{
		Country:       country,
		Players:       make([]models.RosterPlayer, 0, len(players)),
		Assignments:   make(map[string]string),
		MedalHistory:  make(map[string]map[string]string),
		CurrentWeekID: reconcile.CurrentWeekID(s.now()),
		LastUpdated:   country.LastUpdated,
		Totals: models.Totals{
			WeeklyDamage:     country.WeeklyDamage,
			ActivePopulation: country.ActivePopulation,
			Players:          len(players),
		},
	}

	for _, p := range players {
		battalion := p.Battalion
		if battalion == "" {
			battalion = models.BattalionUnassigned
		}
		view.Players = append(view.Players, models.RosterPlayer{
			ID:           p.ID,
			Name:         p.Username,
			Level:        p.Level,
			AvatarURL:    p.AvatarURL,
			WeeklyDamage: p.WeeklyDamage,
			GlobalRank:   p.GlobalRank,
			CountryRank:  p.CountryRank,
			Battalion:    battalion,
		})
		if battalion != models.BattalionUnassigned {
			view.Assignments[strings.ToLower(p.Username)] = battalion
		}
	}

	for _, m := range medals {
		user := strings.ToLower(m.PlayerUsername)
		if view.MedalHistory[user] == nil {
			view.MedalHistory[user] = make(map[string]string)
		}
		view.MedalHistory[user][m.WeekIdentifier] = m.MedalType
	}

	return view, nil
}

// AssignBattalion sets battalion on every cached player of countryName whose
// username matches case-insensitively. Unknown usernames are skipped; the
// number of updated players is returned.
func (s *Store) AssignBattalion(ctx context.Context, countryName string, usernames []string, battalion string) (int, error) {
	battalion, ok := models.NormalizeBattalion(battalion)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidBattalion, battalion)
	}
	key := models.CountryKey(countryName)
	db := s.db.WithContext(ctx)

	assigned := 0
	for _, username := range usernames {
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			continue
		}
		res := db.Model(&models.Player{}).
			Where("country_id = ? AND LOWER(username) = ?", key, username).
			Updates(map[string]any{"battalion": battalion, "last_updated": s.now()})
		if res.Error != nil {
			return assigned, fmt.Errorf("assign %s: %w", username, res.Error)
		}
		assigned += int(res.RowsAffected)
	}
	return assigned, nil
}

// AwardMedal records medalType for username in weekID, replacing any medal
// the player already has for that week. It returns false when the username
// matches no cached player.
func (s *Store) AwardMedal(ctx context.Context, countryName, username, medalType, weekID string) (bool, error) {
	medalType, ok := models.NormalizeMedal(medalType)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrInvalidMedal, medalType)
	}
	key := models.CountryKey(countryName)
	db := s.db.WithContext(ctx)

	var player models.Player
	err := db.Where("country_id = ? AND LOWER(username) = ?", key, strings.ToLower(strings.TrimSpace(username))).Take(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find player %s: %w", username, err)
	}

	medal := models.Medal{
		PlayerID:       player.ID,
		PlayerUsername: player.Username,
		MedalType:      medalType,
		WeekIdentifier: weekID,
		CountryID:      key,
		AwardedAt:      s.now(),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "week_identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"medal_type", "player_username", "country_id", "awarded_at"}),
	}).Create(&medal).Error
	if err != nil {
		return false, fmt.Errorf("award medal to %s: %w", username, err)
	}
	return true, nil
}

// PlayerMedals returns week id to medal type for one player.
func (s *Store) PlayerMedals(ctx context.Context, countryName, username string) (map[string]string, error) {
	var medals []models.Medal
	err := s.db.WithContext(ctx).
		Where("country_id = ? AND LOWER(player_username) = ?", models.CountryKey(countryName), strings.ToLower(strings.TrimSpace(username))).
		Order("week_identifier").
		Find(&medals).Error
	if err != nil {
		return nil, fmt.Errorf("load medals for %s: %w", username, err)
	}

	out := make(map[string]string, len(medals))
	for _, m := range medals {
		out[m.WeekIdentifier] = m.MedalType
	}
	return out, nil
}

// BattalionStats aggregates cached players per battalion, highest total damage first.
func (s *Store) BattalionStats(ctx context.Context, countryName string) ([]models.BattalionStat, error) {
	var stats []models.BattalionStat
	err := s.db.WithContext(ctx).Model(&models.Player{}).
		Select("battalion, COUNT(*) AS soldiers, COALESCE(SUM(weekly_damage), 0) AS total_damage, COALESCE(AVG(weekly_damage), 0) AS avg_damage").
		Where("country_id = ?", models.CountryKey(countryName)).
		Group("battalion").
		Order("total_damage DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("battalion stats: %w", err)
	}
	for i := range stats {
		if stats[i].Battalion == "" {
			stats[i].Battalion = models.BattalionUnassigned
		}
	}
	return stats, nil
}

// SaveCountries replaces the stored copy of the country catalogue.
func (s *Store) SaveCountries(ctx context.Context, countries []reconcile.CountryInfo) error {
	if len(countries) == 0 {
		return nil
	}
	now := s.now()
	entries := make([]models.CatalogEntry, 0, len(countries))
	for _, c := range countries {
		if c.ID == "" {
			continue
		}
		entries = append(entries, models.CatalogEntry{
			ID:               c.ID,
			Name:             c.Name,
			WeeklyDamage:     c.WeeklyDamage,
			WeeklyRank:       c.WeeklyRank,
			ActivePopulation: c.ActivePopulation,
			PopulationRank:   c.PopulationRank,
			LastUpdated:      now,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(entries, 100).Error
	if err != nil {
		return fmt.Errorf("save country catalogue: %w", err)
	}
	return nil
}

// Countries returns the stored country catalogue sorted by name.
func (s *Store) Countries(ctx context.Context) ([]reconcile.CountryInfo, error) {
	var entries []models.CatalogEntry
	if err := s.db.WithContext(ctx).Order("name").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load country catalogue: %w", err)
	}
	out := make([]reconcile.CountryInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, reconcile.CountryInfo{
			ID:               e.ID,
			Name:             e.Name,
			WeeklyDamage:     e.WeeklyDamage,
			WeeklyRank:       e.WeeklyRank,
			ActivePopulation: e.ActivePopulation,
			PopulationRank:   e.PopulationRank,
		})
	}
	return out, nil
}

// CachedCountries returns the countries that have a cached roster.
func (s *Store) CachedCountries(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	if err := s.db.WithContext(ctx).Order("id").Find(&countries).Error; err != nil {
		return nil, fmt.Errorf("load cached countries: %w", err)
	}
	return countries, nil
}

// ClearCountry deletes the medals, players and country row of countryName.
func (s *Store) ClearCountry(ctx context.Context, countryName string) error {
	key := models.CountryKey(countryName)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("country_id = ?", key).Delete(&models.Medal{}).Error; err != nil {
			return fmt.Errorf("clear medals: %w", err)
		}
		if err := tx.Where("country_id = ?", key).Delete(&models.Player{}).Error; err != nil {
			return fmt.Errorf("clear players: %w", err)
		}
		if err := tx.Where("id = ?", key).Delete(&models.Country{}).Error; err != nil {
			return fmt.Errorf("clear country: %w", err)
		}
		return nil
	})
}

const defaultTokenName = "default"

// SetToken stores the API credential.
func (s *Store) SetToken(ctx context.Context, token string) error {
	row := models.Token{Name: defaultTokenName, Token: strings.TrimSpace(token), LastUpdated: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "last_updated"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns the stored API credential, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	var row models.Token
	err := s.db.WithContext(ctx).Where("name = ?", defaultTokenName).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return row.Token, nil
}

// Info counts the cached rows.
func (s *Store) Info(ctx context.Context) (*models.DBInfo, error) {
	db := s.db.WithContext(ctx)
	info := &models.DBInfo{Driver: db.Dialector.Name()}

	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.Country{}, &info.Countries},
		{&models.Player{}, &info.Players},
		{&models.Medal{}, &info.Medals},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count rows: %w", err)
		}
	}

	if info.Driver == database.DriverSQLite {
		var pageCount, pageSize int64
		if err := db.Raw("PRAGMA page_count").Scan(&pageCount).Error; err == nil {
			if err := db.Raw("PRAGMA page_size").Scan(&pageSize).Error; err == nil {
				info.SizeBytes = pageCount * pageSize
			}
		}
	}
	return info, nil
}

// Vacuum compacts the database file.
func (s *Store) Vacuum(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	var err error
	if db.Dialector.Name() == database.DriverSQLite {
		err = db.Exec("VACUUM").Error
	} else {
		err = db.Exec("OPTIMIZE TABLE countries, players, medals").Error
	}
	if err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// ImportView writes a previously exported roster back into the cache:
// players are merged as by a refresh, then assignments and medals are applied.
func (s *Store) ImportView(ctx context.Context, countryName string, view *models.MergedView) error {
	snap := &reconcile.Snapshot{
		Country:           reconcile.CountryInfo{ID: view.Country.RemoteID, Name: view.Country.Name},
		CountryID:         view.Country.RemoteID,
		WeeklyDamageTotal: view.Totals.WeeklyDamage,
		ActivePopulation:  view.Totals.ActivePopulation,
		Players:           make([]reconcile.Player, 0, len(view.Players)),
	}
	for i, p := range view.Players {
		rank := p.CountryRank
		if rank == 0 {
			rank = i + 1
		}
		snap.Players = append(snap.Players, reconcile.Player{
			ID:           p.ID,
			Name:         p.Name,
			Level:        p.Level,
			AvatarURL:    p.AvatarURL,
			WeeklyDamage: p.WeeklyDamage,
			GlobalRank:   p.GlobalRank,
			CountryRank:  rank,
		})
	}
	if err := s.UpsertRoster(ctx, countryName, snap); err != nil {
		return err
	}

	byBattalion := make(map[string][]string)
	for username, battalion := range view.Assignments {
		byBattalion[battalion] = append(byBattalion[battalion], username)
	}
	for battalion, usernames := range byBattalion {
		if _, err := s.AssignBattalion(ctx, countryName, usernames, battalion); err != nil {
			return err
		}
	}

	for username, weeks := range view.MedalHistory {
		for week, medal := range weeks {
			if _, err := s.AwardMedal(ctx, countryName, username, medal, week); err != nil {
				return err
			}
		}
	}
	return nil
}
