package roster

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/database"
	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	store := NewStore(db)
	clock := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testSnapshot(players ...reconcile.Player) *reconcile.Snapshot {
	for i := range players {
		players[i].CountryRank = i + 1
		players[i].CountryID = "c-ar"
	}
	return &reconcile.Snapshot{
		RunID:             "run",
		Country:           reconcile.CountryInfo{ID: "c-ar", Name: "Argentina"},
		CountryID:         "c-ar",
		WeeklyDamageTotal: 1_000_000,
		ActivePopulation:  300,
		Players:           players,
		CurrentWeekID:     "week_2025_10",
	}
}

func alice(damage int64) reconcile.Player {
	return reconcile.Player{ID: "u-alice", Name: "Alice", Level: 30, AvatarURL: "a.png", WeeklyDamage: damage, GlobalRank: 4}
}

func bob(damage int64) reconcile.Player {
	return reconcile.Player{ID: "u-bob", Name: "Bob", Level: 12, WeeklyDamage: damage, GlobalRank: 9}
}

func playerRows(t *testing.T, s *Store) []models.Player {
	t.Helper()
	var rows []models.Player
	require.NoError(t, s.db.Order("id").Find(&rows).Error)
	for i := range rows {
		rows[i].LastUpdated = time.Time{}
	}
	return rows
}

func TestUpsertRoster_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoster(ctx, "Argentina", testSnapshot(alice(5000), bob(3000))))
	first := playerRows(t, s)

	require.NoError(t, s.UpsertRoster(ctx, "Argentina", testSnapshot(alice(5000), bob(3000))))
	second := playerRows(t, s)

	assert.Equal(t, first, second)
	require.Len(t, second, 2)
	assert.Equal(t, "argentina", second[0].CountryID)
	assert.Equal(t, models.BattalionUnassigned, second[0].Battalion)

	var countries int64
	require.NoError(t, s.db.Model(&models.Country{}).Count(&countries).Error)
	assert.Equal(t, int64(1), countries)
}

func TestUpsertRoster_PreservesAnnotations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot(alice(5000), bob(3000))))
	n, err := s.AssignBattalion(ctx, "argentina", []string{"alice"}, models.BattalionCondor)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	ok, err := s.AwardMedal(ctx, "argentina", "alice", models.MedalGold, "week_2025_9")
	require.NoError(t, err)
	require.True(t, ok)

	// Fresh fetch: alice's damage changed, bob dropped off the leaderboard.
	updated := alice(9000)
	updated.Level = 31
	require.NoError(t, s.UpsertRoster(ctx, "ARGENTINA", testSnapshot(updated)))

	view, err := s.LoadRoster(ctx, "argentina")
	require.NoError(t, err)
	require.Len(t, view.Players, 2)

	top := view.Players[0]
	assert.Equal(t, "Alice", top.Name)
	assert.Equal(t, int64(9000), top.WeeklyDamage)
	assert.Equal(t, 31, top.Level)
	assert.Equal(t, models.BattalionCondor, top.Battalion)
	assert.Equal(t, "Bob", view.Players[1].Name)

	assert.Equal(t, map[string]string{"alice": models.BattalionCondor}, view.Assignments)
	assert.Equal(t, map[string]map[string]string{"alice": {"week_2025_9": models.MedalGold}}, view.MedalHistory)
}

func TestLoadRoster(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadRoster(ctx, "argentina")
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, s.UpsertRoster(ctx, "Argentina", testSnapshot(bob(100), alice(200))))
	view, err := s.LoadRoster(ctx, "argentina")
	require.NoError(t, err)

	assert.Equal(t, "Argentina", view.Country.Name)
	assert.Equal(t, "c-ar", view.Country.RemoteID)
	assert.Equal(t, models.Totals{WeeklyDamage: 1_000_000, ActivePopulation: 300, Players: 2}, view.Totals)
	assert.Equal(t, "Alice", view.Players[0].Name)
	assert.Empty(t, view.Assignments)
	assert.Empty(t, view.MedalHistory)
	assert.Equal(t, "week_2025_10", view.CurrentWeekID)
}

func TestUpsertRoster_EmptySnapshotKeepsCountry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot()))
	view, err := s.LoadRoster(ctx, "argentina")
	require.NoError(t, err)
	assert.Empty(t, view.Players)
	assert.Equal(t, int64(1_000_000), view.Totals.WeeklyDamage)
}

func TestAssignBattalion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot(alice(5), bob(4))))

	tests := []struct {
		name      string
		usernames []string
		battalion string
		want      int
		wantErr   error
	}{
		{"CaseInsensitive", []string{"ALICE"}, "condor", 1, nil},
		{"UnknownSkipped", []string{"bob", "nobody", ""}, models.BattalionCarpincho, 1, nil},
		{"Unassign", []string{"Bob"}, models.BattalionUnassigned, 1, nil},
		{"InvalidBattalion", []string{"alice"}, "PUMA", 0, ErrInvalidBattalion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.AssignBattalion(ctx, "argentina", tt.usernames, tt.battalion)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	view, err := s.LoadRoster(ctx, "argentina")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": models.BattalionCondor}, view.Assignments)

	n, err := s.AssignBattalion(ctx, "brazil", []string{"alice"}, models.BattalionCondor)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAwardMedal_OnePerWeek(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot(alice(5))))

	ok, err := s.AwardMedal(ctx, "argentina", "Alice", "gold", "week_2025_10")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.AwardMedal(ctx, "argentina", "alice", "SILVER", "week_2025_10")
	require.NoError(t, err)
	require.True(t, ok)

	var medals []models.Medal
	require.NoError(t, s.db.Where("player_id = ? AND week_identifier = ?", "u-alice", "week_2025_10").Find(&medals).Error)
	require.Len(t, medals, 1)
	assert.Equal(t, models.MedalSilver, medals[0].MedalType)

	_, err = s.AwardMedal(ctx, "argentina", "alice", "bronze", "week_2025_11")
	require.NoError(t, err)
	history, err := s.PlayerMedals(ctx, "Argentina", "ALICE")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"week_2025_10": "silver", "week_2025_11": "bronze"}, history)

	ok, err = s.AwardMedal(ctx, "argentina", "ghost", "gold", "week_2025_10")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = s.AwardMedal(ctx, "argentina", "alice", "platinum", "week_2025_10")
	assert.ErrorIs(t, err, ErrInvalidMedal)
}

func TestBattalionStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	carol := reconcile.Player{ID: "u-carol", Name: "Carol", WeeklyDamage: 1000}
	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot(alice(6000), bob(2000), carol)))
	_, err := s.AssignBattalion(ctx, "argentina", []string{"alice", "bob"}, models.BattalionCondor)
	require.NoError(t, err)

	stats, err := s.BattalionStats(ctx, "argentina")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.BattalionStat{Battalion: models.BattalionCondor, Soldiers: 2, TotalDamage: 8000, AvgDamage: 4000}, stats[0])
	assert.Equal(t, models.BattalionStat{Battalion: models.BattalionUnassigned, Soldiers: 1, TotalDamage: 1000, AvgDamage: 1000}, stats[1])
}

func TestClearCountry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoster(ctx, "argentina", testSnapshot(alice(5))))
	other := testSnapshot(reconcile.Player{ID: "u-br", Name: "Bruno", WeeklyDamage: 1})
	require.NoError(t, s.UpsertRoster(ctx, "brazil", other))
	_, err := s.AwardMedal(ctx, "argentina", "alice", "gold", "week_2025_10")
	require.NoError(t, err)

	require.NoError(t, s.ClearCountry(ctx, "Argentina"))

	_, err = s.LoadRoster(ctx, "argentina")
	assert.ErrorIs(t, err, ErrNotCached)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Countries)
	assert.Equal(t, int64(1), info.Players)
	assert.Equal(t, int64(0), info.Medals)
	assert.Equal(t, "sqlite", info.Driver)

	assert.NoError(t, s.Vacuum(ctx))
}

func TestToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.SetToken(ctx, " first "))
	require.NoError(t, s.SetToken(ctx, "second"))
	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	var rows int64
	require.NoError(t, s.db.Model(&models.Token{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCountryCatalogue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCountries(ctx, []reconcile.CountryInfo{
		{ID: "c-br", Name: "Brazil", WeeklyDamage: 10},
		{ID: "c-ar", Name: "Argentina", WeeklyDamage: 5},
		{Name: "no id"},
	}))
	require.NoError(t, s.SaveCountries(ctx, []reconcile.CountryInfo{{ID: "c-ar", Name: "Argentina", WeeklyDamage: 7}}))

	countries, err := s.Countries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "Argentina", countries[0].Name)
	assert.Equal(t, int64(7), countries[0].WeeklyDamage)
}

func TestImportView(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	var players []reconcile.Player
	for i := 0; i < 5; i++ {
		players = append(players, reconcile.Player{ID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("User%d", i), WeeklyDamage: int64(100 - i)})
	}
	require.NoError(t, src.UpsertRoster(ctx, "argentina", testSnapshot(players...)))
	_, err := src.AssignBattalion(ctx, "argentina", []string{"user1", "user2"}, models.BattalionYaguarete)
	require.NoError(t, err)
	_, err = src.AwardMedal(ctx, "argentina", "user0", "gold", "week_2025_10")
	require.NoError(t, err)

	exported, err := src.LoadRoster(ctx, "argentina")
	require.NoError(t, err)

	dst := newTestStore(t)
	require.NoError(t, dst.ImportView(ctx, "argentina", exported))

	imported, err := dst.LoadRoster(ctx, "argentina")
	require.NoError(t, err)
	assert.Equal(t, exported.Players, imported.Players)
	assert.Equal(t, exported.Assignments, imported.Assignments)
	assert.Equal(t, exported.MedalHistory, imported.MedalHistory)
	assert.Equal(t, exported.Totals, imported.Totals)
	assert.Equal(t, "c-ar", imported.Country.RemoteID)
}
