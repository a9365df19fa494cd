package report

import (
	"bytes"
	"testing"

	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView() *models.MergedView {
	return &models.MergedView{
		Country: models.Country{ID: "argentina", Name: "Argentina", RemoteID: "c-ar"},
		Players: []models.RosterPlayer{
			{ID: "u1", Name: "Alice", WeeklyDamage: 5000, CountryRank: 1},
			{ID: "u2", Name: "Bob", WeeklyDamage: 3000, CountryRank: 2},
			{ID: "u3", Name: "Carol", WeeklyDamage: 2000, CountryRank: 3},
			{ID: "u4", Name: "Dave", WeeklyDamage: 1000, CountryRank: 4},
		},
		Assignments: map[string]string{
			"alice": models.BattalionCondor,
			"bob":   models.BattalionYaguarete,
			"carol": models.BattalionCondor,
		},
		MedalHistory:  map[string]map[string]string{"alice": {"week_2025_10": "gold"}},
		Totals:        models.Totals{WeeklyDamage: 1_000_000, ActivePopulation: 300, Players: 4},
		CurrentWeekID: "week_2025_10",
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testView())

	assert.Equal(t, "Argentina", s.Country)
	assert.Equal(t, "week_2025_10", s.WeekID)
	require.Len(t, s.Battalions, 2)

	condor := s.Battalions[0]
	assert.Equal(t, "CONDOR", condor.Battalion)
	assert.EqualValues(t, 2, condor.Soldiers)
	assert.EqualValues(t, 7000, condor.TotalDamage)
	assert.EqualValues(t, 3500, condor.AvgDamage)
	assert.InDelta(t, 0.7, condor.Share, 0.0001)
	assert.Equal(t, "YAGUARETE", s.Battalions[1].Battalion)
	assert.EqualValues(t, 3000, s.Battalions[1].AvgDamage)

	require.NotNil(t, s.Unassigned)
	assert.EqualValues(t, 990_000, s.Unassigned.TotalDamage)
	assert.EqualValues(t, 297, s.Unassigned.Soldiers)
	assert.EqualValues(t, 3333, s.Unassigned.AvgDamage)
	assert.InDelta(t, 99.0, s.Unassigned.Share, 0.0001)

	assert.Equal(t, Row{Battalion: "TOTAL", Soldiers: 300, TotalDamage: 1_000_000, Share: 100, AvgDamage: 3333}, s.Total)
}

func TestSummarize_EdgeCases(t *testing.T) {
	t.Run("EverythingAssigned", func(t *testing.T) {
		view := testView()
		view.Totals.WeeklyDamage = 10_000
		view.Assignments["dave"] = models.BattalionCarpincho

		s := Summarize(view)
		assert.Nil(t, s.Unassigned)
		require.Len(t, s.Battalions, 3)
		assert.Equal(t, "CARPINCHO", s.Battalions[2].Battalion)
	})

	t.Run("ZeroTotals", func(t *testing.T) {
		view := testView()
		view.Totals = models.Totals{}

		s := Summarize(view)
		assert.Nil(t, s.Unassigned)
		assert.Zero(t, s.Battalions[0].Share)
		assert.Zero(t, s.Total.AvgDamage)
	})

	t.Run("NoAssignments", func(t *testing.T) {
		view := testView()
		view.Assignments = map[string]string{}

		s := Summarize(view)
		assert.Empty(t, s.Battalions)
		require.NotNil(t, s.Unassigned)
		assert.EqualValues(t, 300, s.Unassigned.Soldiers)
	})
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Summarize(testView())))

	out := buf.String()
	assert.Contains(t, out, "BATTALION SUMMARY - Argentina (week_2025_10)")
	assert.Contains(t, out, "CONDOR")
	assert.Contains(t, out, "7,000")
	assert.Contains(t, out, "990,000")
	assert.Contains(t, out, "0.7%")
	assert.Contains(t, out, "100.0%")
	assert.NotContains(t, out, "CARPINCHO")
}
