package report

import (
	"strings"

	"github.com/pp9653/warera-ranking-sys/feature/roster/models"
)

// Row is one line of the battalion summary.
type Row struct {
	Battalion   string  `json:"battalion"`
	Soldiers    int64   `json:"soldiers"`
	TotalDamage int64   `json:"total_damage"`
	Share       float64 `json:"share"`
	AvgDamage   int64   `json:"avg_damage"`
}

// Summary is the strategic overview of a country for one week.
type Summary struct {
	Country    string `json:"country"`
	WeekID     string `json:"week_id"`
	Battalions []Row  `json:"battalions"`
	Unassigned *Row   `json:"unassigned,omitempty"`
	Total      Row    `json:"total"`
}

// Summarize aggregates the assigned players of view per battalion, in
// battalion priority order. Battalions without members are left out.
//
// Unassigned damage is the country total minus the assigned damage, so it
// also covers players below the roster cap. Its soldier count is the active
// population minus the assigned players. The row is only present when the
// unassigned damage is positive.
func Summarize(view *models.MergedView) Summary {
	summary := Summary{
		Country: view.Country.Name,
		WeekID:  view.CurrentWeekID,
	}
	countryTotal := view.Totals.WeeklyDamage
	population := view.Totals.ActivePopulation

	byBattalion := make(map[string]*Row)
	var assignedDamage, assignedSoldiers int64
	for _, p := range view.Players {
		battalion := view.Assignments[strings.ToLower(p.Name)]
		if battalion == "" || battalion == models.BattalionUnassigned {
			continue
		}
		row, ok := byBattalion[battalion]
		if !ok {
			row = &Row{Battalion: battalion}
			byBattalion[battalion] = row
		}
		row.Soldiers++
		row.TotalDamage += p.WeeklyDamage
		assignedDamage += p.WeeklyDamage
		assignedSoldiers++
	}

	for _, battalion := range models.Battalions {
		row, ok := byBattalion[battalion]
		if !ok {
			continue
		}
		row.Share = share(row.TotalDamage, countryTotal)
		row.AvgDamage = average(row.TotalDamage, row.Soldiers)
		summary.Battalions = append(summary.Battalions, *row)
	}

	if unassigned := countryTotal - assignedDamage; unassigned > 0 {
		soldiers := population - assignedSoldiers
		summary.Unassigned = &Row{
			Battalion:   models.BattalionUnassigned,
			Soldiers:    soldiers,
			TotalDamage: unassigned,
			Share:       share(unassigned, countryTotal),
			AvgDamage:   average(unassigned, soldiers),
		}
	}

	summary.Total = Row{
		Battalion:   "TOTAL",
		Soldiers:    population,
		TotalDamage: countryTotal,
		Share:       100,
		AvgDamage:   average(countryTotal, population),
	}
	return summary
}

func share(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func average(total, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return total / count
}
