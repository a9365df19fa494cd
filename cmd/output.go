package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"github.com/dustin/go-humanize"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// medalBadge counts a player's medals, e.g. "2G 1B".
func medalBadge(history map[string]string) string {
	counts := make(map[string]int, len(models.MedalTypes))
	for _, medal := range history {
		counts[medal]++
	}
	parts := make([]string, 0, len(models.MedalTypes))
	for _, medal := range models.MedalTypes {
		if n := counts[medal]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, strings.ToUpper(medal[:1])))
		}
	}
	return strings.Join(parts, " ")
}

func printRoster(w io.Writer, view *models.MergedView, battalion string) error {
	fmt.Fprintf(w, "%s  week %s  updated %s\n", view.Country.Name, view.CurrentWeekID, humanize.Time(view.LastUpdated))
	fmt.Fprintf(w, "country damage %s  active population %s  cached players %d\n\n",
		humanize.Comma(view.Totals.WeeklyDamage), humanize.Comma(view.Totals.ActivePopulation), view.Totals.Players)

	tw := newTable(w)
	fmt.Fprintln(tw, "#\tPLAYER\tLEVEL\tDAMAGE\tGLOBAL\tBATTALION\tMEDALS")
	for _, p := range view.Players {
		if battalion != "" && p.Battalion != battalion {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t#%d\t%s\t%s\n",
			p.CountryRank, p.Name, p.Level, humanize.Comma(p.WeeklyDamage), p.GlobalRank, p.Battalion,
			medalBadge(view.MedalHistory[strings.ToLower(p.Name)]))
	}
	return tw.Flush()
}

func printStats(w io.Writer, stats []models.BattalionStat) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "BATTALION\tSOLDIERS\tTOTAL DAMAGE\tAVG DAMAGE")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Battalion, s.Soldiers, humanize.Comma(s.TotalDamage), humanize.Comma(int64(s.AvgDamage)))
	}
	return tw.Flush()
}

func printCountries(w io.Writer, countries []reconcile.CountryInfo) error {
	sorted := append([]reconcile.CountryInfo(nil), countries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].WeeklyDamage != sorted[j].WeeklyDamage {
			return sorted[i].WeeklyDamage > sorted[j].WeeklyDamage
		}
		return sorted[i].Name < sorted[j].Name
	})

	tw := newTable(w)
	fmt.Fprintln(tw, "COUNTRY\tWEEKLY DAMAGE\tRANK\tACTIVE\tID")
	for _, c := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.Name, humanize.Comma(c.WeeklyDamage), c.WeeklyRank, humanize.Comma(c.ActivePopulation), c.ID)
	}
	return tw.Flush()
}

// confirm prompts on stdin unless yes is set.
func confirm(yes bool, prompt string) bool {
	if yes {
		fmt.Println("Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("%s Type 'yes' to confirm: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
