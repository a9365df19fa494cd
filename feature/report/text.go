package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// WriteText renders the summary as an aligned plain-text table.
func WriteText(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "BATTALION SUMMARY - %s (%s)\n\n", s.Country, s.WeekID); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Battalion\tSoldiers\tTotal Damage\tShare\tAvg/Soldier\t")
	for _, row := range s.Battalions {
		writeRow(tw, row)
	}
	if s.Unassigned != nil {
		writeRow(tw, *s.Unassigned)
	}
	fmt.Fprintln(tw, "\t\t\t\t\t")
	writeRow(tw, s.Total)
	return tw.Flush()
}

func writeRow(w io.Writer, row Row) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%s\t\n",
		row.Battalion,
		humanize.Comma(row.Soldiers),
		humanize.Comma(row.TotalDamage),
		row.Share,
		humanize.Comma(row.AvgDamage),
	)
}
