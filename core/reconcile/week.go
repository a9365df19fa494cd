package reconcile

import (
	"fmt"
	"time"
)

// CurrentWeekID returns the medal week identifier for t, e.g. "week_2025_10".
// Both parts come from the ISO calendar so the first days of January can
// belong to the previous year's last week.
func CurrentWeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("week_%d_%d", year, week)
}
