package reconcile

import "sort"

// rankingIndex keeps leaderboard entries keyed by user id.
// A user seen on several pages keeps the last entry but its first position.
type rankingIndex struct {
	order   []string
	entries map[string]RankingEntry
}

func newRankingIndex() *rankingIndex {
	return &rankingIndex{entries: make(map[string]RankingEntry)}
}

func (r *rankingIndex) add(items []RankingEntry) {
	for _, item := range items {
		if item.UserID == "" {
			continue
		}
		if _, seen := r.entries[item.UserID]; !seen {
			r.order = append(r.order, item.UserID)
		}
		r.entries[item.UserID] = item
	}
}

func (r *rankingIndex) len() int {
	return len(r.order)
}

// intersect returns the ranked ids that belong to the roster, in ranking order.
func (r *rankingIndex) intersect(roster map[string]struct{}) []string {
	ids := make([]string, 0, len(roster))
	for _, id := range r.order {
		if _, ok := roster[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// batchIDs splits ids into consecutive groups of at most width.
func batchIDs(ids []string, width int) [][]string {
	if width <= 0 {
		width = 1
	}
	batches := make([][]string, 0, (len(ids)+width-1)/width)
	for start := 0; start < len(ids); start += width {
		end := start + width
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// assemble merges ranking entries with resolved details, ranks them within the
// country and applies the cap. It returns the roster and the number of dropped rows.
func assemble(ids []string, ranking *rankingIndex, details map[string]UserDetail, countryID string, maxPlayers int) ([]Player, int) {
	players := make([]Player, 0, len(ids))
	for _, id := range ids {
		detail, ok := details[id]
		if !ok {
			continue
		}
		entry := ranking.entries[id]

		name := detail.Username
		if name == "" {
			name = "Unknown"
		}
		level := detail.Level
		if level <= 0 {
			level = 1
		}

		players = append(players, Player{
			ID:           id,
			Name:         name,
			Level:        level,
			AvatarURL:    detail.AvatarURL,
			CountryID:    countryID,
			WeeklyDamage: entry.Damage,
			GlobalRank:   entry.Rank,
		})
	}

	SortPlayers(players)

	truncated := 0
	if maxPlayers > 0 && len(players) > maxPlayers {
		truncated = len(players) - maxPlayers
		players = players[:maxPlayers]
	}

	for i := range players {
		players[i].CountryRank = i + 1
	}
	return players, truncated
}

// SortPlayers orders players by weekly damage descending.
// Ties fall back to global rank, then id, so the order is deterministic.
func SortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.WeeklyDamage != b.WeeklyDamage {
			return a.WeeklyDamage > b.WeeklyDamage
		}
		if a.GlobalRank != b.GlobalRank {
			return a.GlobalRank < b.GlobalRank
		}
		return a.ID < b.ID
	})
}
