package warera

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/core/utils"
)

type rankingData struct {
	Items []struct {
		User  string `json:"user"`
		Value any    `json:"value"`
		Rank  any    `json:"rank"`
	} `json:"items"`
	NextCursor any `json:"nextCursor"`
}

type rosterData struct {
	Items []struct {
		ID string `json:"_id"`
	} `json:"items"`
	NextCursor any `json:"nextCursor"`
}

type userLite struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Leveling struct {
		Level any `json:"level"`
	} `json:"leveling"`
	AvatarURL string `json:"avatarUrl"`
}

type rankingValue struct {
	Value any `json:"value"`
	Rank  any `json:"rank"`
}

type countryData struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Rankings struct {
		WeeklyCountryDamages    rankingValue `json:"weeklyCountryDamages"`
		CountryActivePopulation rankingValue `json:"countryActivePopulation"`
	} `json:"rankings"`
}

// RankingPage fetches one leaderboard page via ranking.getRanking.
func (c *Client) RankingPage(ctx context.Context, rankingType, cursor string) (reconcile.RankingPage, error) {
	input := map[string]any{"rankingType": rankingType}
	if cursor != "" {
		input["cursor"] = cursor
	}

	data, err := callOne[rankingData](ctx, c, "ranking.getRanking", input)
	if err != nil {
		return reconcile.RankingPage{}, err
	}

	page := reconcile.RankingPage{
		Items:      make([]reconcile.RankingEntry, 0, len(data.Items)),
		NextCursor: utils.ToString(data.NextCursor),
	}
	for _, item := range data.Items {
		page.Items = append(page.Items, reconcile.RankingEntry{
			UserID: item.User,
			Damage: utils.ToInt64(item.Value),
			Rank:   utils.ToInt(item.Rank),
		})
	}
	return page, nil
}

// RosterPage fetches one page of country members via user.getUsersByCountry.
func (c *Client) RosterPage(ctx context.Context, countryID, cursor string) (reconcile.RosterPage, error) {
	input := map[string]any{"countryId": countryID, "direction": "forward"}
	if cursor != "" {
		input["cursor"] = cursor
	}

	data, err := callOne[rosterData](ctx, c, "user.getUsersByCountry", input)
	if err != nil {
		return reconcile.RosterPage{}, err
	}

	page := reconcile.RosterPage{
		UserIDs:    make([]string, 0, len(data.Items)),
		NextCursor: utils.ToString(data.NextCursor),
	}
	for _, item := range data.Items {
		if item.ID != "" {
			page.UserIDs = append(page.UserIDs, item.ID)
		}
	}
	return page, nil
}

// UserDetails resolves ids with one batched call of user.getUserLite.
// Entries that errored or carry no id are dropped.
func (c *Client) UserDetails(ctx context.Context, ids []string) ([]reconcile.UserDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	procs := make([]string, len(ids))
	input := make(map[string]any, len(ids))
	for i, id := range ids {
		procs[i] = "user.getUserLite"
		input[strconv.Itoa(i)] = map[string]any{"userId": id}
	}

	entries, err := c.callTRPC(ctx, strings.Join(procs, ","), input)
	if err != nil {
		return nil, err
	}

	details := make([]reconcile.UserDetail, 0, len(entries))
	for _, entry := range entries {
		if entry.Result == nil || len(entry.Result.Data) == 0 {
			continue
		}
		var u userLite
		if err := json.Unmarshal(entry.Result.Data, &u); err != nil || u.ID == "" {
			continue
		}
		details = append(details, reconcile.UserDetail{
			UserID:    u.ID,
			Username:  u.Username,
			Level:     utils.ToInt(u.Leveling.Level),
			AvatarURL: u.AvatarURL,
		})
	}
	return details, nil
}

// Countries fetches the full country catalogue.
func (c *Client) Countries(ctx context.Context) ([]reconcile.CountryInfo, error) {
	body, err := c.get(ctx, c.baseURL()+"/countries", nil)
	if err != nil {
		return nil, err
	}

	var raw []countryData
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}

	countries := make([]reconcile.CountryInfo, 0, len(raw))
	for _, r := range raw {
		countries = append(countries, reconcile.CountryInfo{
			ID:               r.ID,
			Name:             r.Name,
			WeeklyDamage:     utils.ToInt64(r.Rankings.WeeklyCountryDamages.Value),
			WeeklyRank:       utils.ToInt(r.Rankings.WeeklyCountryDamages.Rank),
			ActivePopulation: utils.ToInt64(r.Rankings.CountryActivePopulation.Value),
			PopulationRank:   utils.ToInt(r.Rankings.CountryActivePopulation.Rank),
		})
	}
	return countries, nil
}
