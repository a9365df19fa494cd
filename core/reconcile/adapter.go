package reconcile

import "context"

// RankingSource pages through a leaderboard. An empty cursor requests the first page.
type RankingSource interface {
	RankingPage(ctx context.Context, rankingType, cursor string) (RankingPage, error)
}

// RosterSource pages through the members of one country.
type RosterSource interface {
	RosterPage(ctx context.Context, countryID, cursor string) (RosterPage, error)
}

// DetailSource resolves a batch of user ids. The result may be shorter than
// the input when some ids are unresolved.
type DetailSource interface {
	UserDetails(ctx context.Context, ids []string) ([]UserDetail, error)
}

// CountrySource lists the country catalogue.
type CountrySource interface {
	Countries(ctx context.Context) ([]CountryInfo, error)
}

// Sources bundles the remote capabilities the engine pulls from.
// A single client usually implements all of them.
type Sources struct {
	Ranking   RankingSource
	Roster    RosterSource
	Details   DetailSource
	Countries CountrySource
}

// RemoteAPI is implemented by a client serving every source.
type RemoteAPI interface {
	RankingSource
	RosterSource
	DetailSource
	CountrySource
}

// SourcesFrom uses one client for every source.
func SourcesFrom(api RemoteAPI) Sources {
	return Sources{Ranking: api, Roster: api, Details: api, Countries: api}
}
