// Package reconcile merges three independently paged remote sources into one
// ranked country roster.
//
// # Pipeline
//
//  1. Resolve the country name against the country catalogue (cached, case-insensitive).
//  2. Drain the leaderboard until a page is empty or has no cursor.
//  3. Drain the country membership listing.
//  4. Keep the ranked users that are members, in leaderboard order.
//  5. Resolve details in batches of Config.BatchWidth; unresolved users are dropped.
//  6. Sort by weekly damage, assign the country rank and cap at Config.MaxPlayers.
//
// # Failures
//
// The country lookup and the first leaderboard page are fatal and wrap
// ErrSourceUnavailable (or ErrNotFound). Everything after that degrades: a
// failed page ends its sequence, a failed batch loses its players. Stats on
// the Snapshot record what was dropped.
//
// # Duplicates
//
// Entries are indexed by user id. A user seen on two leaderboard pages keeps
// the entry from the later page; the final order is always re-derived by sort.
//
// # Concurrency
//
// The engine does no internal parallelism. Guard keeps callers from running
// two reconciliations for the same country at once.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(reconcile.SourcesFrom(client), cfg.Reconcile, logger)
//	snap, err := engine.Reconcile(ctx, "argentina")
package reconcile
