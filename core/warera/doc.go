// Package warera is the HTTP client for the game's public API.
//
// It speaks the batched tRPC dialect the web app uses: a GET on
// /trpc/<procedure> with batch=1 and a JSON input keyed by call index, answered
// by a JSON array of {"result":{"data":...}} entries. Detail lookups batch
// several user.getUserLite calls into one request by repeating the procedure
// name.
//
// Every request waits a random delay between MinDelayMs and MaxDelayMs first.
// The wait honours context cancellation.
//
// Client implements reconcile.RankingSource, RosterSource, DetailSource and
// CountrySource.
package warera
