// Package roster owns the cached country rosters and the operator annotations on them.
//
// # Merge Contract
//
// A refresh replaces the country row and upserts every player of the snapshot.
// Existing players only get their refreshed columns rewritten (name, level,
// avatar, damage, ranks, timestamp); battalion and medals are never touched.
// Players missing from a later snapshot stay cached until the country is cleared.
//
// # Annotations
//
//   - AssignBattalion matches usernames case-insensitively and skips unknown ones.
//   - AwardMedal keeps one medal per player and week; a repeat award replaces it.
//
// # HTTP
//
// Handler exposes the service under /api/countries. Refreshes run in the
// background and are polled through GET /api/countries/:country/refresh.
package roster
