// Package repositories implements SQLite persistence for all domain entities.
//
// Songs and masses are soft-deleted via deleted_at and excluded from queries by default. Categories, program
// entries, favorites and sessions are hard-deleted.
//
// Key Implementations:
//   - [CategoryRepository] : ordered categories with unique slugs
//   - [SongRepository] : songs with JSON-encoded lyrics structure and accent-insensitive title search
//   - [MassRepository] : dated programs with publication flag and upcoming lookups
//   - [MassSongRepository] : program entries appended at count+1 and never renumbered
//   - [ProfileRepository] : identity mirrors with roles
//   - [FavoriteRepository] : existence-only (user, song) pairs
//   - [SessionRepository] : login tokens
//
// Sequence numbers give songs and masses a stable insertion order independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
