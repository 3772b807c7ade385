// Package store persists analysis runs to a SQLite database.
//
// Each invocation appends one row to runs, one row per veto round to
// rounds, and the applied veto segments and removed primary events to
// their own tables. The database is created and migrated on open, so a
// fresh path is enough to start recording.
package store
