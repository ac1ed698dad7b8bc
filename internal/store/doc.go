// Package store persists tail session history in SQLite. The daemon is
// the only writer; the CLI reads through the daemon or, when the daemon
// is down, opens the database directly for listing.
package store
