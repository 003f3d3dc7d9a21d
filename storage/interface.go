package storage

import "attuned-server/game"

// Backend bundles everything the engine needs from persistence.
// Implementations can be swapped for testing or different backends.
type Backend interface {
	game.SessionStore
	game.HistoryStore
	game.UserStore
	game.ProfileStore

	// Lifecycle
	Close()
}

// Ensure both implementations satisfy Backend at compile time.
var (
	_ Backend = (*Store)(nil)
	_ Backend = (*MemoryStore)(nil)
)
