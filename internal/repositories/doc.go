// Package repositories implements SQLite persistence for client state.
//
// The [StorageRepository] backs the session and progress stores with a single key/value table.
// Values are opaque JSON documents; the repository never inspects them.
package repositories
