// Package store owns the client's mutable state: who is signed in and what has been watched.
//
// # Session Store
//
// [SessionStore] mediates every auth operation against a [services.AuthService]. State changes
// are expressed as reducers over [SessionState]; each committed state is persisted (the
// user/session subset only, under [SessionKey]) and then handed to local observers.
//
// Two writers race for the session: direct operation results and the service push channel.
// Both apply the same paired user/session update and the last one to arrive wins.
//
// # Progress Store
//
// [ProgressStore] keeps three id sets and writes them through to [ProgressKey] on every change.
// Progress is per device and survives sign-out.
//
// # Storage
//
// Both stores persist through the [Storage] port. Values are JSON envelopes of the form
// {"state": ..., "version": 0}. Absent or unreadable values load as empty state, and failed
// writes are logged and otherwise ignored.
package store
