// Package services implements the client side of the hosted auth backend.
//
// # AuthService Interface
//
// [AuthService] is the only contract the session store relies on: session lookup, a push
// channel, and one method per account operation.
//
// # GoTrue Implementation
//
// [GoTrueService] talks JSON over HTTP to a GoTrue compatible server mounted at /auth/v1.
// Each request carries the project anon key in the apikey header and either the anon key or
// the user's access token as a bearer token.
//
// Sessions are held as [oauth2.Token] values. Refreshes use grant_type=refresh_token and run
// either on demand from GetSession or from the ticker started by StartAutoRefresh.
//
// Provider sign-in is PKCE based:
//  1. SignInWithOAuth generates a verifier with [oauth2.GenerateVerifier] and returns the authorize URL
//  2. the browser lands on the local callback with ?code=...&state=...
//  3. ExchangeCode posts grant_type=pkce and emits [EventSignedIn]
//
// # Error Handling
//
// Every failure is normalized into a [shared.AuthError] before it leaves the package:
//   - 400, 422 : validation (invalid_grant and invalid_credentials are unauthorized)
//   - 401, 403 : unauthorized
//   - 429, 5xx, transport and context errors : network
//   - anything else : unknown
//
// The display message is taken from error_description, msg, message or error, in that order.
//
// # Throttling
//
// Outbound calls wait on a [rate.Limiter] configured from auth.requests_per_second.
package services
