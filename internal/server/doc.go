// Package server provides HTTP routing, middleware, the local JSON API and the OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation registers method patterns on [http.ServeMux].
//
// # OAuth Callback Handler
//
// [CallbackHandler] receives the provider redirect of a PKCE sign-in. It validates the state
// parameter, hands the authorization code to an [ExchangeFunc] and reports one result on a channel.
// Later requests are rejected.
//
// # API
//
// [API] exposes the course catalog, local progress and the session over JSON.
// The profile routes are wrapped by the auth gate middleware: 503 while the session is loading,
// 401 (or a redirect for browsers) without a user.
package server
