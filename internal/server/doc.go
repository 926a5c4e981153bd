// Package server provides the HTTP API of cantus.
//
// # Routing
//
// [Server.Routes] builds a chi router. Every request goes through [RequestID], [Logger], [Recoverer],
// CORS, [RateLimit] and [Server.Authenticate], in that order. Authenticate never rejects a request: it
// only loads the profile of a valid session into the context. Route groups then apply [RequireAuth] or
// [RequireRole].
//
// # Errors
//
// Handlers return errors through writeError, which maps the sentinels of the shared package onto
// status codes and answers {"error": message}. Unexpected errors are logged with the request ID and
// answered with a generic 500.
//
// # Sign-in
//
// /auth/login and /auth/callback run the OAuth2 authorization code flow against the configured
// provider. The state travels in a short-lived cookie. A successful callback upserts the profile,
// keeping any role already granted, and sets the session cookie. Clients sending
// Accept: application/json also receive the token for use as a Bearer credential.
//
// # Visibility
//
// Anonymous callers only see published masses, in lists, by ID and in exports. Unpublished masses
// answer 404 rather than 403.
package server
