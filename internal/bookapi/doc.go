// Package bookapi provides an HTTP client for the book list API.
//
// # Endpoints
//
//   - GET    /v1/book       list the caller's books
//   - POST   /v1/book       add a book
//   - PATCH  /v1/book/{id}  edit a book
//   - DELETE /v1/book/{id}  delete a book
//   - POST   /v1/me         exchange email and password for a token
//   - DELETE /v1/me         sign out
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept, User-Agent and a fresh X-Request-Id header
//   - Carry Authorization: Bearer <token> except for sign-in
//   - Wait on the optional rate limiter before each attempt
//
// GET requests are retried on transport errors, 429 and 5xx responses with
// exponential backoff capped at 30 seconds. Writes are never retried.
//
// # Error Handling
//
// Every failure is an *apperr.Error:
//
//	401, 403         → auth
//	404              → not found
//	400, 422         → validation (server message kept)
//	other 4xx/5xx    → network
//	transport/decode → network
//
// An empty token is rejected with an auth error before any request is made.
//
// # Proxy
//
// Options.Proxy routes traffic through a SOCKS5 proxy, for example a local
// Tor daemon at 127.0.0.1:9050.
package bookapi
