// Package client is the HTTP transport between the Glytch client and its
// backend.
//
// # Overview
//
// The backend proxies a hosted Postgres service. Callers address it with
// the service's own path shapes (/auth/v1, /rest/v1, /rest/v1/rpc,
// /storage/v1/object) and the transport rewrites them onto the backend's
// /api routes (see ProxyPath). Dedicated backend endpoints such as media
// upload or GIF search are sent as-is (Request.Direct).
//
// Every call validates configuration first, so a missing or unsafe base
// URL fails before any network I/O.
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the message extracted from
// the response envelope plus the optional hint and details. Network
// failures wrap ErrUnavailable; a 401 APIError matches ErrUnauthorized.
// Configuration problems wrap common.ErrConfig.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
