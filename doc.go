// Package sessync keeps a single logical "current session" consistent across
// multiple application instances of the same origin: browser-style tabs, a
// server-rendered request context, and background pollers all observe one
// [Client]-owned session cache that is refreshed through a small trigger-driven
// state machine and fanned out to sibling instances through a Redis-backed
// broadcast channel.
//
// The package does not authenticate anyone. Sign-in, sign-out, CSRF issuance
// and session minting are delegated to an authentication backend reachable
// over HTTP (see the handler sub-package for the server-side glue). sessync
// only decides when a cached session is fresh, when it must be refetched, and
// how sign-in/sign-out actions update the cache and notify other instances.
//
// # Architecture boundaries
//
// sessync is the public client surface. It exposes [Client], [Builder],
// [Config], [SessionData] and the sign-in/sign-out flow types. Cross-instance
// messaging lives in the broadcast sub-package, route protection in guard,
// and the server-side endpoint glue in handler.
//
// # What this package must NOT do
//
//   - Implement provider protocols (OAuth, credentials, email). The backend
//     owns those; sessync only propagates their outcome.
//   - Share cache state between Client instances. Concurrent server requests
//     each build their own Client.
//   - Surface background resync failures to callers. Session sync is a
//     best-effort concern; failures are logged and the previous cache value
//     stands.
package sessync
