// Package handler provides the server-side endpoint glue: a catch-all HTTP
// handler that translates requests under the auth base path into calls on an
// authentication [Backend], plus helpers to resolve the session
// ([GetServerSession]) and decode the session JWT ([GetToken]) inside other
// server routes.
//
// # Architecture boundaries
//
// The Backend is the external authentication library: it owns providers,
// cookies, CSRF issuance and session minting. This package only maps HTTP
// requests to Backend calls and Backend responses back to HTTP, including
// the json-flag rule that turns a redirect response into a {"url": ...} body
// for callers that asked for a JSON shape.
//
// # What this package must NOT do
//
//   - Authenticate anyone or inspect credentials.
//   - Cache sessions; every GetServerSession call asks the Backend.
package handler
