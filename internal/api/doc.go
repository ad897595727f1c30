// Package api implements the HTTP REST API and WebSocket server for RZA Core.
//
// This package provides:
//   - REST endpoints for the substation hierarchy, device configurations,
//     setting revisions, reports and the audit trail
//   - WebSocket hub broadcasting committed change events
//   - Middleware stack (request ID, logging, recovery, CORS, actor)
//   - TLS support for production deployments
//
// # Architecture
//
// Handlers decode requests, call the asset, settings and report services,
// and map their classified errors (apperr) to HTTP status codes. Services
// publish change events after commit; the Hub is one of the event sinks
// and relays them to subscribed WebSocket clients.
//
// # Actor
//
// The X-Actor request header names the engineer responsible for a change.
// It is stored in the request context and recorded in the audit trail.
package api
