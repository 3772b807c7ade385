// Package api serves the JSON HTTP endpoints for run status and results.
//
// All endpoints live under /api/v1/ and read from the results store that
// the engine publishes into, so responses reflect the run as it
// progresses. Authentication is an optional shared API key checked
// against a configurable header.
package api
