// Package results tracks the state of an analysis run in memory.
//
// The engine publishes rounds into a Store as it completes them; the
// HTTP API and WebSocket hub read the same Store to report progress.
// All methods are safe for concurrent use.
package results
