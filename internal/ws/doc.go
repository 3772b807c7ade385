// Package ws streams run progress to WebSocket clients.
//
// A Hub broadcasts the current status and round list to every connected
// client on a fixed interval, and immediately on connect. Dead clients
// are detected with ping/pong frames and evicted when their outgoing
// buffer fills.
package ws
