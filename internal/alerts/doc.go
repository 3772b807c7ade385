// Package alerts flags veto rounds that match configured quality rules.
//
// Each completed round is tested against simple "field op value"
// conditions (deadtime too high, significance suspiciously large, and so
// on). Matching rules produce Alert events that are kept in memory and
// delivered to webhook targets.
package alerts
