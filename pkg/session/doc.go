// Package session tracks per-client conversation state: the rolling
// dialog history, the active image, and idle-session cleanup.
//
// Invariants:
// - A conversation never retains more than its configured turn cap;
//   the oldest turns fall off first.
// - ContextPrompt with no history returns the query untouched.
// - Sweep only evicts conversations idle past the manager's TTL.
package session
