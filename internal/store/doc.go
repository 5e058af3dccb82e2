// Package store provides SQLite-backed durable storage for issued tickets,
// per-event analytics and door scans.
//
// Tables:
//   - tickets: one row per issued ticket, keyed by ticket id
//   - analytics: one row per event with the tickets_sent counter
//   - analytics_recipients: append-only recipient list per event
//   - scans: append-only log of every verification attempt
//
// # Write semantics
//
// SaveTicket is an upsert keyed by ticket id: writing an existing id replaces
// the record. IncrementAnalytics is a merge-style upsert that increments the
// counter, appends a recipient and stamps the store-observed time in a single
// transaction. MarkScanned stamps a ticket on its first scan only; the
// check-and-set runs inside one transaction, so the first of two concurrent
// scans wins.
//
// # Time
//
// Timestamps are stored as fixed-width UTC text (see timeLayout) so that
// lexical order equals time order. The store reads the clock itself; tests
// inject one with WithClock.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while the reconciler writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
