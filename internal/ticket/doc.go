// Package ticket defines the data model shared by the issuance pipeline and
// the door-scan service.
//
// A Ticket is created exactly once per issued row and is never mutated by the
// issuance pipeline afterwards. The only later change is the scan stamp
// written by the verification service.
//
// # Identifiers
//
// Ticket identifiers are random version 4 UUIDs rendered in the canonical
// 36-character form. The identifier is the value encoded into the QR code and
// the primary key in every store backend.
//
// # Normalization
//
// Cell values from the row source are user-typed. Names and emails are
// trimmed and NFC-normalized at the boundary so that the same person typed
// twice produces identical store records.
package ticket
