// Package reconcile drives ticket issuance from the signup sheet.
//
// A reconciliation run reads the whole sheet once, discovers the column
// layout, and visits every data row in sheet order. Each row is classified
// from its Verified and Sent cells:
//
//	verified == "yes" && sent != "yes"  → issue a ticket
//	verified == "no"  && sent != "yes"  → send a payment reminder
//	otherwise                           → nothing to do
//
// Comparison is on the trimmed, case-folded cell text.
//
// # Issuance order
//
// A ticket is issued as: new id → QR render → store save → email → Sent
// marker → analytics. The marker is written only after the email went out,
// so a failure anywhere before it leaves the row to be retried on the next
// run, and a row whose marker reads "yes" is never issued again. Analytics
// is best effort: a failure there is logged and does not affect the row.
//
// # Reminders
//
// Reminders write no marker. A row that stays at "no" is reminded on every
// run until somebody changes its Verified cell.
//
// # Failures
//
// Missing required columns abort the run before any write. Every other
// failure is confined to its row: it is logged with the row number and
// recipient, counted in the Report, and the run moves on.
//
// Runs are single-threaded and assume a single writer. Two concurrent runs
// against the same sheet can both issue a ticket for the same row.
package reconcile
