// Package verify serves the door-scan API and the analytics read side.
//
// POST /api/verify-ticket marks a ticket scanned exactly once and reports
// whether it was valid, already used, or unknown. GET /api/analytics/{event}
// returns the event summary with derived rates. Both sit on the same store
// the reconciler writes to.
package verify
