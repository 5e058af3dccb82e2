package reconcile

import "errors"

// Report summarizes one reconciliation run. It is console output only and
// is not persisted.
type Report struct {
	Rows     int  `json:"rows"`
	Issued   int  `json:"issued"`
	Reminded int  `json:"reminded"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
	DryRun   bool `json:"dry_run,omitempty"`

	// Interrupted is set when the context was cancelled before all rows
	// were visited.
	Interrupted bool `json:"interrupted,omitempty"`

	Failures []RowFailure `json:"failures,omitempty"`
}

// RowFailure describes one failed row.
type RowFailure struct {
	Row    int       `json:"row"`
	Email  string    `json:"email"`
	Action string    `json:"action"`
	Code   ErrorCode `json:"code,omitempty"`
	Error  string    `json:"error"`
}

func (r *Report) count(a Action) {
	switch a {
	case ActionIssueTicket:
		r.Issued++
	case ActionSendReminder:
		r.Reminded++
	}
}

func (r *Report) fail(row int, email string, a Action, err error) {
	r.Failed++
	f := RowFailure{Row: row, Email: email, Action: a.String(), Error: err.Error()}
	var re *Error
	if errors.As(err, &re) {
		f.Code = re.Code
	}
	r.Failures = append(r.Failures, f)
}
