package reconcile

import "github.com/massmirchi/tickets/internal/ticket"

// Action is what a row needs in this run.
type Action int

const (
	// ActionNone means the row is done or waiting on verification.
	ActionNone Action = iota

	// ActionIssueTicket means the payment is verified and no ticket was sent yet.
	ActionIssueTicket

	// ActionSendReminder means the payment was marked unverified.
	ActionSendReminder
)

func (a Action) String() string {
	switch a {
	case ActionIssueTicket:
		return "issue_ticket"
	case ActionSendReminder:
		return "send_reminder"
	default:
		return "none"
	}
}

// Classify decides the action for a row from its Verified and Sent cells.
// Any Verified value other than yes/no (blank, "pending", ...) is ActionNone.
func Classify(verified, sent string) Action {
	if ticket.FoldFlag(sent) == "yes" {
		return ActionNone
	}
	switch ticket.FoldFlag(verified) {
	case "yes":
		return ActionIssueTicket
	case "no":
		return ActionSendReminder
	default:
		return ActionNone
	}
}
