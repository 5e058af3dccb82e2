package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		verified, sent string
		want           Action
	}{
		{"yes", "", ActionIssueTicket},
		{"Yes", "", ActionIssueTicket},
		{"  YES ", "no", ActionIssueTicket},
		{"yes", "Yes", ActionNone},
		{"yes", " yes ", ActionNone},
		{"no", "", ActionSendReminder},
		{"No", "", ActionSendReminder},
		{"no", "Yes", ActionNone},
		{"", "", ActionNone},
		{"pending", "", ActionNone},
		{"y", "", ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.verified+"/"+tt.sent, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.verified, tt.sent))
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "issue_ticket", ActionIssueTicket.String())
	assert.Equal(t, "send_reminder", ActionSendReminder.String())
}
