package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testData = Data{
	BuyerName: "Priya Shah",
	EventName: "Mass Mirchi X Gabe's Underground Bollywood Party",
	Organizer: "Mass Mirchi Team",
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTicketMessage_Golden(t *testing.T) {
	tmpl, err := LoadTemplates("")
	require.NoError(t, err)

	png := []byte{0x89, 'P', 'N', 'G'}
	msg, err := tmpl.TicketMessage("priya@example.com", testData, png)
	require.NoError(t, err)

	assert.Equal(t, "priya@example.com", msg.To)
	assert.Equal(t, "Your Ticket for Mass Mirchi X Gabe's Underground Bollywood Party", msg.Subject)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "ticket_Mass Mirchi X Gabe's Underground Bollywood Party.png", msg.Attachment.Name)
	assert.Equal(t, "image/png", msg.Attachment.ContentType)
	assert.Equal(t, png, msg.Attachment.Data)

	newGolden(t).Assert(t, "ticket_body", []byte(msg.Body))
}

func TestReminderMessage_Golden(t *testing.T) {
	tmpl, err := LoadTemplates("")
	require.NoError(t, err)

	msg, err := tmpl.ReminderMessage("priya@example.com", testData)
	require.NoError(t, err)

	assert.Equal(t, "Payment Verification Required for Your Ticket", msg.Subject)
	assert.Nil(t, msg.Attachment)

	newGolden(t).Assert(t, "reminder_body", []byte(msg.Body))
}

func TestTemplates_DefaultsForEmptyFields(t *testing.T) {
	tmpl, err := LoadTemplates("")
	require.NoError(t, err)

	msg, err := tmpl.ReminderMessage("x@example.com", Data{EventName: "Spoke 4-4"})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Dear guest,")
	assert.Contains(t, msg.Body, "The Organizers")
}

func TestLoadTemplates_CustomDir(t *testing.T) {
	dir := t.TempDir()
	custom := `{{define "ticket.subject"}}Entry pass: {{.EventName | upper}}{{end}}
{{define "ticket.body"}}Hi {{.BuyerName}}{{end}}
{{define "reminder.subject"}}Pay up{{end}}
{{define "reminder.body"}}Hi {{.BuyerName}}, please pay{{end}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "all.tmpl"), []byte(custom), 0644))

	tmpl, err := LoadTemplates(dir)
	require.NoError(t, err)

	msg, err := tmpl.TicketMessage("a@x.com", Data{BuyerName: "A", EventName: "spoke"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Entry pass: SPOKE", msg.Subject)
	assert.Equal(t, "Hi A", msg.Body)
}

func TestLoadTemplates_MissingDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.tmpl"), []byte(`{{define "ticket.subject"}}x{{end}}`), 0644))

	_, err := LoadTemplates(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket.body")
}

func TestAttachmentName_StripsSeparators(t *testing.T) {
	assert.Equal(t, "ticket_Gabes 9-13.png", AttachmentName("Gabes 9/13"))
}
