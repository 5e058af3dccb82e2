package ticket

import "time"

// Ticket is the persisted record for one issued ticket.
type Ticket struct {
	ID           string `json:"ticket_id"`
	Email        string `json:"email_address"`
	EventName    string `json:"event_name"`
	BuyerName    string `json:"buyer_name"`
	ArtifactPath string `json:"qr_code_path"`

	// Scanned and ScannedAt are only set by the verification service.
	Scanned   bool       `json:"scanned"`
	ScannedAt *time.Time `json:"scanned_at,omitempty"`
}

// Recipient is one entry in an event's analytics recipient list.
type Recipient struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanOutcome classifies a single door scan.
type ScanOutcome string

const (
	// ScanValid is the first scan of a known ticket.
	ScanValid ScanOutcome = "valid"

	// ScanDuplicate is any later scan of an already scanned ticket.
	ScanDuplicate ScanOutcome = "duplicate"

	// ScanUnknown is a scan of an identifier that was never issued.
	ScanUnknown ScanOutcome = "unknown"
)

// ScanResult is returned by MarkScanned.
// Ticket is nil when Outcome is ScanUnknown.
type ScanResult struct {
	Outcome ScanOutcome
	Ticket  *Ticket
}

// Valid reports whether the scan should admit the holder.
func (r ScanResult) Valid() bool {
	return r.Outcome == ScanValid
}

// HourCount is the number of scans observed in one clock hour.
type HourCount struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}

// Summary is the read model behind the analytics endpoint and the stats
// command. Rates are derived by the verify package, not stored.
type Summary struct {
	EventName     string      `json:"event_name"`
	TicketsSent   int64       `json:"tickets_sent"`
	ValidScans    int64       `json:"valid_scans"`
	InvalidScans  int64       `json:"invalid_scans"`
	LastUpdated   *time.Time  `json:"last_updated,omitempty"`
	Recipients    []Recipient `json:"recipients,omitempty"`
	ScansByHour   []HourCount `json:"scans_by_hour,omitempty"`
	InvalidByHour []HourCount `json:"invalid_by_hour,omitempty"`
}

// NotScanned is the number of sent tickets never presented at the door.
func (s Summary) NotScanned() int64 {
	if n := s.TicketsSent - s.ValidScans; n > 0 {
		return n
	}
	return 0
}
