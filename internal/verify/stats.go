package verify

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/massmirchi/tickets/internal/ticket"
)

// HourLayout formats hour buckets in API and CLI output.
const HourLayout = "2006-01-02 15:00"

// BusiestHour is the hour with the most scans of one kind.
type BusiestHour struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

// HourStat is one hour bucket in output form.
type HourStat struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

// Stats is the analytics summary with derived figures.
type Stats struct {
	EventName    string `json:"eventName"`
	TicketsSent  int64  `json:"ticketsSent"`
	ValidScans   int64  `json:"validScans"`
	InvalidScans int64  `json:"invalidScans"`
	NotScanned   int64  `json:"notScanned"`

	// ScanRate is valid scans over tickets sent, as a whole percentage.
	ScanRate string `json:"scanRate"`

	// SuccessRate is valid scans over all scan attempts.
	SuccessRate string `json:"successRate"`

	BusiestHour     BusiestHour        `json:"busiestHour"`
	MostInvalidHour BusiestHour        `json:"mostInvalidHour"`
	LastUpdated     *time.Time         `json:"lastUpdated,omitempty"`
	ScansByHour     []HourStat         `json:"scansByHour"`
	InvalidByHour   []HourStat         `json:"invalidByHour"`
	Recipients      []ticket.Recipient `json:"recipients,omitempty"`
}

// Compute derives Stats from a stored summary. Hours are rendered in loc;
// nil means UTC.
func Compute(sum ticket.Summary, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	s := Stats{
		EventName:     sum.EventName,
		TicketsSent:   sum.TicketsSent,
		ValidScans:    sum.ValidScans,
		InvalidScans:  sum.InvalidScans,
		NotScanned:    sum.NotScanned(),
		ScanRate:      percent(sum.ValidScans, sum.TicketsSent),
		SuccessRate:   percent(sum.ValidScans, sum.ValidScans+sum.InvalidScans),
		LastUpdated:   sum.LastUpdated,
		ScansByHour:   hours(sum.ScansByHour, loc),
		InvalidByHour: hours(sum.InvalidByHour, loc),
		Recipients:    sum.Recipients,
	}
	if s.Recipients == nil {
		s.Recipients = []ticket.Recipient{}
	}
	s.BusiestHour = peak(s.ScansByHour)
	s.MostInvalidHour = peak(s.InvalidByHour)
	return s
}

// peak returns the bucket with the highest count; the earliest hour wins
// ties. An empty or all-zero series yields "N/A".
func peak(in []HourStat) BusiestHour {
	best := BusiestHour{Hour: "N/A"}
	for _, h := range in {
		if h.Count > best.Count {
			best = BusiestHour(h)
		}
	}
	return best
}

// percent returns n/d as a rounded whole percentage, "0%" when d is zero.
func percent(n, d int64) string {
	if d <= 0 {
		return "0%"
	}
	p := decimal.NewFromInt(n).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(d)).Round(0)
	return p.String() + "%"
}

func hours(in []ticket.HourCount, loc *time.Location) []HourStat {
	out := make([]HourStat, 0, len(in))
	for _, h := range in {
		out = append(out, HourStat{Hour: h.Hour.In(loc).Format(HourLayout), Count: h.Count})
	}
	return out
}
