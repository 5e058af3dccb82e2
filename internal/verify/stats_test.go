package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/massmirchi/tickets/internal/ticket"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		n, d int64
		want string
	}{
		{0, 0, "0%"},
		{5, 0, "0%"},
		{0, 10, "0%"},
		{1, 3, "33%"},
		{2, 3, "67%"},
		{1, 2, "50%"},
		{1, 200, "1%"},
		{10, 10, "100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percent(tt.n, tt.d), "%d/%d", tt.n, tt.d)
	}
}

func TestCompute(t *testing.T) {
	h19 := time.Date(2025, 9, 13, 19, 0, 0, 0, time.UTC)
	h20 := h19.Add(time.Hour)
	h21 := h20.Add(time.Hour)

	s := Compute(ticket.Summary{
		EventName:    "Gabes 9-13",
		TicketsSent:  40,
		ValidScans:   30,
		InvalidScans: 2,
		ScansByHour: []ticket.HourCount{
			{Hour: h19, Count: 5},
			{Hour: h20, Count: 20},
			{Hour: h21, Count: 5},
		},
		InvalidByHour: []ticket.HourCount{{Hour: h20, Count: 2}},
	}, nil)

	assert.Equal(t, int64(10), s.NotScanned)
	assert.Equal(t, "75%", s.ScanRate)
	assert.Equal(t, "94%", s.SuccessRate)
	assert.Equal(t, BusiestHour{Hour: "2025-09-13 20:00", Count: 20}, s.BusiestHour)
	assert.Len(t, s.ScansByHour, 3)
	assert.Equal(t, HourStat{Hour: "2025-09-13 20:00", Count: 2}, s.InvalidByHour[0])
	assert.Equal(t, BusiestHour{Hour: "2025-09-13 20:00", Count: 2}, s.MostInvalidHour)
	assert.NotNil(t, s.Recipients)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(ticket.Summary{EventName: "E"}, time.UTC)

	assert.Equal(t, "0%", s.ScanRate)
	assert.Equal(t, "0%", s.SuccessRate)
	assert.Equal(t, BusiestHour{Hour: "N/A"}, s.BusiestHour)
	assert.Equal(t, BusiestHour{Hour: "N/A"}, s.MostInvalidHour)
	assert.Empty(t, s.ScansByHour)
}

func TestCompute_BusiestHourTieKeepsEarliest(t *testing.T) {
	h19 := time.Date(2025, 9, 13, 19, 0, 0, 0, time.UTC)

	s := Compute(ticket.Summary{
		ScansByHour: []ticket.HourCount{
			{Hour: h19, Count: 4},
			{Hour: h19.Add(time.Hour), Count: 4},
		},
	}, time.UTC)

	assert.Equal(t, "2025-09-13 19:00", s.BusiestHour.Hour)
}

func TestCompute_MostInvalidHourTieKeepsEarliest(t *testing.T) {
	h19 := time.Date(2025, 9, 13, 19, 0, 0, 0, time.UTC)

	s := Compute(ticket.Summary{
		ScansByHour: []ticket.HourCount{{Hour: h19, Count: 9}},
		InvalidByHour: []ticket.HourCount{
			{Hour: h19, Count: 1},
			{Hour: h19.Add(time.Hour), Count: 3},
			{Hour: h19.Add(2 * time.Hour), Count: 3},
		},
	}, time.UTC)

	assert.Equal(t, BusiestHour{Hour: "2025-09-13 20:00", Count: 3}, s.MostInvalidHour)
	assert.Equal(t, BusiestHour{Hour: "2025-09-13 19:00", Count: 9}, s.BusiestHour)
}

func TestCompute_Location(t *testing.T) {
	loc := time.FixedZone("EDT", -4*3600)
	h := time.Date(2025, 9, 13, 23, 0, 0, 0, time.UTC)

	s := Compute(ticket.Summary{ScansByHour: []ticket.HourCount{{Hour: h, Count: 1}}}, loc)
	assert.Equal(t, "2025-09-13 19:00", s.ScansByHour[0].Hour)
}
