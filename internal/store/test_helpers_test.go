package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/massmirchi/tickets/internal/testutil"
	"github.com/massmirchi/tickets/internal/ticket"
)

// createTestStore creates a new store in a temp directory with a stepping clock.
func createTestStore(t *testing.T) (*Store, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2025, 9, 13, 19, 0, 0, 0, time.UTC), time.Minute)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// createTestTicket creates a ticket with minimal required fields.
func createTestTicket(id, event string) ticket.Ticket {
	return ticket.Ticket{
		ID:           id,
		Email:        id + "@example.com",
		EventName:    event,
		BuyerName:    "Buyer " + id,
		ArtifactPath: "tickets/ticket_" + id + ".png",
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
