package verify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massmirchi/tickets/internal/store"
	"github.com/massmirchi/tickets/internal/testutil"
	"github.com/massmirchi/tickets/internal/ticket"
)

const (
	testEvent = "Gabes 9-13"
	knownID   = "0f8fad5b-d9cb-469f-a165-70867728950e"
	unknownID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testToken = "door-staff-analytics-token"
)

func newTestServer(t *testing.T, st Store) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(NewHandler(st, testEvent, logger), RouterOptions{APIToken: testToken}))
	t.Cleanup(srv.Close)
	return srv
}

func seededMemoryStore(t *testing.T) *testutil.MemoryStore {
	t.Helper()
	st := testutil.NewMemoryStore()
	require.NoError(t, st.SaveTicket(context.Background(), ticket.Ticket{
		ID:        knownID,
		Email:     "a@x.com",
		EventName: testEvent,
		BuyerName: "Priya Shah",
	}))
	return st
}

func postVerify(t *testing.T, srv *httptest.Server, body string) (int, VerifyResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/verify-ticket", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out VerifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestVerifyTicket_FirstScanValid(t *testing.T) {
	srv := newTestServer(t, seededMemoryStore(t))

	status, out := postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, out.Valid)
	assert.False(t, out.AlreadyScanned)
	require.NotNil(t, out.Details)
	assert.Equal(t, "a@x.com", out.Details.EmailAddress)
	assert.Equal(t, testEvent, out.Details.EventName)
	assert.Equal(t, "Priya Shah", out.Details.BuyerName)
}

func TestVerifyTicket_SecondScanAlreadyScanned(t *testing.T) {
	srv := newTestServer(t, seededMemoryStore(t))

	postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)
	status, out := postVerify(t, srv, `{"ticketId":" `+knownID+` "}`)

	assert.Equal(t, http.StatusOK, status)
	assert.False(t, out.Valid)
	assert.True(t, out.AlreadyScanned)
	assert.NotEmpty(t, out.Warning)
	require.NotNil(t, out.Details)
	assert.Equal(t, "a@x.com", out.Details.EmailAddress)
}

func TestVerifyTicket_Unknown(t *testing.T) {
	srv := newTestServer(t, seededMemoryStore(t))

	status, out := postVerify(t, srv, `{"ticketId":"`+unknownID+`"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.False(t, out.Valid)
	assert.False(t, out.AlreadyScanned)
	assert.Equal(t, "Ticket not found in database", out.Error)
	assert.Nil(t, out.Details)
}

func TestVerifyTicket_BadRequests(t *testing.T) {
	srv := newTestServer(t, seededMemoryStore(t))

	tests := []struct {
		name, body, wantErr string
	}{
		{"not json", `ticket please`, "Invalid request format"},
		{"missing id", `{}`, "Ticket ID is required"},
		{"blank id", `{"ticketId":"   "}`, "Ticket ID is required"},
		{"not a uuid", `{"ticketId":"https://example.com"}`, "Ticket ID is malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := postVerify(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, out.Valid)
			assert.Equal(t, tt.wantErr, out.Error)
		})
	}
}

func TestVerifyTicket_StoreError(t *testing.T) {
	st := seededMemoryStore(t)
	st.FailScan = true
	srv := newTestServer(t, st)

	status, out := postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Database transaction error", out.Error)
}

func TestAnalytics(t *testing.T) {
	st := seededMemoryStore(t)
	st.Now = testutil.NewClock(time.Date(2025, 9, 13, 19, 5, 0, 0, time.UTC), time.Minute).Now
	ctx := context.Background()
	require.NoError(t, st.IncrementAnalytics(ctx, testEvent, ticket.Recipient{Email: "a@x.com", Name: "Priya Shah"}))
	srv := newTestServer(t, st)

	postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)
	postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)

	resp := getAnalytics(t, srv.URL, "Bearer "+testToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, testEvent, s.EventName)
	assert.Equal(t, int64(1), s.TicketsSent)
	assert.Equal(t, int64(1), s.ValidScans)
	assert.Equal(t, int64(1), s.InvalidScans)
	assert.Equal(t, "100%", s.ScanRate)
	assert.Equal(t, "50%", s.SuccessRate)
	require.Len(t, s.Recipients, 1)
}

func analyticsURL(base string) string {
	return base + "/api/analytics/" + strings.ReplaceAll(testEvent, " ", "%20")
}

func getAnalytics(t *testing.T, base, auth string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, analyticsURL(base), nil)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAnalytics_RequiresToken(t *testing.T) {
	srv := newTestServer(t, seededMemoryStore(t))

	for name, auth := range map[string]string{
		"missing":    "",
		"wrong":      "Bearer not-the-token",
		"not bearer": testToken,
	} {
		t.Run(name, func(t *testing.T) {
			resp := getAnalytics(t, srv.URL, auth)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		})
	}

	resp := getAnalytics(t, srv.URL, "Bearer "+testToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalytics_DisabledWithoutToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(NewHandler(seededMemoryStore(t), testEvent, logger), RouterOptions{}))
	t.Cleanup(srv.Close)

	resp := getAnalytics(t, srv.URL, "Bearer anything")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, out := postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)
	assert.True(t, out.Valid, "verify stays public")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testutil.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(NewHandler(testutil.NewMemoryStore(), testEvent, logger), RouterOptions{Origins: []string{"https://scan.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/verify-ticket", nil)
	req.Header.Set("Origin", "https://scan.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://scan.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestVerifyTicket_SQLiteStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "tickets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveTicket(context.Background(), ticket.Ticket{
		ID:        knownID,
		Email:     "a@x.com",
		EventName: testEvent,
	}))
	srv := newTestServer(t, st)

	_, first := postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)
	_, second := postVerify(t, srv, `{"ticketId":"`+knownID+`"}`)

	assert.True(t, first.Valid)
	assert.True(t, second.AlreadyScanned)
	assert.Equal(t, "Unknown buyer", second.Details.BuyerName)
}
