package sheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	mu      sync.Mutex
	grid    [][]interface{}
	updates []sheetUpdate
}

type sheetUpdate struct {
	Path       string
	InputOpt   string
	ValueRange sheets.ValueRange
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		values := f.grid
		if strings.HasSuffix(r.URL.Path, "!1:1") && len(values) > 0 {
			values = values[:1]
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{MajorDimension: "ROWS", Values: values})
	case http.MethodPut:
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates = append(f.updates, sheetUpdate{
			Path:       r.URL.Path,
			InputOpt:   r.URL.Query().Get("valueInputOption"),
			ValueRange: vr,
		})
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{UpdatedCells: 1})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newTestGoogleSheet(t *testing.T, api *fakeSheetsAPI) *GoogleSheet {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewGoogleSheetWithService(svc, "sheet-1", "Signups")
}

func TestGoogleSheet_Rows(t *testing.T) {
	api := &fakeSheetsAPI{grid: [][]interface{}{
		{"Email", "Full Name", "Verified"},
		{"a@x.com", "A", "yes"},
		{"b@x.com"},
	}}
	src := newTestGoogleSheet(t, api)

	grid, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Email", "Full Name", "Verified"},
		{"a@x.com", "A", "yes"},
		{"b@x.com"},
	}, grid)
}

func TestGoogleSheet_AppendHeaderColumnWritesPastLastHeader(t *testing.T) {
	api := &fakeSheetsAPI{grid: [][]interface{}{
		{"Email", "Full Name", "Verified"},
	}}
	src := newTestGoogleSheet(t, api)

	require.NoError(t, src.AppendHeaderColumn(context.Background(), "Sent"))

	require.Len(t, api.updates, 1)
	assert.True(t, strings.HasSuffix(api.updates[0].Path, "'Signups'!D1"), "path %s", api.updates[0].Path)
	assert.Equal(t, "RAW", api.updates[0].InputOpt)
	assert.Equal(t, [][]interface{}{{"Sent"}}, api.updates[0].ValueRange.Values)
}

func TestGoogleSheet_WriteCell(t *testing.T) {
	api := &fakeSheetsAPI{}
	src := newTestGoogleSheet(t, api)

	require.NoError(t, src.WriteCell(context.Background(), 2, 4, "Yes"))

	require.Len(t, api.updates, 1)
	assert.True(t, strings.HasSuffix(api.updates[0].Path, "'Signups'!E2"), "path %s", api.updates[0].Path)
}

func TestGoogleSheet_QuotedTab(t *testing.T) {
	g := &GoogleSheet{tab: "Bob's Form"}
	assert.Equal(t, "'Bob''s Form'", g.quotedTab())
}
