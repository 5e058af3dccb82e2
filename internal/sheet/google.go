package sheet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheet is a Source backed by one tab of a Google spreadsheet.
type GoogleSheet struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewGoogleSheet authenticates with a service-account key file and returns
// a source for the named tab.
func NewGoogleSheet(ctx context.Context, credentialsPath, spreadsheetID, tab string) (*GoogleSheet, error) {
	key, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewGoogleSheetWithService(svc, spreadsheetID, tab), nil
}

// NewGoogleSheetWithService wraps an existing service. Tests use it to point
// the client at a local server.
func NewGoogleSheetWithService(svc *sheets.Service, spreadsheetID, tab string) *GoogleSheet {
	return &GoogleSheet{svc: svc, spreadsheetID: spreadsheetID, tab: tab}
}

// Rows fetches every populated row of the tab as formatted text.
func (g *GoogleSheet) Rows(ctx context.Context) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.quotedTab()).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", g.tab, err)
	}
	return toGrid(resp.Values), nil
}

// AppendHeaderColumn writes name into the first empty header cell.
func (g *GoogleSheet) AppendHeaderColumn(ctx context.Context, name string) error {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.quotedTab()+"!1:1").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	width := 0
	if len(resp.Values) > 0 {
		width = len(resp.Values[0])
	}
	return g.WriteCell(ctx, 1, width, name)
}

// WriteCell sets one cell. Values are written RAW so "Yes" is never
// reinterpreted by the sheet.
func (g *GoogleSheet) WriteCell(ctx context.Context, row, col int, value string) error {
	ref := g.quotedTab() + "!" + CellRef(row, col)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, ref, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", ref, err)
	}
	return nil
}

func (g *GoogleSheet) quotedTab() string {
	return "'" + strings.ReplaceAll(g.tab, "'", "''") + "'"
}

func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid
}
