package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"fintrack/internal/log"
	"fintrack/internal/records"
)

const testSpreadsheet = "sheet-1"

// fakeSheets implements the slice of the Sheets v4 REST API the store uses.
type fakeSheets struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	ids    map[string]int64
	nextID int64
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{tabs: map[string][][]any{}, ids: map[string]int64{}}
}

func (f *fakeSheets) addTab(title string, rows ...[]any) {
	f.tabs[title] = rows
	f.ids[title] = f.nextID
	f.nextID++
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/v4/spreadsheets/" + testSpreadsheet
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == prefix:
		var sheets []map[string]any
		for title, id := range f.ids {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"sheetId": id, "title": title}})
		}
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet, "sheets": sheets})
	case r.Method == http.MethodPost && path == prefix+":batchUpdate":
		f.batchUpdate(w, r)
	case r.Method == http.MethodPost && path == prefix+"/values:batchUpdate":
		var req struct {
			Data []struct {
				Range  string  `json:"range"`
				Values [][]any `json:"values"`
			} `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, d := range req.Data {
			title, row := splitRange(d.Range)
			rows := f.tabs[title]
			for len(rows) < row {
				rows = append(rows, nil)
			}
			rows[row-1] = d.Values[0]
			f.tabs[title] = rows
		}
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
	case strings.HasPrefix(path, prefix+"/values/"):
		rng := strings.TrimPrefix(path, prefix+"/values/")
		if r.Method == http.MethodPost && strings.HasSuffix(rng, ":append") {
			title, _ := splitRange(strings.TrimSuffix(rng, ":append"))
			var vr struct {
				Values [][]any `json:"values"`
			}
			json.NewDecoder(r.Body).Decode(&vr)
			f.tabs[title] = append(f.tabs[title], vr.Values...)
			writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
			return
		}
		title, _ := splitRange(rng)
		rows, ok := f.tabs[title]
		if !ok {
			http.Error(w, `{"error":{"code":400,"message":"Unable to parse range"}}`, http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"range": rng, "values": rows})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requests []struct {
			AddSheet *struct {
				Properties struct {
					Title string `json:"title"`
				} `json:"properties"`
			} `json:"addSheet"`
			DeleteDimension *struct {
				Range struct {
					SheetID    int64 `json:"sheetId"`
					StartIndex int   `json:"startIndex"`
					EndIndex   int   `json:"endIndex"`
				} `json:"range"`
			} `json:"deleteDimension"`
		} `json:"requests"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	var replies []map[string]any
	for _, q := range req.Requests {
		switch {
		case q.AddSheet != nil:
			title := q.AddSheet.Properties.Title
			f.addTab(title)
			replies = append(replies, map[string]any{"addSheet": map[string]any{
				"properties": map[string]any{"sheetId": f.ids[title], "title": title},
			}})
		case q.DeleteDimension != nil:
			rg := q.DeleteDimension.Range
			for title, id := range f.ids {
				if id != rg.SheetID {
					continue
				}
				rows := f.tabs[title]
				f.tabs[title] = append(rows[:rg.StartIndex:rg.StartIndex], rows[rg.EndIndex:]...)
			}
			replies = append(replies, map[string]any{})
		}
	}
	writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet, "replies": replies})
}

func splitRange(rng string) (string, int) {
	title, cell, _ := strings.Cut(rng, "!")
	digits := strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, _ := strconv.Atoi(digits)
	return title, row
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, fake *fakeSheets) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		SpreadsheetID: testSpreadsheet,
		Options: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
		},
	}, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestParseTab(t *testing.T) {
	values := [][]any{
		{"Id", "Name", "amount_c", "is_custom_c"},
		{float64(1), "Coffee", float64(3.5), true},
		{"", "", "", ""},
		{float64(4), "Rent", float64(900)},
	}
	tb := parseTab(values)

	require.Len(t, tb.rows, 3)
	assert.Equal(t, int64(4), tb.maxID())
	assert.Equal(t, 2, tb.index(4))
	assert.Equal(t, -1, tb.index(2))

	recs := tb.records()
	require.Len(t, recs, 2)
	assert.Equal(t, json.Number("3.5"), recs[0]["amount_c"])
	assert.Equal(t, true, recs[0]["is_custom_c"])
	_, present := recs[1]["is_custom_c"]
	assert.False(t, present, "short rows leave trailing fields absent")
}

func TestExtendHeader(t *testing.T) {
	h, grew := extendHeader(nil, []records.Record{{"b_c": 1, "a_c": 2}})
	assert.True(t, grew)
	assert.Equal(t, []string{"Id", "Name", "a_c", "b_c"}, h)

	h, grew = extendHeader([]string{"Id", "Name", "a_c"}, []records.Record{{"a_c": 1}})
	assert.False(t, grew)
	assert.Equal(t, []string{"Id", "Name", "a_c"}, h)
}

func TestEnsureTabsCreatesMissingTabsWithHeaders(t *testing.T) {
	fake := newFakeSheets()
	fake.addTab("budget_c", []any{"Id", "Name"})
	s := newTestStore(t, fake)

	err := s.EnsureTabs(context.Background(), map[string][]string{
		"budget_c":   {"Id", "Name", "month_c"},
		"category_c": {"Id", "Name", "name_c"},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"Id", "Name", "name_c"}, fake.tabs["category_c"][0])
	assert.Equal(t, []any{"Id", "Name"}, fake.tabs["budget_c"][0], "existing tabs are untouched")
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets()
	fake.addTab("transaction_c", []any{"Id", "Name", "amount_c", "date_c"})
	s := newTestStore(t, fake)

	res, err := s.Create(ctx, "transaction_c", []records.Record{
		{"Name": "Coffee", "amount_c": json.Number("3.5"), "date_c": "2024-03-02"},
		{"Name": "Rent", "amount_c": json.Number("900"), "date_c": "2024-03-01", "type_c": "expense"},
		{},
	})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.True(t, res[0].Success)
	assert.Equal(t, int64(1), res[0].Record.ID())
	assert.Equal(t, int64(2), res[1].Record.ID())
	assert.False(t, res[2].Success)
	assert.Equal(t, []any{"Id", "Name", "amount_c", "date_c", "type_c"}, fake.tabs["transaction_c"][0])

	got, err := s.Fetch(ctx, "transaction_c", records.Query{
		OrderBy: []records.Order{{Field: "date_c"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rent", got[0]["Name"])
	assert.Equal(t, json.Number("900"), got[0]["amount_c"])

	upd, err := s.Update(ctx, "transaction_c", []records.Record{
		{"Id": int64(1), "amount_c": json.Number("4")},
		{"Id": int64(9), "amount_c": json.Number("1")},
	})
	require.NoError(t, err)
	require.Len(t, upd, 2)
	assert.True(t, upd[0].Success)
	assert.Equal(t, "Coffee", upd[0].Record["Name"])
	assert.False(t, upd[1].Success)

	rec, err := s.Get(ctx, "transaction_c", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, json.Number("4"), rec["amount_c"])

	del, err := s.Delete(ctx, "transaction_c", []int64{1, 7})
	require.NoError(t, err)
	assert.True(t, del[0].Success)
	assert.False(t, del[1].Success)

	_, err = s.Get(ctx, "transaction_c", 1, nil)
	assert.ErrorIs(t, err, records.ErrNotFound)
	rest, err := s.Fetch(ctx, "transaction_c", records.Query{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(2), rest[0].ID())
}

func TestFetchMissingTabFails(t *testing.T) {
	s := newTestStore(t, newFakeSheets())
	_, err := s.Fetch(context.Background(), "nope_c", records.Query{})
	assert.Error(t, err)
}
