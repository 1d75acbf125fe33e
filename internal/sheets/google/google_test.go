package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"myfinance/internal/core"
	"myfinance/internal/report"
)

// fakeSheets answers the handful of Sheets API calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	sheets   []string
	ids      [][]any
	appended [][]any
	updated  [][]any
	cleared  bool
	added    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.ids})
	case r.Method == http.MethodGet:
		var sheets []map[string]any
		for _, s := range f.sheets {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": s}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.sheets = append(f.sheets, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = io.WriteString(w, `{}`)
	case strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{"updatedRange": "2025 Transactions!A2:I2"}})
	case strings.HasSuffix(path, ":clear"):
		f.cleared = true
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updated = vr.Values
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Reports!A1:G12"})
	default:
		http.Error(w, "unexpected call "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id"})
}

func sampleTx() core.Transaction {
	return core.Transaction{
		ID:          7,
		UserID:      1,
		Type:        core.TypeExpense,
		Category:    "Food",
		Subcategory: core.StringPtr("Cafe"),
		Amount:      decimal.RequireFromString("12.5"),
		Currency:    "UAH",
		Date:        core.NewDate(2025, 3, 14),
	}
}

func TestAppendTransaction_NewSheetWritesHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendTransaction(context.Background(), sampleTx())
	require.NoError(t, err)
	assert.Equal(t, "2025 Transactions!A2:I2", ref)
	assert.Equal(t, []string{"2025 Transactions"}, fake.added)

	require.Len(t, fake.appended, 2)
	assert.Equal(t, "ID", fake.appended[0][0])
	row := fake.appended[1]
	assert.Equal(t, "2025-03-14", row[1])
	assert.Equal(t, "Food", row[3])
	assert.Equal(t, "Cafe", row[4])
	assert.Equal(t, "12.50", row[5])
	assert.Equal(t, "", row[7])
}

func TestAppendTransaction_CommentIsNotAFormula(t *testing.T) {
	fake := &fakeSheets{sheets: []string{"2025 Transactions"}, ids: [][]any{{"ID"}, {"3"}}}
	c := newTestClient(t, fake)

	tx := sampleTx()
	tx.Comment = core.StringPtr(`=HYPERLINK("http://x","y")`)
	tx.Amount = decimal.RequireFromString("-5")
	_, err := c.AppendTransaction(context.Background(), tx)
	require.NoError(t, err)

	require.Len(t, fake.appended, 1)
	row := fake.appended[0]
	assert.Equal(t, `'=HYPERLINK("http://x","y")`, row[7])
	assert.Equal(t, "-5.00", row[5])
	assert.Equal(t, "Cafe", row[4])
}

func TestLiteral(t *testing.T) {
	for in, want := range map[string]string{
		"":         "",
		"lunch":    "lunch",
		"=1+1":     "'=1+1",
		"+380":     "'+380",
		"-tip":     "'-tip",
		"@mention": "'@mention",
	} {
		assert.Equal(t, want, literal(in), in)
	}
}

func TestAppendTransaction_SkipsKnownID(t *testing.T) {
	fake := &fakeSheets{sheets: []string{"2025 Transactions"}, ids: [][]any{{"ID"}, {"7"}}}
	c := newTestClient(t, fake)

	ref, err := c.AppendTransaction(context.Background(), sampleTx())
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.Empty(t, fake.appended)
	assert.Empty(t, fake.added)
}

func TestAppendTransaction_ExistingSheetNoHeader(t *testing.T) {
	fake := &fakeSheets{sheets: []string{"2025 Transactions"}, ids: [][]any{{"ID"}, {"3"}}}
	c := newTestClient(t, fake)

	_, err := c.AppendTransaction(context.Background(), sampleTx())
	require.NoError(t, err)
	require.Len(t, fake.appended, 1)
}

func TestAppendTransaction_Invalid(t *testing.T) {
	c := &Client{}
	_, err := c.AppendTransaction(context.Background(), core.Transaction{})
	assert.Error(t, err)

	tx := sampleTx()
	_, err = c.AppendTransaction(context.Background(), tx)
	assert.ErrorContains(t, err, "not initialized")
}

func TestWriteTable(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	tbl := report.Table{
		Title:  "Transactions 2025-03",
		Header: []string{"Date", "Amount"},
		Rows:   [][]string{{"2025-03-14", "12.50"}},
		Totals: [][]string{{"expense", "12.50"}},
	}
	ref, err := c.WriteTable(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, "Reports!A1:G12", ref)
	assert.True(t, fake.cleared)
	assert.Equal(t, []string{"Reports"}, fake.added)

	require.NotEmpty(t, fake.updated)
	assert.Equal(t, "Transactions 2025-03", fake.updated[0][0])
	assert.Equal(t, "Date", fake.updated[1][0])
}

func TestNewClient_MissingConfig(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.ErrorContains(t, err, "missing spreadsheet id")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = NewClient(context.Background(), Config{SpreadsheetID: "x"})
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = NewClient(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/nonexistent/sa.json"})
	assert.ErrorContains(t, err, "read service account file")
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"2024 Transactions", 2025, "2024 Transactions"},
		{"  Spese ", 2026, "2026 Spese"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
