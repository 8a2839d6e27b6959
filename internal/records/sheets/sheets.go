// Package sheets stores records in a Google spreadsheet with one tab per
// entity type. Row 1 of every tab holds the column headers and the first
// column is always Id.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/records"
)

const defaultCacheTTL = 10 * time.Minute

type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	// Options replace credential lookup entirely when set.
	Options  []goption.ClientOption
	CacheTTL time.Duration
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	// mu serialises writers so id assignment and row positions stay stable
	// within this process.
	mu      sync.Mutex
	sheetID *cache.LRU[int64]
	janitor *cache.Janitor
}

var _ records.Store = (*Store)(nil)

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	s := &Store{
		svc:           svc,
		spreadsheetID: id,
		logger:        logger,
		sheetID:       cache.NewLRU[int64](64, ttl),
	}
	s.janitor = cache.NewJanitor(logger, s.sheetID)
	s.janitor.Start(ttl)
	return s, nil
}

// newSheetsService initializes a Sheets service using service account
// credentials from the config, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	if len(cfg.Options) > 0 {
		return gsheet.NewService(ctx, cfg.Options...)
	}

	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	logger.InfoContext(ctx, "Creating Google Sheets service with service account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Close stops the metadata cache janitor.
func (s *Store) Close() error {
	if s.janitor != nil {
		s.janitor.Stop()
		s.janitor = nil
	}
	return nil
}

// EnsureTabs creates every missing tab and writes its header row. Existing
// tabs are left untouched.
func (s *Store) EnsureTabs(ctx context.Context, tabs map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.refreshTabs(ctx)
	if err != nil {
		return err
	}

	var missing []string
	for title := range tabs {
		if _, ok := existing[title]; !ok {
			missing = append(missing, title)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	reqs := make([]*gsheet.Request, 0, len(missing))
	for _, title := range missing {
		reqs = append(reqs, &gsheet.Request{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: title},
		}})
	}
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tabs %v: %w", missing, err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			p := reply.AddSheet.Properties
			s.sheetID.Set(p.Title, p.SheetId)
		}
	}

	data := make([]*gsheet.ValueRange, 0, len(missing))
	for _, title := range missing {
		header := withIDFirst(tabs[title])
		data = append(data, &gsheet.ValueRange{Range: title + "!A1", Values: [][]any{toRow(header)}})
	}
	if err := s.writeRows(ctx, data); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	s.logger.InfoContext(ctx, "Created spreadsheet tabs", "tabs", missing)
	return nil
}

// refreshTabs lists the spreadsheet's tabs and caches their sheet ids.
func (s *Store) refreshTabs(ctx context.Context) (map[string]int64, error) {
	sp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", s.spreadsheetID, err)
	}
	out := make(map[string]int64, len(sp.Sheets))
	for _, sh := range sp.Sheets {
		if sh.Properties == nil {
			continue
		}
		out[sh.Properties.Title] = sh.Properties.SheetId
		s.sheetID.Set(sh.Properties.Title, sh.Properties.SheetId)
	}
	return out, nil
}

func (s *Store) tabID(ctx context.Context, entity string) (int64, error) {
	return s.sheetID.GetOrLoad(entity, func() (int64, error) {
		tabs, err := s.refreshTabs(ctx)
		if err != nil {
			return 0, err
		}
		id, ok := tabs[entity]
		if !ok {
			return 0, fmt.Errorf("tab %s does not exist", entity)
		}
		return id, nil
	})
}

func (s *Store) load(ctx context.Context, entity string) (*tab, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, entity).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entity, err)
	}
	return parseTab(resp.Values), nil
}

func (s *Store) writeRows(ctx context.Context, data []*gsheet.ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

func (s *Store) Fetch(ctx context.Context, entity string, q records.Query) ([]records.Record, error) {
	t, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	return records.Apply(t.records(), q), nil
}

func (s *Store) Get(ctx context.Context, entity string, id int64, fields []string) (records.Record, error) {
	t, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	i := t.index(id)
	if i < 0 {
		return nil, records.ErrNotFound
	}
	return records.Project(t.rows[i], fields), nil
}

func (s *Store) Create(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	header, grew := extendHeader(t.header, recs)
	next := t.maxID() + 1

	out := make([]records.Result, 0, len(recs))
	rows := make([][]any, 0, len(recs))
	for _, in := range recs {
		if len(in) == 0 {
			out = append(out, records.Result{Message: "empty record"})
			continue
		}
		r := in.Clone()
		r[records.IDField] = next
		next++
		rows = append(rows, rowValues(header, r))
		out = append(out, records.Result{Success: true, Record: r})
	}

	if grew {
		hdr := []*gsheet.ValueRange{{Range: entity + "!A1", Values: [][]any{toRow(header)}}}
		if err := s.writeRows(ctx, hdr); err != nil {
			return nil, fmt.Errorf("extend %s header: %w", entity, err)
		}
	}
	if len(rows) > 0 {
		_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, entity+"!A1", &gsheet.ValueRange{Values: rows}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("append to %s: %w", entity, err)
		}
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	header, grew := extendHeader(t.header, recs)

	var data []*gsheet.ValueRange
	if grew {
		data = append(data, &gsheet.ValueRange{Range: entity + "!A1", Values: [][]any{toRow(header)}})
	}
	out := make([]records.Result, 0, len(recs))
	for _, in := range recs {
		id := in.ID()
		i := t.index(id)
		if i < 0 {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		merged := t.rows[i].Clone()
		for k, v := range in {
			if k != records.IDField {
				merged[k] = v
			}
		}
		t.rows[i] = merged
		data = append(data, &gsheet.ValueRange{
			Range:  fmt.Sprintf("%s!A%d", entity, sheetRow(i)),
			Values: [][]any{rowValues(header, merged)},
		})
		out = append(out, records.Result{Success: true, Record: merged.Clone()})
	}
	if err := s.writeRows(ctx, data); err != nil {
		return nil, fmt.Errorf("update %s: %w", entity, err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, entity string, ids []int64) ([]records.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}

	out := make([]records.Result, 0, len(ids))
	var rows []int
	for _, id := range ids {
		i := t.index(id)
		if i < 0 {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		rows = append(rows, i)
		out = append(out, records.Result{Success: true, Record: records.Record{records.IDField: id}})
	}
	if len(rows) == 0 {
		return out, nil
	}

	sheetID, err := s.tabID(ctx, entity)
	if err != nil {
		return nil, err
	}
	// Bottom-up so earlier deletions do not shift later ones.
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	reqs := make([]*gsheet.Request, 0, len(rows))
	for _, i := range rows {
		start := int64(sheetRow(i) - 1)
		reqs = append(reqs, &gsheet.Request{DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      start,
				EndIndex:        start + 1,
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		}})
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("delete rows from %s: %w", entity, err)
	}
	return out, nil
}

func withIDFirst(fields []string) []string {
	out := []string{records.IDField}
	for _, f := range fields {
		if f != records.IDField {
			out = append(out, f)
		}
	}
	return out
}
