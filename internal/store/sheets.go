package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/meridies/eventbid/internal/config"
)

// Sheets is a Store backed by a Google spreadsheet with one tab per kind,
// laid out like the local workbook. The API has no transactions, so version
// checks are serialized in-process only.
type Sheets struct {
	mu            sync.Mutex
	service       *sheetsapi.Service
	spreadsheetID string
	log           *zap.Logger
}

// OpenSheets builds a Google Sheets backed store and makes sure every kind has
// its tab. Extra client options are appended after the credentials.
func OpenSheets(ctx context.Context, cfg config.SheetsConfig, log *zap.Logger, opts ...option.ClientOption) (*Sheets, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets store: spreadsheet_id is not set")
	}
	if log == nil {
		log = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	service, err := sheetsapi.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	s := &Sheets{service: service, spreadsheetID: cfg.SpreadsheetID, log: log}
	if err := s.ensureTabs(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheets) ensureTabs(ctx context.Context) error {
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	have := make(map[string]bool)
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			have[sh.Properties.Title] = true
		}
	}

	var reqs []*sheetsapi.Request
	for _, kind := range Kinds {
		if !have[string(kind)] {
			reqs = append(reqs, &sheetsapi.Request{
				AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: string(kind)}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tabs: %w", err)
	}
	for _, kind := range Kinds {
		if have[string(kind)] {
			continue
		}
		header := &sheetsapi.ValueRange{Values: [][]any{workbookHeader}}
		_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, string(kind)+"!A1:D1", header).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header for %s: %w", kind, err)
		}
	}
	s.log.Info("spreadsheet tabs created", zap.Int("count", len(reqs)))
	return nil
}

// readRows returns data rows (header excluded) with their 1-based row numbers.
func (s *Sheets) readRows(ctx context.Context, kind Kind) ([]int, []Entry, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, string(kind)+"!A2:D").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read range %s: %w", kind, err)
	}
	var nums []int
	var entries []Entry
	for i, raw := range resp.Values {
		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = fmt.Sprint(v)
		}
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		nums = append(nums, i+2)
		entries = append(entries, rowEntry(kind, cells))
	}
	return nums, entries, nil
}

func (s *Sheets) find(ctx context.Context, kind Kind, key string) (int, Entry, error) {
	nums, entries, err := s.readRows(ctx, kind)
	if err != nil {
		return 0, Entry{}, err
	}
	for i, e := range entries {
		if e.Key == key {
			return nums[i], e, nil
		}
	}
	return 0, Entry{}, nil
}

func (s *Sheets) Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	if len(payload) > maxCellChars {
		return 0, fmt.Errorf("payload of %d bytes exceeds the %d character cell limit", len(payload), maxCellChars)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rowNum, cur, err := s.find(ctx, kind, key)
	if err != nil {
		return 0, err
	}
	if err := checkVersion(kind, key, cur.Version, ifVersion); err != nil {
		return 0, err
	}

	next := cur.Version + 1
	vr := &sheetsapi.ValueRange{Values: [][]any{{key, next, now().Format(time.RFC3339), string(payload)}}}
	if rowNum > 0 {
		rng := fmt.Sprintf("%s!A%d:D%d", kind, rowNum, rowNum)
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(s.spreadsheetID, string(kind)+"!A:D", vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
	}
	if err != nil {
		return 0, fmt.Errorf("write row %s/%s: %w", kind, key, err)
	}
	s.log.Debug("row written to sheet", zap.String("kind", string(kind)), zap.String("key", key))
	return next, nil
}

func (s *Sheets) Load(ctx context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	rowNum, e, err := s.find(ctx, kind, key)
	if err != nil {
		return Entry{}, err
	}
	if rowNum == 0 {
		return Entry{}, notFound(kind, key)
	}
	return e, nil
}

func (s *Sheets) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	_, entries, err := s.readRows(ctx, kind)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete blanks the row; blank rows are skipped on read.
func (s *Sheets) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rowNum, _, err := s.find(ctx, kind, key)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return notFound(kind, key)
	}
	rng := string(kind) + "!A" + strconv.Itoa(rowNum) + ":D" + strconv.Itoa(rowNum)
	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %s: %w", rng, err)
	}
	return nil
}

func (s *Sheets) Close() error { return nil }
