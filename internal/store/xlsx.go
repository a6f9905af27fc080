package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// maxCellChars is the per-cell text limit of the xlsx format.
const maxCellChars = 32767

var workbookHeader = []any{"key", "version", "updated_at", "payload"}

// Workbook is a Store backed by a local .xlsx file with one sheet per kind.
// The workbook is held in memory and written back after every change.
type Workbook struct {
	mu   sync.Mutex
	path string
	f    *excelize.File
	log  *zap.Logger
}

// OpenWorkbook opens the workbook at path, creating it when missing.
func OpenWorkbook(path string, log *zap.Logger) (*Workbook, error) {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), string(Kinds[0])); err != nil {
			return nil, fmt.Errorf("set sheet name: %w", err)
		}
	}

	w := &Workbook{path: path, f: f, log: log}
	for _, kind := range Kinds {
		if err := w.ensureSheet(string(kind)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := w.f.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return w, nil
}

func (w *Workbook) ensureSheet(name string) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	header, err := w.f.GetCellValue(name, "A1")
	if err != nil {
		return err
	}
	if header == "" {
		if err := w.f.SetSheetRow(name, "A1", &workbookHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

// find returns the 1-based row of key and its parsed entry, or row 0.
func (w *Workbook) find(kind Kind, key string) (int, Entry, error) {
	rows, err := w.f.GetRows(string(kind))
	if err != nil {
		return 0, Entry{}, err
	}
	for i, r := range rows {
		if i == 0 || len(r) == 0 || r[0] != key {
			continue
		}
		return i + 1, rowEntry(kind, r), nil
	}
	return 0, Entry{}, nil
}

func rowEntry(kind Kind, r []string) Entry {
	cell := func(i int) string {
		if i < len(r) {
			return r[i]
		}
		return ""
	}
	e := Entry{Kind: kind, Key: cell(0)}
	e.Version, _ = strconv.ParseInt(cell(1), 10, 64)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, cell(2))
	e.Payload = []byte(cell(3))
	return e
}

func (w *Workbook) Save(_ context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	if len(payload) > maxCellChars {
		return 0, fmt.Errorf("payload of %d bytes exceeds the %d character cell limit", len(payload), maxCellChars)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	rowNum, cur, err := w.find(kind, key)
	if err != nil {
		return 0, err
	}
	if err := checkVersion(kind, key, cur.Version, ifVersion); err != nil {
		return 0, err
	}
	if rowNum == 0 {
		rows, err := w.f.GetRows(string(kind))
		if err != nil {
			return 0, err
		}
		rowNum = len(rows) + 1
	}

	next := cur.Version + 1
	values := []any{key, next, now().Format(time.RFC3339), string(payload)}
	if err := w.f.SetSheetRow(string(kind), "A"+strconv.Itoa(rowNum), &values); err != nil {
		return 0, fmt.Errorf("write row: %w", err)
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return 0, fmt.Errorf("writing workbook: %w", err)
	}
	w.log.Debug("row written", zap.String("sheet", string(kind)), zap.Int("row", rowNum))
	return next, nil
}

func (w *Workbook) Load(_ context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	rowNum, e, err := w.find(kind, key)
	if err != nil {
		return Entry{}, err
	}
	if rowNum == 0 {
		return Entry{}, notFound(kind, key)
	}
	return e, nil
}

func (w *Workbook) List(_ context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.f.GetRows(string(kind))
	if err != nil {
		return nil, err
	}
	var out []Entry
	for i, r := range rows {
		if i == 0 || len(r) == 0 || r[0] == "" {
			continue
		}
		out = append(out, rowEntry(kind, r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (w *Workbook) Delete(_ context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	rowNum, _, err := w.find(kind, key)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return notFound(kind, key)
	}
	if err := w.f.RemoveRow(string(kind), rowNum); err != nil {
		return fmt.Errorf("remove row: %w", err)
	}
	return w.f.SaveAs(w.path)
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
