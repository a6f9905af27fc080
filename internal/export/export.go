// Package export renders a bid and its projection as JSON, CSV, PDF or XLSX.
// JSON is the persisted record and can be imported again; the other formats
// are snapshots.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
)

// Format names an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatPDF, FormatXLSX}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want json, csv, pdf or xlsx)", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Snapshot is everything an export renders.
type Snapshot struct {
	Bid         model.BidRecord
	Report      *projection.Report
	GeneratedAt time.Time
}

// Render produces the export bytes for one format.
func Render(f Format, s Snapshot) ([]byte, error) {
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now()
	}
	switch f {
	case FormatJSON:
		return JSON(s.Bid)
	case FormatCSV:
		return CSV(s.Bid, s.Report)
	case FormatPDF:
		return PDF(s)
	case FormatXLSX:
		return XLSX(s)
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// Write renders to w.
func Write(w io.Writer, f Format, s Snapshot) error {
	data, err := Render(f, s)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders to path, creating parent directories.
func WriteFile(path string, f Format, s Snapshot) error {
	data, err := Render(f, s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// FileName is the default export file name for a bid.
func FileName(b model.BidRecord, f Format) string {
	base := model.Slug(b.EventName)
	if base == "" {
		base = "event-bid"
	}
	if b.BidForYear > 0 {
		base = fmt.Sprintf("%s-%d", base, b.BidForYear)
	}
	return base + "." + string(f)
}

// JSON is the pretty-printed persisted record.
func JSON(b model.BidRecord) ([]byte, error) {
	data, err := model.EncodeIndent(b)
	if err != nil {
		return nil, fmt.Errorf("encoding bid: %w", err)
	}
	return append(data, '\n'), nil
}
