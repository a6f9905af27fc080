package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
)

// CSV writes one section,field,value row per field. Money is written as a
// plain two-place number.
func CSV(b model.BidRecord, r *projection.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"section", "field", "value"}); err != nil {
		return nil, err
	}
	for _, s := range Sections(b, r) {
		for _, f := range s.Fields {
			if err := w.Write([]string{s.Title, f.Key, sanitizeCell(f.Raw())}); err != nil {
				return nil, fmt.Errorf("writing csv: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeCell stops spreadsheet apps from reading user text as a formula.
// Plain negative numbers pass through.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '@', '\t', '\r', '|':
		return "'" + s
	case '-':
		if len(s) > 1 && (s[1] >= '0' && s[1] <= '9') {
			return s
		}
		return "'" + s
	}
	return s
}
