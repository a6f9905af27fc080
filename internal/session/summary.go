package session

import (
	"context"
	"time"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/store"
)

// Summary is the listing view of a stored bid.
type Summary struct {
	Key       string          `json:"key"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	GroupName string          `json:"group_name"`
	EventName string          `json:"event_name"`
	EventType model.EventType `json:"event_type"`
	StartDate model.Date      `json:"start_date"`
	SiteName  string          `json:"site_name"`
	Warnings  int             `json:"warnings,omitempty"`
	Invalid   bool            `json:"invalid,omitempty"`
}

// List summarizes every stored bid in key order. Entries that no longer
// decode are reported as Invalid rather than failing the listing.
func List(ctx context.Context, st store.Store) ([]Summary, error) {
	entries, err := st.List(ctx, store.KindBids)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		sum := Summary{Key: e.Key, Version: e.Version, UpdatedAt: e.UpdatedAt}
		b, warnings, err := model.Decode(e.Payload)
		if err != nil {
			sum.Invalid = true
			out = append(out, sum)
			continue
		}
		sum.GroupName = b.GroupName
		sum.EventName = b.EventName
		sum.EventType = b.EventType
		sum.StartDate = b.StartDate
		sum.SiteName = b.SiteName
		sum.Warnings = len(warnings)
		out = append(out, sum)
	}
	return out, nil
}
