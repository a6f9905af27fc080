// Package session holds the bid being edited and applies explicit updates to
// it. Every surface (CLI, form editor, dashboard, HTTP API) mutates a bid
// through a Session, never through shared state.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/logger"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/store"
)

// ErrUnnamed is returned when saving a bid that has no group or event name,
// since its store key would be empty.
var ErrUnnamed = errors.New("bid needs a group name and an event name before it can be saved")

// Options configure a Session.
type Options struct {
	Projection projection.Options
	Logger     *zap.Logger
	Now        func() time.Time

	// Locker serializes saves per key. Sessions sharing a store within one
	// process should share a Locker.
	Locker *store.Locker
}

// Session is one editing session over a single bid.
type Session struct {
	store  store.Store
	locker *store.Locker
	proj   projection.Options
	log    *zap.Logger

	bid     model.BidRecord
	key     string // key the bid was loaded from or last saved under
	version int64  // stored version of key; 0 when never stored
	issues  []model.Issue
	report  *projection.Report
	dirty   bool
}

// New starts a session on a blank bid. st may be nil for a session that is
// never persisted.
func New(st store.Store, opts Options) *Session {
	if opts.Locker == nil {
		opts.Locker = store.NewLocker()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	bid := model.NewBidAt(now())
	return &Session{
		store:  st,
		locker: opts.Locker,
		proj:   opts.Projection,
		log:    logger.Named(opts.Logger, "session"),
		bid:    bid,
		issues: model.Validate(bid),
	}
}

// Bid returns a copy of the current bid.
func (s *Session) Bid() model.BidRecord { return s.bid.Clone() }

// Key returns the store key the session is attached to, or "" for a bid that
// has not been loaded or saved.
func (s *Session) Key() string { return s.key }

// Version returns the stored version the session last saw.
func (s *Session) Version() int64 { return s.version }

// Issues returns the validation findings of the current bid.
func (s *Session) Issues() []model.Issue { return s.issues }

// Dirty reports whether the bid changed since it was last loaded or saved.
func (s *Session) Dirty() bool { return s.dirty }

// LastReport returns the most recent projection, if the bid has not changed
// since it was computed.
func (s *Session) LastReport() (projection.Report, bool) {
	if s.report == nil {
		return projection.Report{}, false
	}
	return *s.report, true
}

// Reset replaces the bid and detaches the session from any stored entry.
func (s *Session) Reset(b model.BidRecord) {
	s.replace(b.Clone())
	s.key, s.version = "", 0
	s.dirty = true
}

func (s *Session) replace(b model.BidRecord) {
	s.bid = b
	s.issues = model.Validate(b)
	s.report = nil
}

// Apply runs the updates against a copy of the bid. The session only sees
// the result when every update succeeds.
func (s *Session) Apply(updates ...Update) error {
	next := s.bid.Clone()
	for _, u := range updates {
		if err := u(&next); err != nil {
			return err
		}
	}
	s.replace(next)
	s.dirty = true
	return nil
}

// Project runs the projection engine over the current bid and remembers the
// report.
func (s *Session) Project(in projection.Inputs) (projection.Report, error) {
	r, err := projection.Project(s.bid, in, s.proj)
	if err != nil {
		return projection.Report{}, err
	}
	s.report = &r
	s.log.Debug("projected",
		zap.String("mode", string(r.Mode)),
		zap.Int("attendees", r.TotalAttendees),
		zap.String("total_net", r.TotalNet.StringFixed(2)),
	)
	return r, nil
}

// Save writes the bid under its key. Saving over the entry the session was
// loaded from requires that nobody else saved it in between; saving under a
// new key requires that the key is free.
func (s *Session) Save(ctx context.Context) (int64, error) {
	key := s.bid.Key()
	ifVersion := int64(0)
	if key == s.key {
		ifVersion = s.version
	}
	return s.save(ctx, key, ifVersion)
}

// Overwrite writes the bid under its key regardless of what is stored there.
func (s *Session) Overwrite(ctx context.Context) (int64, error) {
	return s.save(ctx, s.bid.Key(), store.AnyVersion)
}

func (s *Session) save(ctx context.Context, key string, ifVersion int64) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("session has no store")
	}
	if model.Slug(s.bid.GroupName) == "" || model.Slug(s.bid.EventName) == "" {
		return 0, ErrUnnamed
	}
	data, err := model.Encode(s.bid)
	if err != nil {
		return 0, fmt.Errorf("encoding bid: %w", err)
	}

	unlock := s.locker.Lock(store.KindBids, key)
	defer unlock()

	v, err := s.store.Save(ctx, store.KindBids, key, data, ifVersion)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.log.Warn("save conflict", zap.String("key", key), zap.Int64("if_version", ifVersion))
		}
		return 0, fmt.Errorf("saving bid %s: %w", key, err)
	}
	s.key, s.version, s.dirty = key, v, false
	s.log.Info("bid saved", zap.String("key", key), zap.Int64("version", v))
	return v, nil
}

// Load replaces the bid with the stored entry under key. Fields the decoder
// skipped come back as warnings.
func (s *Session) Load(ctx context.Context, key string) ([]model.Warning, error) {
	if s.store == nil {
		return nil, fmt.Errorf("session has no store")
	}
	e, err := s.store.Load(ctx, store.KindBids, key)
	if err != nil {
		return nil, fmt.Errorf("loading bid %s: %w", key, err)
	}
	b, warnings, err := model.Decode(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding bid %s: %w", key, err)
	}
	s.replace(b)
	s.key, s.version, s.dirty = key, e.Version, false
	s.logWarnings(key, warnings)
	return warnings, nil
}

// Import replaces the bid with a JSON payload from outside the store. The
// session stays detached until the bid is saved.
func (s *Session) Import(data []byte) ([]model.Warning, error) {
	b, warnings, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	s.replace(b)
	s.key, s.version, s.dirty = "", 0, true
	s.logWarnings("import", warnings)
	return warnings, nil
}

// Delete removes the stored entry the session is attached to.
func (s *Session) Delete(ctx context.Context) error {
	if s.store == nil || s.key == "" {
		return fmt.Errorf("bid is not stored")
	}
	unlock := s.locker.Lock(store.KindBids, s.key)
	defer unlock()
	if err := s.store.Delete(ctx, store.KindBids, s.key); err != nil {
		return fmt.Errorf("deleting bid %s: %w", s.key, err)
	}
	s.log.Info("bid deleted", zap.String("key", s.key))
	s.key, s.version, s.dirty = "", 0, true
	return nil
}

func (s *Session) logWarnings(source string, warnings []model.Warning) {
	for _, w := range warnings {
		s.log.Warn("field skipped", zap.String("source", source), zap.String("field", w.Field), zap.String("reason", w.Message))
	}
}
