package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/export"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/sites"
	"github.com/meridies/eventbid/internal/store"
)

const maxBody = 1 << 20

// bidResponse is the body of bid reads and writes.
type bidResponse struct {
	Key      string           `json:"key"`
	Version  int64            `json:"version"`
	Bid      *model.BidRecord `json:"bid,omitempty"`
	Issues   []model.Issue    `json:"issues"`
	Warnings []string         `json:"warnings,omitempty"`
}

// projectionRequest takes either explicit sales figures or an attendance
// estimate with take rates.
type projectionRequest struct {
	projection.Inputs
	Attendance   *int     `json:"attendance,omitempty"`
	PartialShare *float64 `json:"partial_share,omitempty"`
	FeastRate    *float64 `json:"feast_rate,omitempty"`
	LodgingRate  *float64 `json:"lodging_rate,omitempty"`
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// storeError maps store sentinel errors onto HTTP statuses.
func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnknownKind), errors.Is(err, store.ErrInvalidKey), errors.Is(err, store.ErrInvalidPayload):
		abort(c, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store failure", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
		abort(c, http.StatusInternalServerError, "store failure")
	}
}

// ifVersion reads the If-Match header. Without it a write is unconditional.
func ifVersion(c *gin.Context) (int64, error) {
	h := strings.TrimSpace(c.GetHeader(store.VersionHeader))
	if h == "" || h == "*" {
		return store.AnyVersion, nil
	}
	h = strings.Trim(strings.TrimPrefix(h, "W/"), `"`)
	v, err := strconv.ParseInt(h, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s header %q", store.VersionHeader, h)
	}
	return v, nil
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody+1))
	if err != nil {
		abort(c, http.StatusBadRequest, "unreadable body")
		return nil, false
	}
	if len(body) > maxBody {
		abort(c, http.StatusRequestEntityTooLarge, "body too large")
		return nil, false
	}
	return body, true
}

func warningStrings(ws []model.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

func (s *Server) listBids(c *gin.Context) {
	list, err := session.List(c.Request.Context(), s.store)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getBid(c *gin.Context) {
	key := c.Param("key")
	e, err := s.store.Load(c.Request.Context(), store.KindBids, key)
	if err != nil {
		s.storeError(c, err)
		return
	}
	b, warnings, err := model.Decode(e.Payload)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.Header("ETag", strconv.FormatInt(e.Version, 10))
	c.JSON(http.StatusOK, bidResponse{
		Key:      key,
		Version:  e.Version,
		Bid:      &b,
		Issues:   nonNil(model.Validate(b)),
		Warnings: warningStrings(warnings),
	})
}

func (s *Server) putBid(c *gin.Context) {
	key := c.Param("key")
	version, err := ifVersion(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	b, warnings, err := model.Decode(body)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if got := b.Key(); got != key {
		abort(c, http.StatusBadRequest, fmt.Sprintf("group and event names give key %q, not %q", got, key))
		return
	}
	data, err := model.Encode(b)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	unlock := s.locker.Lock(store.KindBids, key)
	v, err := s.store.Save(c.Request.Context(), store.KindBids, key, data, version)
	unlock()
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.publish(EventSaved, store.KindBids, key, v)

	c.Header("ETag", strconv.FormatInt(v, 10))
	c.JSON(http.StatusOK, bidResponse{
		Key:      key,
		Version:  v,
		Issues:   nonNil(model.Validate(b)),
		Warnings: warningStrings(warnings),
	})
}

func (s *Server) deleteBid(c *gin.Context) {
	s.deleteKind(c, store.KindBids, c.Param("key"))
}

// loadBid loads and decodes the bid named by the :key parameter, aborting the
// request on failure.
func (s *Server) loadBid(c *gin.Context) (model.BidRecord, bool) {
	e, err := s.store.Load(c.Request.Context(), store.KindBids, c.Param("key"))
	if err != nil {
		s.storeError(c, err)
		return model.BidRecord{}, false
	}
	b, _, err := model.Decode(e.Payload)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return model.BidRecord{}, false
	}
	return b, true
}

func (s *Server) projectBid(c *gin.Context) {
	b, ok := s.loadBid(c)
	if !ok {
		return
	}

	var (
		req projectionRequest
		err error
	)
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid projection request: "+err.Error())
		return
	}
	in := req.Inputs
	if in.Mode == "" {
		in.Mode = s.cfg.Rates.Mode
	}
	if req.Attendance != nil {
		rates := s.cfg.Rates
		if req.PartialShare != nil {
			rates.PartialShare = *req.PartialShare
		}
		if req.FeastRate != nil {
			rates.FeastRate = *req.FeastRate
		}
		if req.LodgingRate != nil {
			rates.LodgingRate = *req.LodgingRate
		}
		in, err = projection.InputsFromRates(b, *req.Attendance, rates.PartialShare, rates.FeastRate, rates.LodgingRate, in.Mode)
		if err != nil {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	r, err := projection.Project(b, in, s.cfg.Projection)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, projection.ErrNegativeInput) {
			status = http.StatusUnprocessableEntity
		}
		abort(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, r)
}

var exportContentTypes = map[export.Format]string{
	export.FormatJSON: "application/json",
	export.FormatCSV:  "text/csv; charset=utf-8",
	export.FormatPDF:  "application/pdf",
	export.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ProjectionErrorHeader explains why an export carries no projection.
const ProjectionErrorHeader = "X-Projection-Error"

// exportBid renders a bid with the projection at its expected attendance, or
// at ?attendance=N, in the ?format= requested (json by default).
func (s *Server) exportBid(c *gin.Context) {
	f, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	b, ok := s.loadBid(c)
	if !ok {
		return
	}

	attendance := b.ExpectedAttendance
	if q := c.Query("attendance"); q != "" {
		attendance, err = strconv.Atoi(q)
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid attendance "+strconv.Quote(q))
			return
		}
	}
	mode, err := model.ParseMode(c.DefaultQuery("mode", string(s.cfg.Rates.Mode)))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	rates := s.cfg.Rates
	in, err := projection.InputsFromRates(b, attendance, rates.PartialShare, rates.FeastRate, rates.LodgingRate, mode)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	snap := export.Snapshot{Bid: b, GeneratedAt: time.Now()}
	r, err := projection.Project(b, in, s.cfg.Projection)
	if err != nil {
		s.log.Warn("exporting without projection", zap.String("key", c.Param("key")), zap.Error(err))
		c.Header(ProjectionErrorHeader, err.Error())
	} else {
		snap.Report = &r
	}

	data, err := export.Render(f, snap)
	if err != nil {
		s.log.Error("export failed", zap.String("key", c.Param("key")), zap.String("format", string(f)), zap.Error(err))
		abort(c, http.StatusInternalServerError, "export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(b, f)))
	c.Data(http.StatusOK, exportContentTypes[f], data)
}

func (s *Server) listSites(c *gin.Context) {
	list, err := s.sites.List(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getSite(c *gin.Context) {
	e, err := s.sites.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, sites.ErrUnknownSite) {
			abort(c, http.StatusNotFound, err.Error())
			return
		}
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func parseKind(c *gin.Context) (store.Kind, bool) {
	kind, err := store.ParseKind(c.Param("kind"))
	if err != nil {
		abort(c, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

func (s *Server) listEntries(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	entries, err := s.store.List(c.Request.Context(), kind)
	if err != nil {
		s.storeError(c, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) getEntry(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	e, err := s.store.Load(c.Request.Context(), kind, c.Param("key"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.Header("ETag", strconv.FormatInt(e.Version, 10))
	c.JSON(http.StatusOK, e)
}

func (s *Server) putEntry(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	key := c.Param("key")
	version, err := ifVersion(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	unlock := s.locker.Lock(kind, key)
	v, err := s.store.Save(c.Request.Context(), kind, key, body, version)
	unlock()
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.publish(EventSaved, kind, key, v)

	c.Header("ETag", strconv.FormatInt(v, 10))
	c.JSON(http.StatusOK, store.Entry{Kind: kind, Key: key, Version: v})
}

func (s *Server) deleteEntry(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	s.deleteKind(c, kind, c.Param("key"))
}

func (s *Server) deleteKind(c *gin.Context, kind store.Kind, key string) {
	unlock := s.locker.Lock(kind, key)
	err := s.store.Delete(c.Request.Context(), kind, key)
	unlock()
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.publish(EventDeleted, kind, key, 0)
	c.Status(http.StatusNoContent)
}

func nonNil(issues []model.Issue) []model.Issue {
	if issues == nil {
		return []model.Issue{}
	}
	return issues
}
