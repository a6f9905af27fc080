package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/store"
)

const coronation = `{
	"group_name": "Owlsherst",
	"event_name": "Coronation",
	"site_flat_fee": 1200,
	"site_cost_per_person": 5,
	"price_full": 35,
	"price_partial": 20,
	"feast_price": 20,
	"feast_cost_per_person": 15,
	"feast_capacity": 80,
	"beds_top_qty": 20,
	"beds_top_price": 5,
	"beds_bottom_qty": 20,
	"beds_bottom_price": 10
}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(Config{Driver: "memory", EventsBuffer: 3}, store.NewMemory(), zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response has no request ID")
	}

	resp = do(t, http.MethodGet, ts.URL+"/healthz", "", map[string]string{RequestIDHeader: "abc-123"})
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want the caller's", got)
	}
}

func TestBidLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/v1/bids/owlsherst--coronation"

	resp := do(t, http.MethodGet, url, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET missing = %d, want 404", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, url, coronation, map[string]string{"If-Match": "0"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT create = %d, want 200", resp.StatusCode)
	}
	var put bidResponse
	decode(t, resp, &put)
	if put.Version != 1 || resp.Header.Get("ETag") != "1" {
		t.Errorf("created version = %d, etag %q", put.Version, resp.Header.Get("ETag"))
	}

	resp = do(t, http.MethodPut, url, coronation, map[string]string{"If-Match": "0"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second create = %d, want 409", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, url, coronation, map[string]string{"If-Match": `"1"`})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("PUT with current version = %d, want 200", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, url, coronation, map[string]string{"If-Match": "1"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("PUT with stale version = %d, want 409", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, url, coronation, map[string]string{"If-Match": "soon"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT with bad If-Match = %d, want 400", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, ts.URL+"/v1/bids/other--key", coronation, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT under mismatched key = %d, want 400", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, url, `[1]`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT non-object = %d, want 400", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, url, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET = %d", resp.StatusCode)
	}
	var got bidResponse
	decode(t, resp, &got)
	if got.Version != 2 || got.Bid == nil || got.Bid.EventName != "Coronation" || got.Bid.FeastCapacity != 80 {
		t.Errorf("GET = %+v", got)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/bids", "", nil)
	var list []map[string]any
	decode(t, resp, &list)
	if len(list) != 1 || list[0]["key"] != "owlsherst--coronation" {
		t.Errorf("list = %v", list)
	}

	resp = do(t, http.MethodDelete, url, "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, url, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", resp.StatusCode)
	}
}

func TestProjection(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/v1/bids/owlsherst--coronation"
	if resp := do(t, http.MethodPut, url, coronation, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT = %d", resp.StatusCode)
	}

	body := `{"attendees_full":100,"feast_count":50,"beds_top_sold":10,"beds_bottom_sold":5,"mode":"projected"}`
	resp := do(t, http.MethodPost, url+"/projection", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("projection = %d", resp.StatusCode)
	}
	var r projection.Report
	decode(t, resp, &r)
	if r.TotalNet.String() != "2150" {
		t.Errorf("TotalNet = %s, want 2150", r.TotalNet)
	}
	if r.BreakEven != projection.At(40) {
		t.Errorf("BreakEven = %v, want 40", r.BreakEven)
	}

	// Rates: 100 attendees, no daytrippers, half eat feast, one in ten take a bed.
	resp = do(t, http.MethodPost, url+"/projection", `{"attendance":100,"feast_rate":0.5,"lodging_rate":0.1}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rate projection = %d", resp.StatusCode)
	}
	decode(t, resp, &r)
	if r.TotalAttendees != 100 || r.FeastRevenue.String() != "1000" || r.BedRevenue.String() != "50" {
		t.Errorf("rate projection = attendees %d feast %s beds %s", r.TotalAttendees, r.FeastRevenue, r.BedRevenue)
	}

	resp = do(t, http.MethodPost, url+"/projection", `{"attendees_full":-1}`, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("negative projection = %d, want 422", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, ts.URL+"/v1/bids/nobody--nothing/projection", `{}`, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("projection of missing bid = %d, want 404", resp.StatusCode)
	}
}

func TestSites(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/sites", "", nil)
	var list []map[string]any
	decode(t, resp, &list)
	if len(list) != 2 {
		t.Errorf("sites = %d, want 2 builtin", len(list))
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/sites/Camp%20Comfy", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET site = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/v1/sites/Nowhere", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown site = %d, want 404", resp.StatusCode)
	}

	// Profiles written through the raw entry API shadow the builtin ones.
	resp = do(t, http.MethodPut, ts.URL+"/v1/store/sites/camp-comfy", `{"site_name":"Camp Comfy","parking_spaces":10}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT site entry = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/v1/sites/camp-comfy", "", nil)
	var e map[string]any
	decode(t, resp, &e)
	if e["source"] != "store" {
		t.Errorf("site source = %v, want store", e["source"])
	}
}

func TestEntryAPIStatusCodes(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/store/users", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown kind = %d, want 404", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, ts.URL+"/v1/store/bids/k", `{not json`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid payload = %d, want 400", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/v1/store/bids", "", nil)
	var entries []store.Entry
	decode(t, resp, &entries)
	if entries == nil || len(entries) != 0 {
		t.Errorf("empty list = %v, want []", entries)
	}
}

func TestRemoteStoreAgainstServer(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	r, err := store.OpenRemote(config.RemoteConfig{BaseURL: ts.URL + "/"}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenRemote: %v", err)
	}
	defer r.Close()

	if _, err := r.Load(ctx, store.KindBids, "a--b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load missing err = %v, want ErrNotFound", err)
	}
	v, err := r.Save(ctx, store.KindBids, "a--b", []byte(`{"event_name":"B"}`), 0)
	if err != nil || v != 1 {
		t.Fatalf("Save = %d, %v", v, err)
	}
	if _, err := r.Save(ctx, store.KindBids, "a--b", []byte(`{}`), 0); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate create err = %v, want ErrConflict", err)
	}
	v, err = r.Save(ctx, store.KindBids, "a--b", []byte(`{"event_name":"B2"}`), store.AnyVersion)
	if err != nil || v != 2 {
		t.Fatalf("upsert = %d, %v", v, err)
	}
	if _, err := r.Save(ctx, store.KindBids, "a--b", []byte(`{}`), 1); !errors.Is(err, store.ErrConflict) {
		t.Errorf("stale save err = %v, want ErrConflict", err)
	}

	e, err := r.Load(ctx, store.KindBids, "a--b")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Version != 2 || !bytes.Contains(e.Payload, []byte("B2")) {
		t.Errorf("Load = %+v", e)
	}

	if _, err := r.Save(ctx, store.KindBids, "0--first", []byte(`{}`), store.AnyVersion); err != nil {
		t.Fatal(err)
	}
	list, err := r.List(ctx, store.KindBids)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Key != "0--first" {
		t.Errorf("List = %+v", list)
	}

	if err := r.Delete(ctx, store.KindBids, "a--b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := r.Delete(ctx, store.KindBids, "a--b"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestEventsRingBuffer(t *testing.T) {
	srv, ts := newTestServer(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		if resp := do(t, http.MethodPut, ts.URL+"/v1/store/sites/"+k, `{}`, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT %s = %d", k, resp.StatusCode)
		}
	}
	resp := do(t, http.MethodGet, ts.URL+"/v1/events", "", nil)
	var events []Event
	decode(t, resp, &events)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3 (buffer size)", len(events))
	}
	if events[0].Key != "b" || events[2].Key != "d" || events[2].ID != 4 {
		t.Errorf("events = %+v", events)
	}

	st := srv.snapshotStatus()
	if st.EventCount != 3 || st.Requests < 5 || st.Driver != "memory" {
		t.Errorf("status = %+v", st)
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	srv := New(Config{}, store.NewMemory(), nil)
	ch := make(chan Event, 1)
	id := srv.addSubscriber(ch)

	srv.publish(EventDeleted, store.KindBids, "x--y", 0)
	ev := <-ch
	if ev.Type != EventDeleted || ev.Key != "x--y" {
		t.Errorf("event = %+v", ev)
	}

	srv.removeSubscriber(id)
	srv.publish(EventSaved, store.KindBids, "x--y", 1)
	select {
	case ev := <-ch:
		t.Errorf("removed subscriber got %+v", ev)
	default:
	}

	var buf bytes.Buffer
	writeSSE(&buf, ev)
	if !strings.HasPrefix(buf.String(), "event: deleted\ndata: {") {
		t.Errorf("SSE frame = %q", buf.String())
	}
}

func TestExportBid(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/v1/bids/owlsherst--coronation"

	resp := do(t, http.MethodGet, url+"/export", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("export missing bid = %d, want 404", resp.StatusCode)
	}
	do(t, http.MethodPut, url, coronation, nil)

	tests := []struct {
		query       string
		status      int
		contentType string
		prefix      string
	}{
		{"", http.StatusOK, "application/json", "{"},
		{"?format=csv&attendance=100", http.StatusOK, "text/csv", "section,field,value"},
		{"?format=pdf", http.StatusOK, "application/pdf", "%PDF"},
		{"?format=docx", http.StatusBadRequest, "", ""},
		{"?format=csv&attendance=many", http.StatusBadRequest, "", ""},
		{"?format=csv&mode=guessed", http.StatusBadRequest, "", ""},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodGet, url+"/export"+tt.query, "", nil)
		if resp.StatusCode != tt.status {
			t.Errorf("GET export%s = %d, want %d", tt.query, resp.StatusCode, tt.status)
			continue
		}
		if tt.status != http.StatusOK {
			continue
		}
		if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
			t.Errorf("GET export%s Content-Type = %q, want %q", tt.query, got, tt.contentType)
		}
		var body bytes.Buffer
		if _, err := body.ReadFrom(resp.Body); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(body.String(), tt.prefix) {
			t.Errorf("GET export%s body starts %q, want %q", tt.query, body.String()[:min(body.Len(), 20)], tt.prefix)
		}
	}
}

func TestProjectionUsesConfiguredRates(t *testing.T) {
	tests := []struct {
		name  string
		rates Rates
		body  string
		feast string
		beds  string
	}{
		{"defaults", Rates{}, `{"attendance":100}`, "600", "100"},
		{"configured", Rates{FeastRate: 1, Mode: model.ModeProjected}, `{"attendance":50}`, "1000", "0"},
		{"request overrides", Rates{FeastRate: 1, Mode: model.ModeProjected}, `{"attendance":50,"feast_rate":0.5}`, "500", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Config{Driver: "memory", Rates: tt.rates}, store.NewMemory(), zap.NewNop())
			ts := httptest.NewServer(srv.Handler())
			defer ts.Close()
			url := ts.URL + "/v1/bids/owlsherst--coronation"
			do(t, http.MethodPut, url, coronation, nil)

			resp := do(t, http.MethodPost, url+"/projection", tt.body, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("projection = %d, want 200", resp.StatusCode)
			}
			var r projection.Report
			decode(t, resp, &r)
			if r.FeastRevenue.String() != tt.feast {
				t.Errorf("FeastRevenue = %v, want %v", r.FeastRevenue, tt.feast)
			}
			if r.BedRevenue.String() != tt.beds {
				t.Errorf("BedRevenue = %v, want %v", r.BedRevenue, tt.beds)
			}
		})
	}
}

func TestExportReportsProjectionError(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/v1/bids/owlsherst--coronation"
	bid := strings.Replace(coronation, `"site_flat_fee": 1200`, `"site_flat_fee": -5`, 1)
	if resp := do(t, http.MethodPut, url, bid, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT = %d, want 200", resp.StatusCode)
	}

	resp := do(t, http.MethodGet, url+"/export?format=csv", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get(ProjectionErrorHeader); !strings.Contains(got, "site_flat_fee") {
		t.Errorf("%s = %q, want the negative field named", ProjectionErrorHeader, got)
	}

	do(t, http.MethodPut, url, coronation, nil)
	resp = do(t, http.MethodGet, url+"/export?format=csv", "", nil)
	if got := resp.Header.Get(ProjectionErrorHeader); got != "" {
		t.Errorf("%s = %q for a valid bid, want empty", ProjectionErrorHeader, got)
	}
}
