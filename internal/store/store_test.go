package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
)

// backends returns a fresh instance of every backend that runs without a server.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(ctx, filepath.Join(dir, "bids.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	wb, err := OpenWorkbook(filepath.Join(dir, "bids.xlsx"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenWorkbook: %v", err)
	}
	all := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"xlsx":   wb,
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func TestStore_Conformance(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			testUpsert(t, s)
			testVersioning(t, s)
			testListAndDelete(t, s)
			testArgs(t, s)
		})
	}
}

func testUpsert(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, KindBids, "nobody--nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing err = %v, want ErrNotFound", err)
	}

	v, err := s.Save(ctx, KindBids, "owlsherst--coronation", []byte(`{"event_name":"Coronation"}`), AnyVersion)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v != 1 {
		t.Errorf("first version = %d, want 1", v)
	}

	v, err = s.Save(ctx, KindBids, "owlsherst--coronation", []byte(`{"event_name":"Coronation II"}`), AnyVersion)
	if err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if v != 2 {
		t.Errorf("second version = %d, want 2", v)
	}

	e, err := s.Load(ctx, KindBids, "owlsherst--coronation")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(e.Payload) != `{"event_name":"Coronation II"}` {
		t.Errorf("Payload = %s", e.Payload)
	}
	if e.Version != 2 || e.Key != "owlsherst--coronation" || e.Kind != KindBids {
		t.Errorf("Entry = %+v", e)
	}
	if e.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	// Kinds are separate tables.
	if _, err := s.Load(ctx, KindSites, "owlsherst--coronation"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load from other kind err = %v, want ErrNotFound", err)
	}
}

func testVersioning(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "camp-comfy"

	v, err := s.Save(ctx, KindSites, key, []byte(`{"site_name":"Camp Comfy"}`), 0)
	if err != nil {
		t.Fatalf("create with version 0: %v", err)
	}
	if _, err := s.Save(ctx, KindSites, key, []byte(`{}`), 0); !errors.Is(err, ErrConflict) {
		t.Errorf("second create err = %v, want ErrConflict", err)
	}
	if _, err := s.Save(ctx, KindSites, key, []byte(`{}`), v+5); !errors.Is(err, ErrConflict) {
		t.Errorf("stale version err = %v, want ErrConflict", err)
	}
	v2, err := s.Save(ctx, KindSites, key, []byte(`{"site_name":"Camp Comfy","parking_spaces":140}`), v)
	if err != nil {
		t.Fatalf("save with current version: %v", err)
	}
	if v2 != v+1 {
		t.Errorf("version = %d, want %d", v2, v+1)
	}
	if _, err := s.Save(ctx, KindSites, key, []byte(`{}`), v); !errors.Is(err, ErrConflict) {
		t.Errorf("replayed version err = %v, want ErrConflict", err)
	}
	if _, err := s.Save(ctx, KindSites, "never-created", []byte(`{}`), 3); !errors.Is(err, ErrConflict) {
		t.Errorf("versioned save of absent key err = %v, want ErrConflict", err)
	}

	e, err := s.Load(ctx, KindSites, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(string(e.Payload), "140") {
		t.Errorf("conflicting writes leaked: %s", e.Payload)
	}
}

func testListAndDelete(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, k := range []string{"zeta--feast", "alpha--tourney", "mid--revel"} {
		if _, err := s.Save(ctx, KindBids, k, []byte(`{"k":"`+k+`"}`), AnyVersion); err != nil {
			t.Fatalf("Save %s: %v", k, err)
		}
	}

	entries, err := s.List(ctx, KindBids)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	want := "alpha--tourney,mid--revel,owlsherst--coronation,zeta--feast"
	if strings.Join(keys, ",") != want {
		t.Errorf("List keys = %v, want %s", keys, want)
	}

	if err := s.Delete(ctx, KindBids, "mid--revel"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, KindBids, "mid--revel"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if _, err := s.Load(ctx, KindBids, "mid--revel"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load deleted err = %v, want ErrNotFound", err)
	}
	// Entries after the deleted one are still reachable.
	if e, err := s.Load(ctx, KindBids, "zeta--feast"); err != nil || string(e.Payload) != `{"k":"zeta--feast"}` {
		t.Errorf("Load zeta = %s, %v", e.Payload, err)
	}
	entries, err = s.List(ctx, KindBids)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(List) = %d, want 3", len(entries))
	}
}

func testArgs(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Save(ctx, "users", "k", []byte(`{}`), AnyVersion); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind err = %v", err)
	}
	if _, err := s.Save(ctx, KindBids, "  ", []byte(`{}`), AnyVersion); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("blank key err = %v", err)
	}
	if _, err := s.Save(ctx, KindBids, "a/b", []byte(`{}`), AnyVersion); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("slash key err = %v", err)
	}
	if _, err := s.Save(ctx, KindBids, "k", []byte(`{not json`), AnyVersion); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("bad payload err = %v", err)
	}
	if _, err := s.List(ctx, "users"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("List unknown kind err = %v", err)
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "bids.db")

	s, err := OpenSQLite(ctx, path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := s.Save(ctx, KindBids, "k", []byte(`{"a":1}`), AnyVersion); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	e, err := s.Load(ctx, KindBids, "k")
	if err != nil || e.Version != 1 || string(e.Payload) != `{"a":1}` {
		t.Errorf("Load after reopen = %+v, %v", e, err)
	}
}

func TestWorkbook_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bids.xlsx")

	w, err := OpenWorkbook(path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenWorkbook: %v", err)
	}
	if _, err := w.Save(ctx, KindSites, "shire-hall", []byte(`{"site_name":"Shire Hall"}`), AnyVersion); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = w.Close()

	w, err = OpenWorkbook(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w.Close()
	e, err := w.Load(ctx, KindSites, "shire-hall")
	if err != nil || string(e.Payload) != `{"site_name":"Shire Hall"}` {
		t.Errorf("Load after reopen = %+v, %v", e, err)
	}
}

func TestLocker_UpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	l := NewLocker()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Update(ctx, s, KindBids, "counter", func(cur []byte) ([]byte, error) {
				return append([]byte(nil), `{"n":1}`...), nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	e, err := s.Load(ctx, KindBids, "counter")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Version != writers {
		t.Errorf("Version = %d, want %d (every writer saw the previous version)", e.Version, writers)
	}
	if len(l.locks) != 0 {
		t.Errorf("locks not released: %d", len(l.locks))
	}
}

func TestLocker_UpdateDetectsOutsideWriter(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	l := NewLocker()
	if _, err := s.Save(ctx, KindBids, "k", []byte(`{}`), AnyVersion); err != nil {
		t.Fatal(err)
	}

	_, err := l.Update(ctx, s, KindBids, "k", func(cur []byte) ([]byte, error) {
		// Another process writes between our read and our save.
		if _, err := s.Save(ctx, KindBids, "k", []byte(`{"other":true}`), AnyVersion); err != nil {
			t.Fatal(err)
		}
		return []byte(`{"mine":true}`), nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update err = %v, want ErrConflict", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, configFor("memory", ""), nil)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open memory = %T", s)
	}

	s, err = Open(ctx, configFor("sqlite", filepath.Join(dir, "x.db")), zap.NewNop())
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	_ = s.Close()

	if _, err := Open(ctx, configFor("postgres", ""), nil); err == nil {
		t.Error("Open postgres succeeded")
	}
	if _, err := Open(ctx, configFor("remote", ""), nil); err == nil {
		t.Error("Open remote without base_url succeeded")
	}
}

func configFor(driver, dsn string) config.StoreConfig {
	cfg := config.DefaultConfig().Store
	cfg.Driver = driver
	cfg.DSN = dsn
	return cfg
}
