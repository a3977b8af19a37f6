package browser

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yhl48/proxy-lite/idgen"
	"github.com/yhl48/proxy-lite/poi"
	"github.com/yhl48/proxy-lite/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T, sessionID string) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "obs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateSession(ctx, sessionID, ""); err != nil {
		t.Fatal(err)
	}
	return st
}

// The extractor's mark registry is not safe for concurrent use, so
// observation passes on one session must run one at a time even when
// callers overlap.
func TestService_ObserveSerializedPerSession(t *testing.T) {
	const sessionID = "sess_1"
	log := quietLogger()

	var inFlight, overlapped atomic.Int32
	svc := &Service{
		cfg: ServiceConfig{
			Store:           testStore(t, sessionID),
			NewID:           idgen.Default,
			AnnotateQuality: 70,
			Logger:          log,
		},
		observe: func(context.Context, *Session, *poi.Extractor) (*Observation, error) {
			if inFlight.Add(1) > 1 {
				overlapped.Add(1)
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return &Observation{URL: "about:blank"}, nil
		},
		sessions: map[string]*sessionState{
			sessionID: {ex: poi.New(poi.Config{Logger: log})},
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Observe(context.Background(), sessionID); err != nil {
				t.Errorf("observe: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := overlapped.Load(); got != 0 {
		t.Fatalf("observation passes overlapped %d times, want serialized", got)
	}
}

func TestService_ObserveUpdatesMarkSpace(t *testing.T) {
	const sessionID = "sess_2"
	log := quietLogger()

	obs := &Observation{
		URL: "https://example.com",
		Result: poi.Result{
			Descriptions: []poi.Description{{Tag: "button", Text: "Go"}},
			Centroids:    []poi.Centroid{{X: 10, Y: 20}},
		},
	}
	svc := &Service{
		cfg: ServiceConfig{
			Store:           testStore(t, sessionID),
			NewID:           idgen.Default,
			AnnotateQuality: 70,
			Logger:          log,
		},
		observe: func(context.Context, *Session, *poi.Extractor) (*Observation, error) {
			return obs, nil
		},
		sessions: map[string]*sessionState{
			sessionID: {ex: poi.New(poi.Config{Logger: log})},
		},
	}

	if _, err := svc.MarkText(sessionID, 0); err == nil {
		t.Fatal("mark lookup before any observation must fail")
	}

	res, err := svc.Observe(context.Background(), sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if res.MarkCount != 1 {
		t.Fatalf("mark count: got %d, want 1", res.MarkCount)
	}

	text, err := svc.MarkText(sessionID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Go" {
		t.Fatalf("mark text: got %q, want %q", text, "Go")
	}
	if _, err := svc.MarkText(sessionID, 1); err == nil {
		t.Fatal("out-of-range mark must fail")
	}
}
