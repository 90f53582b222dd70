package analytics

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/fallback"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

type stubCatalog struct {
	products []model.Product
}

func (s stubCatalog) Products() []model.Product { return s.products }

func (s stubCatalog) CategoryOf(productID string) string {
	for _, p := range s.products {
		if p.ID == productID {
			return p.Category
		}
	}
	return ""
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		TopProducts:   5,
		EventLogLimit: 3,
		DailyDays:     7,
	}
}

func newTestService(t *testing.T, catalog stubCatalog) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fb, err := fallback.New(filepath.Join(t.TempDir(), "fallback.json"))
	if err != nil {
		t.Fatalf("Failed to create fallback store: %v", err)
	}

	return NewService(client, fb, catalog, testConfig()), mr
}

func TestTrackPageView(t *testing.T) {
	svc, mr := newTestService(t, stubCatalog{})
	ctx := context.Background()

	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "contact", "sess-1", "visitor-2")

	if got := mr.HGet(globalKey, fieldTotalViews); got != "3" {
		t.Errorf("Expected totalViews 3, got %q", got)
	}
	if got := mr.HGet(globalKey, pageFieldPref+"home"); got != "2" {
		t.Errorf("Expected 2 home views, got %q", got)
	}

	day := dateKey(time.Now())
	if got := mr.HGet(globalKey, dayFieldPref+day); got != "3" {
		t.Errorf("Expected 3 views for today, got %q", got)
	}

	visitors, err := mr.Members(visitorsKey)
	if err != nil {
		t.Fatalf("Failed to read visitors set: %v", err)
	}
	if len(visitors) != 2 {
		t.Errorf("Expected 2 distinct visitors, got %v", visitors)
	}
}

func TestTrackPageViewIgnoresEmptyPage(t *testing.T) {
	svc, mr := newTestService(t, stubCatalog{})

	svc.TrackPageView(context.Background(), "", "sess-1", "visitor-1")

	if mr.Exists(globalKey) {
		t.Error("Empty page id must not create any counter")
	}
}

func TestSessionUpsert(t *testing.T) {
	svc, _ := newTestService(t, stubCatalog{})
	ctx := context.Background()

	// Same page three times, a second page once. Pages deduplicate,
	// the counter does not.
	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "products", "sess-1", "visitor-1")

	rec, err := svc.Session(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to read session: %v", err)
	}

	if rec.SessionID != "sess-1" || rec.UserID != "visitor-1" {
		t.Errorf("Unexpected session identity: %+v", rec)
	}
	if len(rec.Pages) != 2 {
		t.Errorf("Expected 2 distinct pages, got %v", rec.Pages)
	}
	if rec.PageCount != 4 {
		t.Errorf("Expected page count 4, got %d", rec.PageCount)
	}
	if rec.PageCount < int64(len(rec.Pages)) {
		t.Errorf("Page count %d must never be below distinct pages %d", rec.PageCount, len(rec.Pages))
	}
	if rec.StartTime.IsZero() {
		t.Error("Expected a start time on the session record")
	}
}

func TestTrackProductView(t *testing.T) {
	catalog := stubCatalog{products: []model.Product{
		{ID: "p1", Category: "vehicles"},
	}}
	svc, mr := newTestService(t, catalog)
	ctx := context.Background()

	svc.TrackProductView(ctx, "p1")
	svc.TrackProductView(ctx, "p1")
	svc.TrackProductView(ctx, "unknown")

	if got := mr.HGet(globalKey, prodFieldPref+"p1"); got != "2" {
		t.Errorf("Expected 2 views for p1, got %q", got)
	}
	if got := mr.HGet(globalKey, catFieldPref+"vehicles"); got != "2" {
		t.Errorf("Expected 2 category views, got %q", got)
	}
	if got := mr.HGet(viewsHashKey, "p1"); got != "2" {
		t.Errorf("Expected 2 in the views hash, got %q", got)
	}
	if got := mr.HGet("analytics:product_p1", "views"); got != "2" {
		t.Errorf("Expected 2 in the per-product record, got %q", got)
	}

	// Unknown products still count, just without a category bucket.
	if got := mr.HGet(globalKey, prodFieldPref+"unknown"); got != "1" {
		t.Errorf("Expected 1 view for unknown product, got %q", got)
	}
	if got := mr.HGet(globalKey, fieldTotalViews); got != "" {
		t.Errorf("Product views must not touch totalViews, got %q", got)
	}
}

func TestTrackProductViewConcurrent(t *testing.T) {
	catalog := stubCatalog{products: []model.Product{
		{ID: "a", Category: "vehicles"},
		{ID: "b", Category: "realestate"},
	}}
	svc, mr := newTestService(t, catalog)
	ctx := context.Background()

	// Interleaved writers must never lose an increment; the counters
	// are mutated only through server-side atomic increments.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.TrackProductView(ctx, "a")
		}()
		go func() {
			defer wg.Done()
			svc.TrackProductView(ctx, "b")
		}()
	}
	wg.Wait()

	if got := mr.HGet(globalKey, prodFieldPref+"a"); got != "10" {
		t.Errorf("Expected 10 views for a, got %q", got)
	}
	if got := mr.HGet(globalKey, prodFieldPref+"b"); got != "10" {
		t.Errorf("Expected 10 views for b, got %q", got)
	}
}

func TestTrackEventCapped(t *testing.T) {
	svc, mr := newTestService(t, stubCatalog{})
	ctx := context.Background()

	svc.TrackEvent(ctx, "a", nil, "sess-1", "visitor-1")
	svc.TrackEvent(ctx, "b", map[string]interface{}{"source": "footer"}, "sess-1", "visitor-1")
	svc.TrackEvent(ctx, "c", nil, "sess-1", "visitor-1")
	svc.TrackEvent(ctx, "d", nil, "sess-1", "visitor-1")

	events, err := mr.List(eventsKey)
	if err != nil {
		t.Fatalf("Failed to read event log: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("Event log must be capped at 3 entries, got %d", len(events))
	}
}

func TestSummaryMergesFallback(t *testing.T) {
	catalog := stubCatalog{products: []model.Product{
		{ID: "p1", Title: model.LocalizedText{EN: "City Car"}, Category: "vehicles", Price: 100000},
		{ID: "p2", Title: model.LocalizedText{EN: "Villa"}, Category: "realestate", Price: 2000000},
	}}
	svc, _ := newTestService(t, catalog)
	ctx := context.Background()

	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackProductView(ctx, "p1")

	// Counts that landed locally while the remote store was denying
	// writes must be folded into the admin read.
	svc.fallback.RecordPageView("home")
	svc.fallback.RecordProductView("p2", "realestate")

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}

	if summary.TotalViews != 2 {
		t.Errorf("Expected merged total of 2, got %d", summary.TotalViews)
	}
	if summary.PageViews["home"] != 2 {
		t.Errorf("Expected 2 merged home views, got %d", summary.PageViews["home"])
	}
	if summary.ProductViews["p1"] != 1 || summary.ProductViews["p2"] != 1 {
		t.Errorf("Expected both remote and local product views, got %v", summary.ProductViews)
	}
	if summary.UniqueVisitors != 1 {
		t.Errorf("Expected 1 unique visitor, got %d", summary.UniqueVisitors)
	}
	if summary.Degraded {
		t.Error("Summary must not be degraded when the remote store answers")
	}
	if len(summary.DailySeries) != 7 {
		t.Errorf("Expected a 7 day series, got %d points", len(summary.DailySeries))
	}
	if last := summary.DailySeries[len(summary.DailySeries)-1]; last.Value != 2 {
		t.Errorf("Expected 2 views on the last series point, got %d", last.Value)
	}
}

func TestSummaryTopProducts(t *testing.T) {
	catalog := stubCatalog{products: []model.Product{
		{ID: "p1", Title: model.LocalizedText{EN: "City Car"}, Category: "vehicles", Views: 5},
		{ID: "p2", Title: model.LocalizedText{TR: "Villa"}, Category: "realestate", Views: 1},
	}}
	svc, _ := newTestService(t, catalog)
	ctx := context.Background()

	// A fresh aggregate count above the snapshot's overlay wins.
	for i := 0; i < 7; i++ {
		svc.TrackProductView(ctx, "p2")
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}

	if len(summary.TopProducts) != 2 {
		t.Fatalf("Expected 2 top products, got %d", len(summary.TopProducts))
	}
	if summary.TopProducts[0].ProductID != "p2" || summary.TopProducts[0].Views != 7 {
		t.Errorf("Expected p2 with 7 views first, got %+v", summary.TopProducts[0])
	}
	if summary.TopProducts[1].Views != 5 {
		t.Errorf("Expected snapshot views to stand for p1, got %+v", summary.TopProducts[1])
	}
	if summary.TopProducts[0].Title != "Villa" {
		t.Errorf("Expected Turkish title fallback, got %q", summary.TopProducts[0].Title)
	}
}

func TestReset(t *testing.T) {
	catalog := stubCatalog{products: []model.Product{{ID: "p1", Category: "vehicles"}}}
	svc, mr := newTestService(t, catalog)
	ctx := context.Background()

	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackProductView(ctx, "p1")
	svc.TrackEvent(ctx, "newsletter_subscribe", nil, "sess-1", "visitor-1")
	svc.fallback.RecordPageView("home")

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset analytics: %v", err)
	}

	for _, key := range []string{
		globalKey, visitorsKey, eventsKey, viewsHashKey,
		sessionIndexKey, "session:sess-1", "session:sess-1:pages",
		"analytics:product_p1",
	} {
		if mr.Exists(key) {
			t.Errorf("Key %q must be removed by reset", key)
		}
	}

	if snap := svc.fallback.Snapshot(); snap.TotalViews != 0 {
		t.Errorf("Reset must clear the fallback store, got %d views", snap.TotalViews)
	}
}

func TestPermissionDeniedDivertsToFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	// Deliberately unauthenticated, so every command is denied.
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fb, err := fallback.New(filepath.Join(t.TempDir(), "fallback.json"))
	if err != nil {
		t.Fatalf("Failed to create fallback store: %v", err)
	}
	svc := NewService(client, fb, stubCatalog{}, testConfig())
	ctx := context.Background()

	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")
	svc.TrackPageView(ctx, "home", "sess-1", "visitor-1")

	snap := fb.Snapshot()
	if snap.PageViews["home"] != 2 {
		t.Errorf("Denied writes must land in the fallback store, got %v", snap.PageViews)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("A denied read must degrade, not fail: %v", err)
	}
	if !summary.Degraded {
		t.Error("Expected a degraded summary")
	}
	if summary.TotalViews != 2 {
		t.Errorf("Expected fallback totals in the degraded summary, got %d", summary.TotalViews)
	}
	if summary.UniqueVisitors != 1 {
		t.Errorf("Degraded summary pins unique visitors to 1, got %d", summary.UniqueVisitors)
	}
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"NOPERM", errors.New("NOPERM this user has no permissions"), true},
		{"NOAUTH", errors.New("NOAUTH Authentication required."), true},
		{"WRONGPASS", errors.New("WRONGPASS invalid username-password pair"), true},
		{"Network", errors.New("dial tcp: connection refused"), false},
		{"WrongType", errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPermissionError(tt.err); got != tt.want {
				t.Errorf("isPermissionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
