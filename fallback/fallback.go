package fallback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the durable local analytics fallback. When the remote store
// rejects a write for permission reasons the same logical increment
// lands here, so counts survive restarts and can be merged back into
// admin reads later. It also owns the durable pseudonymous visitor id.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
}

type fileData struct {
	VisitorID string                   `json:"visitorId"`
	Aggregate model.AnalyticsAggregate `json:"aggregate"`
	Events    map[string]int64         `json:"events"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// New opens (or creates) the store at path. A missing or corrupt file
// starts empty; that is logged, never fatal.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	s.data.Aggregate = model.NewAnalyticsAggregate()
	s.data.Events = make(map[string]int64)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read analytics fallback file, starting empty")
		}
		return s, nil
	}

	var loaded fileData
	if err := json.Unmarshal(raw, &loaded); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Corrupt analytics fallback file, starting empty")
		return s, nil
	}

	// A hand-edited or older-layout file may omit individual maps;
	// every one must be usable before increments land on it.
	if loaded.Aggregate.PageViews == nil {
		loaded.Aggregate.PageViews = make(map[string]int64)
	}
	if loaded.Aggregate.ProductViews == nil {
		loaded.Aggregate.ProductViews = make(map[string]int64)
	}
	if loaded.Aggregate.CategoryViews == nil {
		loaded.Aggregate.CategoryViews = make(map[string]int64)
	}
	if loaded.Aggregate.DailyStats == nil {
		loaded.Aggregate.DailyStats = make(map[string]int64)
	}
	if loaded.Events == nil {
		loaded.Events = make(map[string]int64)
	}
	s.data = loaded

	log.Info().
		Str("path", path).
		Int64("total_views", loaded.Aggregate.TotalViews).
		Msg("Analytics fallback store loaded")
	return s, nil
}

// VisitorID returns the durable pseudonymous identifier, creating and
// persisting it on first use.
func (s *Store) VisitorID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.VisitorID == "" {
		s.data.VisitorID = uuid.New().String()
		s.persistLocked()
	}
	return s.data.VisitorID
}

// RecordPageView applies the page-view increments locally.
func (s *Store) RecordPageView(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Aggregate.TotalViews++
	s.data.Aggregate.PageViews[pageID]++
	s.data.Aggregate.DailyStats[dateKey(time.Now())]++
	s.persistLocked()
}

// RecordProductView applies the product-view increments locally.
// categoryID may be empty when the catalog could not resolve it.
func (s *Store) RecordProductView(productID, categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Aggregate.ProductViews[productID]++
	if categoryID != "" {
		s.data.Aggregate.CategoryViews[categoryID]++
	}
	s.persistLocked()
}

// RecordEvent counts a named event locally.
func (s *Store) RecordEvent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Events[name]++
	s.persistLocked()
}

// Snapshot returns a deep copy of the accumulated aggregate.
func (s *Store) Snapshot() model.AnalyticsAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.NewAnalyticsAggregate()
	out.TotalViews = s.data.Aggregate.TotalViews
	for k, v := range s.data.Aggregate.PageViews {
		out.PageViews[k] = v
	}
	for k, v := range s.data.Aggregate.ProductViews {
		out.ProductViews[k] = v
	}
	for k, v := range s.data.Aggregate.CategoryViews {
		out.CategoryViews[k] = v
	}
	for k, v := range s.data.Aggregate.DailyStats {
		out.DailyStats[k] = v
	}
	return out
}

// Reset zeroes every counter. The visitor id survives a reset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Aggregate = model.NewAnalyticsAggregate()
	s.data.Events = make(map[string]int64)
	s.persistLocked()
}

// persistLocked rewrites the backing file atomically. Callers hold mu.
func (s *Store) persistLocked() {
	s.data.UpdatedAt = time.Now()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode analytics fallback data")
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to create analytics fallback directory")
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		log.Warn().Err(err).Str("path", tmp).Msg("Failed to write analytics fallback file")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to replace analytics fallback file")
	}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
