package analytics

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/fallback"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	globalKey       = "analytics:global"   // hash of counters
	visitorsKey     = "analytics:visitors" // set of visitor ids
	sessionIndexKey = "analytics:sessions" // set of session ids
	eventsKey       = "analytics:events"   // list of JSON event records
	viewsHashKey    = "product:views"      // hash: product id -> view count

	fieldTotalViews = "totalViews"
	pageFieldPref   = "page:"
	prodFieldPref   = "product:"
	catFieldPref    = "category:"
	dayFieldPref    = "day:"

	sessionKeyPref = "session:"
)

// ProductSource is the slice of the catalog the aggregator needs.
type ProductSource interface {
	Products() []model.Product
	CategoryOf(productID string) string
}

// Service records page, product and custom-event activity. Remote
// counters are mutated only through Redis atomic increments so that
// concurrent writers cannot lose updates; permission failures divert
// the same increments to the local fallback store. Tracking calls never
// fail the user action that triggered them.
type Service struct {
	redis    *redis.Client
	fallback *fallback.Store
	products ProductSource
	cfg      config.AnalyticsConfig
}

// NewService wires the aggregator.
func NewService(rdb *redis.Client, fb *fallback.Store, products ProductSource, cfg config.AnalyticsConfig) *Service {
	return &Service{
		redis:    rdb,
		fallback: fb,
		products: products,
		cfg:      cfg,
	}
}

// isPermissionError reports whether a Redis reply denotes an
// authorization failure (as opposed to a network or data problem).
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "NOPERM") ||
		strings.HasPrefix(msg, "NOAUTH") ||
		strings.HasPrefix(msg, "WRONGPASS")
}

// TrackPageView counts one page view: the global counters, the visitor
// set and the session record, all via atomic increments and
// merge-on-write session fields.
func (s *Service) TrackPageView(ctx context.Context, pageID, sessionID, visitorID string) {
	if pageID == "" {
		return
	}
	day := dateKey(time.Now())

	pipe := s.redis.TxPipeline()
	pipe.HIncrBy(ctx, globalKey, fieldTotalViews, 1)
	pipe.HIncrBy(ctx, globalKey, pageFieldPref+pageID, 1)
	pipe.HIncrBy(ctx, globalKey, dayFieldPref+day, 1)
	if visitorID != "" {
		pipe.SAdd(ctx, visitorsKey, visitorID)
	}
	s.appendSession(ctx, pipe, sessionID, visitorID, pageID)
	_, err := pipe.Exec(ctx)

	if err == nil {
		return
	}
	if isPermissionError(err) {
		log.Debug().Str("page_id", pageID).Msg("Analytics write denied, using local fallback")
		s.fallback.RecordPageView(pageID)
		return
	}
	log.Warn().Err(err).Str("page_id", pageID).Msg("Failed to track page view")
}

// appendSession upserts the session record inside the same pipeline.
// HSetNX writes identity fields only on first view; SAdd deduplicates
// pages; the counter increments every view, so PageCount >= |pages|.
func (s *Service) appendSession(ctx context.Context, pipe redis.Pipeliner, sessionID, visitorID, pageID string) {
	if sessionID == "" {
		return
	}
	key := sessionKeyPref + sessionID
	pipe.HSetNX(ctx, key, "sessionId", sessionID)
	pipe.HSetNX(ctx, key, "userId", visitorID)
	pipe.HSetNX(ctx, key, "startTime", time.Now().Format(time.RFC3339))
	pipe.SAdd(ctx, key+":pages", pageID)
	pipe.HIncrBy(ctx, key, "pageCount", 1)
	pipe.SAdd(ctx, sessionIndexKey, sessionID)
}

// TrackProductView counts one product view against the global
// product/category counters and the per-product record.
func (s *Service) TrackProductView(ctx context.Context, productID string) {
	if productID == "" {
		return
	}
	category := s.products.CategoryOf(productID)
	day := dateKey(time.Now())

	pipe := s.redis.TxPipeline()
	pipe.HIncrBy(ctx, globalKey, prodFieldPref+productID, 1)
	if category != "" {
		pipe.HIncrBy(ctx, globalKey, catFieldPref+category, 1)
	}
	pipe.HIncrBy(ctx, viewsHashKey, productID, 1)
	pipe.HIncrBy(ctx, "analytics:product_"+productID, "views", 1)
	pipe.HIncrBy(ctx, "analytics:product_"+productID, dayFieldPref+day, 1)
	_, err := pipe.Exec(ctx)

	if err == nil {
		return
	}
	if isPermissionError(err) {
		log.Debug().Str("product_id", productID).Msg("Analytics write denied, using local fallback")
		s.fallback.RecordProductView(productID, category)
		return
	}
	log.Warn().Err(err).Str("product_id", productID).Msg("Failed to track product view")
}

// TrackEvent appends a named custom event to the capped event log.
func (s *Service) TrackEvent(ctx context.Context, name string, payload map[string]interface{}, sessionID, visitorID string) {
	if name == "" {
		return
	}

	record := model.EventRecord{
		EventID:   uuid.New().String(),
		Name:      name,
		Payload:   payload,
		SessionID: sessionID,
		UserID:    visitorID,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		log.Warn().Err(err).Str("event", name).Msg("Failed to encode event record")
		return
	}

	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, eventsKey, raw)
	if s.cfg.EventLogLimit > 0 {
		pipe.LTrim(ctx, eventsKey, 0, int64(s.cfg.EventLogLimit)-1)
	}
	_, err = pipe.Exec(ctx)

	if err == nil {
		return
	}
	if isPermissionError(err) {
		log.Debug().Str("event", name).Msg("Event write denied, using local fallback")
		s.fallback.RecordEvent(name)
		return
	}
	log.Warn().Err(err).Str("event", name).Msg("Failed to track event")
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Summary reads the aggregate back for the admin dashboard: remote
// counters merged with local fallback counts, distinct visitor count,
// a last-N-days series and the top products by views. A permission
// failure on the read degrades the whole result to the fallback store
// with UniqueVisitors pinned to 1, since true cross-visitor uniqueness
// cannot be derived locally.
func (s *Service) Summary(ctx context.Context) (model.AnalyticsSummary, error) {
	fields, err := s.redis.HGetAll(ctx, globalKey).Result()
	if err != nil {
		if isPermissionError(err) {
			log.Warn().Msg("Analytics read denied, serving local fallback data")
			return s.degradedSummary(), nil
		}
		return model.AnalyticsSummary{}, err
	}

	agg := decodeAggregate(fields)
	local := s.fallback.Snapshot()
	mergeAggregate(&agg, local)

	visitors, err := s.redis.SCard(ctx, visitorsKey).Result()
	if err != nil && err != redis.Nil {
		if isPermissionError(err) {
			return s.degradedSummary(), nil
		}
		return model.AnalyticsSummary{}, err
	}

	return s.buildSummary(agg, visitors, false), nil
}

// Reset zeroes every counter and removes all dependent session and
// event records in one transactional batch, then clears the fallback.
func (s *Service) Reset(ctx context.Context) error {
	sessions, err := s.redis.SMembers(ctx, sessionIndexKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	productFields, err := s.redis.HKeys(ctx, globalKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, globalKey)
	pipe.Del(ctx, visitorsKey)
	pipe.Del(ctx, eventsKey)
	pipe.Del(ctx, viewsHashKey)
	for _, field := range productFields {
		if strings.HasPrefix(field, prodFieldPref) {
			pipe.Del(ctx, "analytics:product_"+strings.TrimPrefix(field, prodFieldPref))
		}
	}
	for _, id := range sessions {
		pipe.Del(ctx, sessionKeyPref+id)
		pipe.Del(ctx, sessionKeyPref+id+":pages")
	}
	pipe.Del(ctx, sessionIndexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.fallback.Reset()
	log.Info().
		Int("sessions_removed", len(sessions)).
		Msg("Analytics data reset")
	return nil
}

// Session returns one session record, pages deduplicated.
func (s *Service) Session(ctx context.Context, sessionID string) (model.SessionRecord, error) {
	key := sessionKeyPref + sessionID
	fields, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return model.SessionRecord{}, err
	}

	pages, err := s.redis.SMembers(ctx, key+":pages").Result()
	if err != nil && err != redis.Nil {
		return model.SessionRecord{}, err
	}
	sort.Strings(pages)

	rec := model.SessionRecord{
		SessionID: fields["sessionId"],
		UserID:    fields["userId"],
		Pages:     pages,
	}
	if ts, err := time.Parse(time.RFC3339, fields["startTime"]); err == nil {
		rec.StartTime = ts
	}
	if n, err := strconv.ParseInt(fields["pageCount"], 10, 64); err == nil {
		rec.PageCount = n
	}
	return rec, nil
}

func (s *Service) degradedSummary() model.AnalyticsSummary {
	summary := s.buildSummary(s.fallback.Snapshot(), 1, true)
	return summary
}

func (s *Service) buildSummary(agg model.AnalyticsAggregate, visitors int64, degraded bool) model.AnalyticsSummary {
	days := s.cfg.DailyDays
	if days <= 0 {
		days = 30
	}

	series := make([]model.TimeSeriesPoint, 0, days)
	now := time.Now()
	for i := days - 1; i >= 0; i-- {
		date := dateKey(now.AddDate(0, 0, -i))
		series = append(series, model.TimeSeriesPoint{
			Date:  date,
			Value: agg.DailyStats[date],
		})
	}

	return model.AnalyticsSummary{
		TotalViews:     agg.TotalViews,
		UniqueVisitors: visitors,
		PageViews:      agg.PageViews,
		ProductViews:   agg.ProductViews,
		CategoryViews:  agg.CategoryViews,
		DailySeries:    series,
		TopProducts:    s.topProducts(agg.ProductViews),
		Degraded:       degraded,
		GeneratedAt:    time.Now(),
	}
}

// topProducts sorts the live catalog snapshot by views descending.
// Counts from the aggregate override the snapshot's own numbers so a
// fresh read wins over the load-time overlay.
func (s *Service) topProducts(productViews map[string]int64) []model.ProductStats {
	products := s.products.Products()
	stats := make([]model.ProductStats, 0, len(products))
	for _, p := range products {
		views := p.Views
		if v, ok := productViews[p.ID]; ok && v > views {
			views = v
		}
		title := p.Title.EN
		if title == "" {
			title = p.Title.TR
		}
		stats = append(stats, model.ProductStats{
			ProductID: p.ID,
			Title:     title,
			Category:  p.Category,
			Price:     p.Price,
			Views:     views,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Views > stats[j].Views
	})

	limit := s.cfg.TopProducts
	if limit <= 0 {
		limit = 10
	}
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func decodeAggregate(fields map[string]string) model.AnalyticsAggregate {
	agg := model.NewAnalyticsAggregate()
	for field, raw := range fields {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == fieldTotalViews:
			agg.TotalViews = value
		case strings.HasPrefix(field, pageFieldPref):
			agg.PageViews[strings.TrimPrefix(field, pageFieldPref)] = value
		case strings.HasPrefix(field, prodFieldPref):
			agg.ProductViews[strings.TrimPrefix(field, prodFieldPref)] = value
		case strings.HasPrefix(field, catFieldPref):
			agg.CategoryViews[strings.TrimPrefix(field, catFieldPref)] = value
		case strings.HasPrefix(field, dayFieldPref):
			agg.DailyStats[strings.TrimPrefix(field, dayFieldPref)] = value
		}
	}
	return agg
}

// mergeAggregate folds locally accumulated fallback counts into the
// remote aggregate for admin reads.
func mergeAggregate(agg *model.AnalyticsAggregate, local model.AnalyticsAggregate) {
	agg.TotalViews += local.TotalViews
	for k, v := range local.PageViews {
		agg.PageViews[k] += v
	}
	for k, v := range local.ProductViews {
		agg.ProductViews[k] += v
	}
	for k, v := range local.CategoryViews {
		agg.CategoryViews[k] += v
	}
	for k, v := range local.DailyStats {
		agg.DailyStats[k] += v
	}
}
