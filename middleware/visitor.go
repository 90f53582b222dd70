package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/security"

	"github.com/google/uuid"
)

type contextKey string

const (
	visitorIDKey contextKey = "visitorID"
	sessionIDKey contextKey = "sessionID"
	crawlerKey   contextKey = "isCrawler"

	visitorCookie = "visitor_id"
)

// Visitor assigns a durable pseudonymous visitor id (cookie, minted on
// first sight) and a per-tab session id (X-Session-ID header, minted
// and echoed back when absent). It also marks automated clients so the
// tracking layer can skip counting them.
type Visitor struct {
	botDetection bool
}

// NewVisitor creates the visitor identity middleware.
func NewVisitor(botDetection bool) *Visitor {
	return &Visitor{botDetection: botDetection}
}

// Identify resolves the identifiers and stores them on the request
// context.
func (v *Visitor) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID := r.Header.Get("X-Visitor-ID")
		if visitorID == "" {
			if c, err := r.Cookie(visitorCookie); err == nil {
				visitorID = c.Value
			}
		}
		if visitorID == "" {
			visitorID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     visitorCookie,
				Value:    visitorID,
				Path:     "/",
				Expires:  time.Now().AddDate(1, 0, 0),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		w.Header().Set("X-Session-ID", sessionID)

		crawler := v.botDetection && security.IsCrawler(r.UserAgent())

		ctx := context.WithValue(r.Context(), visitorIDKey, visitorID)
		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
		ctx = context.WithValue(ctx, crawlerKey, crawler)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorID returns the visitor id resolved for this request.
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorIDKey).(string)
	return id
}

// SessionID returns the session id resolved for this request.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// IsCrawler reports whether the request was classified as automated.
func IsCrawler(ctx context.Context) bool {
	crawler, _ := ctx.Value(crawlerKey).(bool)
	return crawler
}
