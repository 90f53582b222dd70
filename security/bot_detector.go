package security

import (
	"net/http"
	"strings"
)

// Crawler and tooling user-agent fragments. Views from these must not
// inflate the analytics counters, but the requests themselves are
// served normally so link previews and indexing keep working.
var crawlerPatterns = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"curl",
	"wget",
	"python-requests",
	"go-http-client",
	"java/",
	"node-fetch",
	"axios",
	"facebookexternalhit",
	"whatsapp",
	"telegram",
	"slackbot",
	"pingdom",
	"uptime",
}

// IsCrawler reports whether the user agent looks automated. Empty and
// very short user agents count as automated too.
func IsCrawler(userAgent string) bool {
	if len(userAgent) < 10 {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, pattern := range crawlerPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// ClientIP extracts the client IP, honoring proxy headers.
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies/load balancers)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take the first IP if there are multiple
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}
