package security

import (
	"net/http/httptest"
	"testing"
)

func TestIsCrawler(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      bool
	}{
		{"Browser", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36", false},
		{"MobileBrowser", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", false},
		{"Googlebot", "Googlebot/2.1 (+http://www.google.com/bot.html)", true},
		{"Curl", "curl/8.4.0 (compiled)", true},
		{"GoClient", "Go-http-client/1.1 request", true},
		{"WhatsAppPreview", "WhatsApp/2.23.20 messenger client", true},
		{"Empty", "", true},
		{"TooShort", "Mozilla", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCrawler(tt.userAgent); got != tt.want {
				t.Errorf("IsCrawler(%q) = %v, want %v", tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"ForwardedFor", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.5"},
		{"RealIP", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.2:1234", "203.0.113.9"},
		{"RemoteAddr", nil, "192.0.2.7:5678", "192.0.2.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
