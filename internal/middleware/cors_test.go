package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseWildcardOrigin(t *testing.T) {
	tests := []struct {
		pattern string
		wantNil bool
		scheme  string
		suffix  string
	}{
		{pattern: "https://*.example.com", scheme: "https://", suffix: ".example.com"},
		{pattern: "http://*.localhost.dev", scheme: "http://", suffix: ".localhost.dev"},
		{pattern: "*.example.com", wantNil: true},
		{pattern: "*", wantNil: true},
		{pattern: "https://example.*", wantNil: true},
		{pattern: "https://*.*.example.com", wantNil: true},
		{pattern: "https://*example.com", wantNil: true},
		{pattern: "https://*.com", wantNil: true},
		{pattern: "https://example.com", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := parseWildcardOrigin(tt.pattern)
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseWildcardOrigin(%q) = %+v, want nil", tt.pattern, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseWildcardOrigin(%q) = nil", tt.pattern)
			}
			if got.scheme != tt.scheme || got.suffix != tt.suffix {
				t.Errorf("got %+v, want scheme %q suffix %q", got, tt.scheme, tt.suffix)
			}
		})
	}
}

func TestWildcardOriginMatches(t *testing.T) {
	w := parseWildcardOrigin("https://*.habitpulse.app")
	if w == nil {
		t.Fatal("pattern did not parse")
	}

	tests := map[string]bool{
		"https://web.habitpulse.app":          true,
		"https://a1b2c3.habitpulse.app":       true,
		"http://web.habitpulse.app":           false,
		"https://web.other.app":               false,
		"https://a.b.habitpulse.app":          false,
		"https://habitpulse.app":              false,
		"https://evil-habitpulse.app":         false,
		"https://web.habitpulse.app.evil.com": false,
		"https://web.habitpulse.app:8443/x":   false,
	}
	for origin, want := range tests {
		if got := w.matches(origin); got != want {
			t.Errorf("matches(%q) = %v, want %v", origin, got, want)
		}
	}
}

func corsRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSAllowList(t *testing.T) {
	r := corsRouter([]string{"https://app.habitpulse.app", "https://*.preview.habitpulse.app"})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://pr-12.preview.habitpulse.app")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://pr-12.preview.habitpulse.app" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("preflight from unknown origin = %d, want 403", w.Code)
	}
}

func TestCORSAllowAll(t *testing.T) {
	r := corsRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://anything.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
