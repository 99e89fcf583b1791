package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/pkg/jwtutil"
)

func TestAccessLogMasksQueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := jwtutil.GenerateToken("secret", time.Hour, 7, "alice")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	r := gin.New()
	r.Use(AccessLog(&buf))
	r.GET("/api/v1/report", AuthJWT("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report?format=html&access_token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	line := buf.String()
	if strings.Contains(line, token) {
		t.Fatalf("token written to access log: %s", line)
	}
	if !strings.Contains(line, "/api/v1/report?") || !strings.Contains(line, "format=html") || !strings.Contains(line, "access_token=REDACTED") {
		t.Errorf("log line = %q", line)
	}
}

func TestRedactToken(t *testing.T) {
	cases := map[string]string{
		"/healthz":                  "/healthz",
		"/api/v1/report?format=pdf": "/api/v1/report?format=pdf",
		"/x?access_token=abc":       "/x?access_token=REDACTED",
	}
	for in, want := range cases {
		if got := redactToken(in); got != want {
			t.Errorf("redactToken(%q) = %q, want %q", in, got, want)
		}
	}
}
