package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func loggerRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	router := gin.New()
	router.Use(RequestID(), RequestLogger())
	router.GET("/api/offers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"offers": []string{}})
	})
	router.POST("/api/offers", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	})
	router.GET("/api/offers/missing/download", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
	})
	router.POST("/api/offers/content", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed"})
	})
	return router
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	router := loggerRouter(&buf)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		level  string
	}{
		{"offer list", "GET", "/api/offers", http.StatusOK, "INFO"},
		{"rejected create", "POST", "/api/offers", http.StatusBadRequest, "WARN"},
		{"missing download", "GET", "/api/offers/missing/download", http.StatusNotFound, "WARN"},
		{"generation failure", "POST", "/api/offers/content", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}

			line := buf.String()
			if !strings.Contains(line, "request completed") {
				t.Error("missing completion message")
			}
			if !strings.Contains(line, "level="+tt.level) {
				t.Errorf("log %q lacks level %s", line, tt.level)
			}
			if !strings.Contains(line, tt.path) {
				t.Errorf("log lacks path %s", tt.path)
			}
			if !strings.Contains(line, "request_id=") {
				t.Error("log lacks request_id")
			}
		})
	}
}

func TestRequestLoggerIncludesQuery(t *testing.T) {
	var buf bytes.Buffer
	router := loggerRouter(&buf)

	req := httptest.NewRequest("GET", "/api/offers?template_id=default", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	line := buf.String()
	if !strings.Contains(line, "template_id=default") {
		t.Errorf("log %q lacks the query string", line)
	}
}

func TestRequestLoggerIncludesUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("username", "maria")
		c.Next()
	})
	router.Use(RequestLogger())
	router.GET("/api/offers", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/offers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(buf.String(), "username=maria") {
		t.Errorf("log %q lacks the authenticated username", buf.String())
	}
}
