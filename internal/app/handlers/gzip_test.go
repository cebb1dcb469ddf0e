package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		acceptEncoding string
		wantEncoding   string
	}{
		{name: "compressed when accepted", status: http.StatusOK, acceptEncoding: "gzip, deflate", wantEncoding: "gzip"},
		{name: "plain when not accepted", status: http.StatusOK, wantEncoding: ""},
		{name: "no body on 204", status: http.StatusNoContent, acceptEncoding: "gzip", wantEncoding: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNoContent {
					_, _ = w.Write([]byte("hello"))
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantEncoding, w.Header().Get("Content-Encoding"))
			if tt.wantEncoding == "" && tt.status == http.StatusOK {
				assert.Equal(t, "hello", w.Body.String())
			}
		})
	}
}

func TestGzipMiddleware_BrokenRequestBody(t *testing.T) {
	called := false
	h := GzipMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}
