package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMintsWhenAbsent(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(requestIDHeader)
	})

	h := RequestID(zerolog.Nop(), next)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, got, "the inbound request is not mutated, only the response header is set")
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	h := RequestID(zerolog.Nop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "fixed-id-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "fixed-id-123", rr.Header().Get(requestIDHeader))
}
