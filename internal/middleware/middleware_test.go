package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varsilias/energy-advisor/internal/buildinfo"
	"github.com/varsilias/energy-advisor/internal/logging"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, seen, 16)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReusesIncoming(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "edge-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "edge-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "bad id\nwith newline", seen)
	assert.Len(t, seen, 16)
}

func TestRecovererReturns500(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "info", true)
	h := Recoverer(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestAccessLogRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "info", true)
	h := RequestID()(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/ui/chat", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http", line["msg"])
	assert.Equal(t, "/ui/chat", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.EqualValues(t, 15, line["bytes"])
	assert.Equal(t, "10.0.0.7", line["remote"])
	assert.NotEmpty(t, line["req_id"])
}

func TestVersionHeader(t *testing.T) {
	h := VersionHeader()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, buildinfo.Version, rec.Header().Get("X-App-Version"))
	assert.Equal(t, buildinfo.Commit, rec.Header().Get("X-App-Commit"))
}

func TestRemoteIP(t *testing.T) {
	assert.Equal(t, "1.2.3.4", remoteIP("1.2.3.4:80"))
	assert.Equal(t, "::1", remoteIP("[::1]:80"))
	assert.Equal(t, "pipe", remoteIP("pipe"))
}
