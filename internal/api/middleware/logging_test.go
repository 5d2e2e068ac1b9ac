package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"lobby-backend/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hijackableRecorder struct {
	http.ResponseWriter
	hijacked bool
	err      error
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, h.err
}

func TestLoggingMiddlewarePreservesHijacker(t *testing.T) {
	expectedErr := errors.New("hijack invoked")
	recorder := &hijackableRecorder{
		ResponseWriter: httptest.NewRecorder(),
		err:            expectedErr,
	}

	handlerCalled := false
	handler := Logging(logging.Discard())(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		hj, ok := w.(http.Hijacker)
		require.True(t, ok, "response writer should implement http.Hijacker")
		_, _, err := hj.Hijack()
		assert.ErrorIs(t, err, expectedErr)
	})

	handler(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, handlerCalled)
	assert.True(t, recorder.hijacked)
}

func TestLoggingMiddlewareWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput("production", "info", &buf)

	handler := Logging(logrus.NewEntry(log))(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ws/v1/rooms/by-token?token=x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler(rec, req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
}
