package server

import (
	"bytes"
	"errors"
	logger "log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteJSON_LogsWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Default()
	logger.SetDefault(logger.New(logger.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { logger.SetDefault(prev) })

	w := brokenWriter{httptest.NewRecorder()}
	writeData(w, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "Failed to write response")
	assert.Contains(t, buf.String(), "connection reset")
}
