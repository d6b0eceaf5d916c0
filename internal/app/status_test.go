package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/trimgrid/internal/testutil"
)

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	a := &App{logger: newLogger("debug", "text", logs)}

	rec := httptest.NewRecorder()
	a.writeJSON(rec, http.StatusOK, map[string]any{"unencodable": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "Encoding status response failed.")
	assert.Contains(t, logs.String(), "level="+slog.LevelDebug.String())
}
