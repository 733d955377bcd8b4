package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrstudio/qrstudio/internal/config"
	"github.com/qrstudio/qrstudio/internal/decode"
	"github.com/qrstudio/qrstudio/internal/preview"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.OutputDir = t.TempDir()

	h := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := gin.New()
	h.Register(r)
	return r, h
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGenerateReturnsPreviewPNG(t *testing.T) {
	r, h := newTestRouter(t)

	w := postForm(r, "/api/generate", url.Values{
		"text":       {"https://example.com"},
		"level":      {"Quartile (25%)"},
		"moduleSize": {"8"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, preview.DisplaySize, img.Bounds().Dx())
	assert.Equal(t, preview.DisplaySize, img.Bounds().Dy())

	require.NotNil(t, h.Session.Current())
	assert.Equal(t, 8, h.Session.Current().ModuleSize)
}

func TestGenerateEmptyTextRejected(t *testing.T) {
	r, h := newTestRouter(t)

	for _, text := range []string{"", "   "} {
		w := postForm(r, "/api/generate", url.Values{"text": {text}})
		assert.Equal(t, http.StatusBadRequest, w.Code, "text %q", text)
		assert.Nil(t, h.Session.Current())
	}
}

func TestGenerateBadModuleSize(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postForm(r, "/api/generate", url.Values{"text": {"x"}, "moduleSize": {"50"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(r, "/api/generate", url.Values{"text": {"x"}, "moduleSize": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateBadInputLeavesStatusUnchanged(t *testing.T) {
	r, h := newTestRouter(t)

	// Bad input before any generate: the status line stays at its
	// initial value.
	w := postForm(r, "/api/generate", url.Values{"text": {"   "}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ready", h.Session.Status())

	w = postForm(r, "/api/generate", url.Values{"text": {"x"}, "moduleSize": {"50"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ready", h.Session.Status())

	// And after a success: a later bad input keeps the success status.
	require.Equal(t, http.StatusOK, postForm(r, "/api/generate", url.Values{"text": {"ok"}}).Code)
	want := h.Session.Status()

	w = postForm(r, "/api/generate", url.Values{"text": {""}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, want, h.Session.Status())
}

func TestGenerateFailureKeepsPreviousImage(t *testing.T) {
	r, h := newTestRouter(t)

	w := postForm(r, "/api/generate", url.Values{"text": {"keep"}})
	require.Equal(t, http.StatusOK, w.Code)
	kept := h.Session.Current()
	require.NotNil(t, kept)

	w = postForm(r, "/api/generate", url.Values{"text": {"  "}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Same(t, kept, h.Session.Current())
}

func TestImageBeforeGenerate(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/api/qr")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestImageOriginalStreamsCanonicalBytes(t *testing.T) {
	r, h := newTestRouter(t)

	require.Equal(t, http.StatusOK, postForm(r, "/api/generate", url.Values{"text": {"download"}}).Code)

	w := get(r, "/api/qr?size=original")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(h.Session.Current().PNG, w.Body.Bytes()))

	w = get(r, "/api/qr?size=original&format=jpeg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestSaveBeforeGenerate(t *testing.T) {
	r, h := newTestRouter(t)
	// Point at a directory that does not exist yet: the precondition
	// failure must not even create it.
	h.Cfg.OutputDir = filepath.Join(t.TempDir(), "never", "created")

	w := postForm(r, "/api/save", url.Values{"filename": {"qr.png"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	_, err := os.Stat(h.Cfg.OutputDir)
	assert.True(t, os.IsNotExist(err), "save before generate must perform no I/O")
}

func TestSaveRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	const text = "https://example.com/round-trip"
	require.Equal(t, http.StatusOK, postForm(r, "/api/generate", url.Values{"text": {text}}).Code)

	w := postForm(r, "/api/save", url.Values{"filename": {"qr.png"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Path   string `json:"path"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Status, "Saved to: "))

	got, err := decode.ScanFile(body.Path)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	r, h := newTestRouter(t)
	require.Equal(t, http.StatusOK, postForm(r, "/api/generate", url.Values{"text": {"x"}}).Code)

	w := postForm(r, "/api/save", url.Values{"filename": {"../../escape.png"}})
	require.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(filepath.Join(h.Cfg.OutputDir, "escape.png"))
	assert.NoError(t, err, "file must land inside the output dir")
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		State  string `json:"state"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "idle", body.State)
	assert.Equal(t, "Ready", body.Status)

	require.Equal(t, http.StatusOK, postForm(r, "/api/generate", url.Values{"text": {"state"}}).Code)

	w = get(r, "/api/status")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "generated", body.State)
	assert.Equal(t, "Generated QR code for: state", body.Status)
}
