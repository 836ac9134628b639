package storage_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/pkg/storage"
)

func serveKey(store storage.System, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /uploads/{key...}", storage.Handler(store, discardLogger()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerStreamsObject(t *testing.T) {
	store, _ := newLocal(t)
	require.NoError(t, store.Upload(context.Background(), "abc_photo.png", bytes.NewReader([]byte("png-bytes")), "image/png"))

	rec := serveKey(store, "/uploads/abc_photo.png")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestHandlerMissingObject(t *testing.T) {
	store, _ := newLocal(t)

	rec := serveKey(store, "/uploads/missing.jpg")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "object not found")
}

func TestHandlerRejectsTraversal(t *testing.T) {
	store, _ := newLocal(t)

	rec := serveKey(store, "/uploads/a/../../etc/passwd")

	assert.NotEqual(t, http.StatusOK, rec.Code)
}
