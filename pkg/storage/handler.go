package storage

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/sightline/pkg/handlers"
)

// Handler streams the object named by the {key...} path wildcard.
// The content type is derived from the key's extension.
func Handler(store System, logger *slog.Logger) http.HandlerFunc {
	logger = logger.With("handler", "storage")

	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")

		body, err := store.Download(r.Context(), key)
		if err != nil {
			handlers.RespondError(w, logger, MapHTTPStatus(err), err)
			return
		}
		defer body.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			logger.Warn("stream object failed", "key", key, "error", err)
		}
	}
}
