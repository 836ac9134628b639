package detections

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/sightline/pkg/handlers"
	"github.com/JaimeStill/sightline/pkg/routes"
)

// multipartMemory bounds how much of a multipart form is buffered in memory;
// the remainder spills to temporary files. The request size limit itself is
// enforced by middleware.MaxBytes.
const multipartMemory = 8 << 20

// Handler provides HTTP endpoints for detection operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "detections"),
	}
}

// Routes returns the route group definition for detection endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/detections",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Upload},
		},
	}
}

// List returns every detection record, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.sys.ListAll(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, recs)
}

// Find returns a single record by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Upload runs the upload pipeline on a multipart form and returns the new record.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseUpload(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), errors.New(Message(err)))
		return
	}

	rec, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		status := MapHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("upload failed", "error", err)
		}
		handlers.RespondError(w, h.logger, status, errors.New(Message(err)))
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rec)
}

// ParseUpload reads the multipart "file", "location" and "incharge" fields.
// A missing or unnamed file yields ErrNoFile; a body over the configured
// limit yields ErrFileTooLarge.
func ParseUpload(r *http.Request) (CreateCommand, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			return CreateCommand{}, ErrFileTooLarge
		}
		return CreateCommand{}, ErrNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return CreateCommand{}, ErrNoFile
	}
	defer file.Close()

	if header.Filename == "" {
		return CreateCommand{}, ErrNoFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return CreateCommand{}, ErrNoFile
	}

	return CreateCommand{
		Data:     data,
		Filename: header.Filename,
		Location: strings.TrimSpace(r.FormValue("location")),
		Incharge: strings.TrimSpace(r.FormValue("incharge")),
	}, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
