package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/tfstudio/internal/library"
	"github.com/kalambet/tfstudio/internal/tsf"
)

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Library *library.Manager
	Token   string
}

// ListResponse is the body returned by GET /transformations.
type ListResponse struct {
	Transformations []library.Transformation `json:"transformations"`
	Total           int                      `json:"total"`
}

// NewAppHandler returns the HTTP API. /health is public; every other route
// requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/tsf/encode", handleEncode)
		r.Post("/tsf/decode", handleDecode)
		r.Post("/tsf/upgrade", handleUpgrade)

		r.Get("/transformations", handleListTransformations(deps))
		r.Post("/transformations", handleCreateTransformation(deps))
		r.Post("/transformations/import", handleImportTransformation(deps))
		r.Get("/transformations/{id}", handleGetTransformation(deps))
		r.Put("/transformations/{id}", handleUpdateTransformation(deps))
		r.Delete("/transformations/{id}", handleDeleteTransformation(deps))
		r.Get("/transformations/{id}/export", handleExportTransformation(deps))
	})

	return r
}

func handleListTransformations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		items, total, err := deps.Library.List(limit, offset)
		if err != nil {
			libraryError(w, err, "failed to list transformations")
			return
		}

		writeJSON(w, http.StatusOK, ListResponse{Transformations: items, Total: total})
	}
}

func handleCreateTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := readProfile(w, r)
		if !ok {
			return
		}

		t, err := deps.Library.Create(p, "api")
		if err != nil {
			libraryError(w, err, "failed to create transformation")
			return
		}

		writeJSON(w, http.StatusCreated, t)
	}
}

// handleImportTransformation accepts either a JSON {"tsf": ...} body or the
// raw text of a .tsf file.
func handleImportTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading request body: %v", err)
			return
		}

		text := string(body)
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
			var req TSFRequest
			if err := json.Unmarshal(body, &req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
				return
			}
			text = req.TSF
		}
		text = strings.TrimRight(text, "\r\n")
		if text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "tsf is required")
			return
		}

		t, err := deps.Library.Import(text, "import")
		if err != nil {
			libraryError(w, err, "failed to import transformation")
			return
		}

		writeJSON(w, http.StatusCreated, t)
	}
}

func handleGetTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := deps.Library.Get(chi.URLParam(r, "id"))
		if err != nil {
			libraryError(w, err, "failed to get transformation")
			return
		}

		writeJSON(w, http.StatusOK, t)
	}
}

func handleUpdateTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := readProfile(w, r)
		if !ok {
			return
		}

		t, err := deps.Library.Update(chi.URLParam(r, "id"), p)
		if err != nil {
			libraryError(w, err, "failed to update transformation")
			return
		}

		writeJSON(w, http.StatusOK, t)
	}
}

func handleDeleteTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Library.Delete(chi.URLParam(r, "id")); err != nil {
			libraryError(w, err, "failed to delete transformation")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleExportTransformation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename, text, err := deps.Library.Export(chi.URLParam(r, "id"))
		if err != nil {
			libraryError(w, err, "failed to export transformation")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Write([]byte(text))
	}
}

func readProfile(w http.ResponseWriter, r *http.Request) (tsf.Profile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var p tsf.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return tsf.Profile{}, false
	}
	return p, true
}

// libraryError maps library errors onto HTTP status codes.
func libraryError(w http.ResponseWriter, err error, msg string) {
	switch {
	case library.IsValidation(err):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, library.ErrInvalidTSF):
		httpError(w, http.StatusUnprocessableEntity, "invalid_tsf", "%v", err)
	case errors.Is(err, library.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "transformation not found")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", msg, err)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
