package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kalambet/tfstudio/internal/tsf"
)

const maxRequestBodySize = 1 << 20 // 1MB

// TSFRequest carries a TSF text.
type TSFRequest struct {
	TSF string `json:"tsf"`
}

// DecodeResponse is the body returned by POST /tsf/decode.
type DecodeResponse struct {
	Version int         `json:"version"`
	Profile tsf.Profile `json:"profile"`
}

// UpgradeResponse is the body returned by POST /tsf/upgrade.
type UpgradeResponse struct {
	TSF           string `json:"tsf"`
	SourceVersion int    `json:"source_version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleEncode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var p tsf.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, TSFRequest{TSF: tsf.Encode(p)})
}

func handleDecode(w http.ResponseWriter, r *http.Request) {
	text, ok := readTSFRequest(w, r)
	if !ok {
		return
	}

	p, err := tsf.Parse(text)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "invalid_tsf", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, DecodeResponse{Version: tsf.Sniff(text).Version, Profile: p})
}

func handleUpgrade(w http.ResponseWriter, r *http.Request) {
	text, ok := readTSFRequest(w, r)
	if !ok {
		return
	}

	out, version, err := tsf.Upgrade(text)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "invalid_tsf", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, UpgradeResponse{TSF: out, SourceVersion: version})
}

func readTSFRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req TSFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return "", false
	}
	if req.TSF == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "tsf is required")
		return "", false
	}
	return req.TSF, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
