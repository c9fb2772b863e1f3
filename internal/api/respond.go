package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
)

// Error codes in the response envelope.
const (
	codeInvalidInput = "err_invalid_input"
	codeNotFound     = "err_not_found"
	codeDuplicate    = "err_duplicate"
	codeInternal     = "err_internal"
)

const defaultPageSize = 10

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorEnvelope{Code: code, Message: message})
}

// respondError maps pipeline error kinds onto the HTTP envelope. Anything
// not recognized is a 500 with the detail kept out of the response body.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case enquiry.IsValidation(err):
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case enquiry.IsNotFound(err):
		respondErrorCode(w, http.StatusNotFound, codeNotFound, err.Error())
	case enquiry.IsDuplicate(err):
		respondErrorCode(w, http.StatusConflict, codeDuplicate, err.Error())
	default:
		zap.L().Error("api: internal error", zap.Error(err))
		respondErrorCode(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// pageParams reads page/limit query parameters. Page numbering starts at 1.
func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 1 {
		page = v
	}
	return limit, (page - 1) * limit
}

// urlParam returns a decoded path parameter. Enquiry ids contain slashes,
// so clients send them percent-encoded and chi hands them back raw.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return false
	}
	return true
}
