package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/store"
)

const maxBodyBytes = 64 * 1024

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service errors onto status codes, preferring
// the service's user-facing message when one is set.
func writeServiceError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotSignedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNoEntries):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDueDay),
		errors.Is(err, core.ErrInvalidColor):
		status = http.StatusUnprocessableEntity
	}
	if message == "" {
		message = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// encodeForCache marshals a view for the byte cache.
func encodeForCache(v any) ([]byte, bool) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return append(body, '\n'), true
}

// viewKey builds a cache key scoped to user and period so selection
// changes never serve a stale view.
func (s *Server) viewKey(view, userID string, extra ...string) string {
	parts := []string{
		"view", userID, view,
		s.selection.Month(), strconv.Itoa(s.selection.Year()),
	}
	parts = append(parts, extra...)
	return strings.Join(parts, ":")
}

// invalidateViews drops every cached view belonging to the user.
func (s *Server) invalidateViews(userID string) {
	s.viewCache.DeletePrefix("view:" + userID + ":")
}

// currentUserID resolves the session user, writing the error response
// itself when resolution fails.
func (s *Server) currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.session.UserID(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "resolve current user", "error", err)
		writeServiceError(w, err, "could not resolve the current user")
		return "", false
	}
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"})
		return "", false
	}
	return userID, true
}
