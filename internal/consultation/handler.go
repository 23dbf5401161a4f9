package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"symptom-triage/internal/ratelimit"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// UserHeader carries the caller's user id when the body or query does not.
const UserHeader = "X-User-ID"

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(key string) bool
}

type Handler struct {
	svc     Service
	log     *zap.Logger
	limiter Limiter
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// WithLimiter throttles Chat per resolved user id, or per client IP for
// anonymous callers.
func (h *Handler) WithLimiter(l Limiter) *Handler {
	h.limiter = l
	return h
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = r.Header.Get(UserHeader)
	}
	if h.limiter != nil && !h.limiter.Allow(ratelimit.Key(req.UserID, r)) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	resp, err := h.svc.Handle(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.svc.History(r.Context(), userFrom(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	user := normalizeUser(userFrom(r))
	doc, err := h.svc.ExportHistory(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="history_%s.pdf"`, sanitizeFilename(user)))
	_, _ = w.Write(doc)
}

func (h *Handler) Symptoms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"symptoms": h.svc.Symptoms()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTokenizerUnavailable), errors.Is(err, ErrExportUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		h.log.Debug("request cancelled", zap.String("path", r.URL.Path))
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userFrom(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return r.Header.Get(UserHeader)
}

func sanitizeFilename(s string) string {
	out := []rune(s)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.Chat)
	r.Get("/history", h.History)
	r.Get("/history/export", h.ExportHistory)
	r.Get("/symptoms", h.Symptoms)
}
