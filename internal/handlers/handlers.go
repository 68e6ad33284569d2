// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/render"
	"github.com/nextcloud/go_live_translation/internal/service"
	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

type Handler struct {
	Config  *config.Config
	Service *service.Application
}

func NewHandler(cfg *config.Config, svc *service.Application) *Handler {
	return &Handler{
		Config:  cfg,
		Service: svc,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	out := make([]languages.LanguageModel, 0, len(languages.SupportedLanguageMap))
	for _, lm := range languages.SupportedLanguageMap {
		out = append(out, lm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetDefaultContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ContextResponse{Context: h.Config.TranslationContext})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Sessions())
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.Service.Session(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Session not found."})
		return nil, false
	}
	return sess, true
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Detail())
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.DetailTable(sess.Detail()) + "\n"))
}

func (h *Handler) SetContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req ContextSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := sess.SetContext(r.Context(), req.Context); err != nil {
		h.controlFailed(w, sess.ID(), "set context", err)
		return
	}
	writeJSON(w, http.StatusOK, ContextResponse{Context: sess.Context()})
}

func (h *Handler) SetLanguages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req LanguagesSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if _, err := languages.Normalize(req.Source); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid or unsupported language ID provided."})
		return
	}
	if _, err := languages.Normalize(req.Target); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid or unsupported language ID provided."})
		return
	}

	if err := sess.SetLanguages(r.Context(), req.Source, req.Target); err != nil {
		h.controlFailed(w, sess.ID(), "set languages", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Languages set successfully for the session"})
}

func (h *Handler) ResetBackend(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	id, err := translation.ParseBackendID(r.PathValue("backend"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := sess.ResetBackend(r.Context(), id); err != nil {
		h.controlFailed(w, sess.ID(), "reset backend", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Backend reset."})
}

func (h *Handler) controlFailed(w http.ResponseWriter, sessionID, action string, err error) {
	slog.Error(action+" failed", "error", err, "session_id", sessionID)
	status := http.StatusInternalServerError
	if errors.Is(err, session.ErrStopped) {
		status = http.StatusGone
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /heartbeat", h.Heartbeat)

	mux.HandleFunc("GET /api/v1/languages", h.GetLanguages)
	mux.HandleFunc("GET /api/v1/context/default", h.GetDefaultContext)
	mux.HandleFunc("GET /ws/session", h.SessionSocket)

	mux.HandleFunc("GET /api/v1/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}/view", h.GetView)
	mux.HandleFunc("GET /api/v1/sessions/{id}/detail", h.GetDetail)
	mux.HandleFunc("GET /api/v1/sessions/{id}/table", h.GetTable)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/context", h.SetContext)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/languages", h.SetLanguages)
	mux.HandleFunc("POST /api/v1/sessions/{id}/backends/{backend}/reset", h.ResetBackend)
}
