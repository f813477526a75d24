package roomlist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPHandler exposes the room list for lobby browsing.
type HTTPHandler struct {
	roomList Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(roomListService Service) *HTTPHandler {
	return &HTTPHandler{roomList: roomListService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/rooms", h.handleList)
	mux.HandleFunc("/api/rooms/", h.handleGet)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.roomList.Select(ctx, limit, cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query room list failed")
		return
	}

	next := ""
	if len(records) == limit {
		next = records[len(records)-1].RoomID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      records,
		"nextCursor": next,
	})
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	roomID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/rooms/"))
	if roomID == "" || strings.Contains(roomID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	record, err := h.roomList.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "query room failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultSelectLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxSelectLimit {
		return defaultSelectLimit
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
