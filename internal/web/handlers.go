package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

// maxRowLimit bounds a single rows response; clients page with ?limit and
// ?offset.
const maxRowLimit = 1000

// tableInfo is the metadata served for one destination table.
type tableInfo struct {
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Component string   `json:"component,omitempty"`
	Columns   []string `json:"columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTables returns every destination table in processing order.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	infos := make([]tableInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, tableInfo{
			Name:      def.Name,
			Level:     def.Level,
			Component: def.Component,
			Columns:   def.Columns,
		})
	}
	respondJSON(w, http.StatusOK, infos)
}

// handleTableRows returns rows of one table as JSON objects keyed by column
// name.
func (s *Server) handleTableRows(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	def, ok := core.Get(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown table %q", name), http.StatusNotFound)
		return
	}

	limit := maxRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRowLimit {
			s.respondError(w, r, fmt.Errorf("limit must be 1-%d", maxRowLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, r, fmt.Errorf("offset must be non-negative"), http.StatusBadRequest)
			return
		}
		offset = n
	}

	cols := append([]string{"RowID"}, def.Columns...)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
		strings.Join(quoteAll(cols), ", "), quoteIdent(def.Name), quoteIdent("RowID"), limit, offset)

	rows, err := s.db.Query(r.Context(), query)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	out := make([]map[string]any, 0, limit)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"table":  def.Name,
		"count":  len(out),
		"offset": offset,
		"rows":   out,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError logs the technical error with the request id and returns a
// plain JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}
