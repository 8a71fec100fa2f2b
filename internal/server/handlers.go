package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/search"
)

// DefaultSearchLimit is the default number of search results to return.
const DefaultSearchLimit = 50

// writeJSON writes a JSON response with proper error handling.
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeMarkdown(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(body))
}

// urlParam returns a decoded route parameter. chi matches against the raw
// path, so an encoded slash arrives still escaped.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Logs.Activity()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	memory, err := s.deps.Knowledge.Memory()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, memory)
}

// handleMemoryEntry serves one note: 400 for an unknown category, 404 for
// a missing note.
func (s *Server) handleMemoryEntry(w http.ResponseWriter, r *http.Request) {
	body, err := s.deps.Knowledge.MemoryEntry(urlParam(r, "type"), urlParam(r, "name"))
	switch {
	case errors.Is(err, knowledge.ErrInvalidType):
		http.Error(w, "Invalid type", http.StatusBadRequest)
	case errors.Is(err, knowledge.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case err != nil:
		s.internalError(w, r, err)
	default:
		s.writeMarkdown(w, body)
	}
}

func (s *Server) handleConversationDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.deps.Logs.ConversationDates()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, dates)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	messages, err := s.deps.Logs.Conversation(urlParam(r, "date"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, messages)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	body, err := s.deps.Knowledge.Inventory()
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		http.Error(w, "No inventory", http.StatusNotFound)
	case err != nil:
		s.internalError(w, r, err)
	default:
		s.writeMarkdown(w, body)
	}
}

func (s *Server) handleAdvisors(w http.ResponseWriter, r *http.Request) {
	advisors, err := s.deps.Knowledge.Advisors()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, advisors)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.deps.Prober.Probe(r.Context()))
}

// handleSearch refreshes the note index and runs a full-text query.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		http.Error(w, "search index disabled", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	opts := search.Options{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		Limit:    DefaultSearchLimit,
	}
	if opts.Query == "" {
		http.Error(w, "missing q", http.StatusBadRequest)
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}

	if stats, err := index.IndexAll(s.deps.Index, s.deps.Roots); err != nil {
		s.log.Warn().Err(err).Msg("refresh note index")
	} else if stats.Updated > 0 || stats.Pruned > 0 {
		s.log.Debug().Stringer("stats", stats).Msg("note index refreshed")
	}

	results, err := search.Search(s.deps.Index, opts)
	if err != nil {
		// malformed FTS syntax is the caller's fault
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	s.writeJSON(w, results)
}

// handleStatic serves the dashboard front end. Upgrade requests on any
// path are treated as live connections.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if isUpgrade(r) {
		s.handleLive(w, r)
		return
	}
	if s.deps.PublicDir == "" {
		http.NotFound(w, r)
		return
	}
	if info, err := os.Stat(s.deps.PublicDir); err != nil || !info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.FileServer(http.Dir(filepath.Clean(s.deps.PublicDir))).ServeHTTP(w, r)
}
