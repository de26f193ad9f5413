package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatpack/chatpack/internal/archive"
	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/organize"
	"github.com/chatpack/chatpack/internal/pipeline"
	"github.com/chatpack/chatpack/internal/split"
	"github.com/chatpack/chatpack/internal/stats"
)

// maxUploadBytes bounds upload size; exports are rarely over a few
// hundred MB.
const maxUploadBytes = 512 << 20

type Server struct {
	router *chi.Mux
	store  *SessionStore
	addr   string
	log    *slog.Logger
}

func NewServer(addr string, store *SessionStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		store:  store,
		addr:   addr,
		log:    log,
	}

	router.Get("/health", s.health)
	router.Post("/api/upload", s.upload)
	router.Get("/api/preview/{sessionID}/{conversationID}", s.preview)
	router.Post("/api/convert", s.convert)
	router.Get("/api/download/{sessionID}", s.download)

	return s
}

func (s *Server) Start() error {
	s.log.Info("web server starting", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest, "Please upload a .zip file")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload: "+err.Error())
		return
	}

	session, err := s.store.Create(data)
	if err != nil {
		status := http.StatusInternalServerError
		if _, ok := err.(*archive.FormatError); ok {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	s.log.Info("session created", "session_id", session.ID, "conversations", len(session.Metas))
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    session.ID,
		"statistics":    statsDict(session.Stats),
		"conversations": metaDicts(session.Metas),
	})
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	session, ok := s.store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session expired or not found")
		return
	}

	md, ok := session.Preview(chi.URLParam(r, "conversationID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": md})
}

type convertRequest struct {
	SessionID          string   `json:"session_id"`
	ConversationIDs    []string `json:"conversation_ids"`
	Organize           string   `json:"organize"`
	IncludeFrontmatter *bool    `json:"include_frontmatter"`
	SplitSize          int      `json:"split_size"`
	Memories           string   `json:"memories"`
	Instructions       string   `json:"instructions"`
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing session_id")
		return
	}

	session, ok := s.store.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "Session expired or not found")
		return
	}

	mode, err := organize.ParseMode(req.Organize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := pipeline.DefaultOptions()
	opts.Organize = mode
	opts.Memories = req.Memories
	opts.Instructions = req.Instructions
	if req.IncludeFrontmatter != nil {
		opts.Frontmatter = *req.IncludeFrontmatter
	}
	if req.SplitSize > 0 {
		opts.SplitSize = req.SplitSize
	} else {
		opts.SplitSize = split.DefaultMaxSize
	}

	if err := session.Convert(r.Context(), req.ConversationIDs, opts); err != nil {
		s.log.Error("conversion failed", "session_id", session.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Conversion failed: "+err.Error())
		return
	}

	s.log.Info("conversion complete", "session_id", session.ID)
	writeJSON(w, http.StatusOK, map[string]any{"ready": true, "session_id": session.ID})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	session, ok := s.store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "No conversion result found")
		return
	}
	data, ok := session.Result()
	if !ok {
		writeError(w, http.StatusNotFound, "No conversion result found")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="chatpack_export.zip"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statsDict(e stats.Export) map[string]any {
	return map[string]any{
		"total_conversations":    e.TotalConversations,
		"total_messages":         e.TotalMessages,
		"messages_by_role":       e.MessagesByRole,
		"models_used":            e.ModelsUsed,
		"earliest_conversation":  isoOrNil(e.EarliestConversation),
		"latest_conversation":    isoOrNil(e.LatestConversation),
		"conversations_by_month": e.ConversationsByMonth,
	}
}

func metaDicts(metas []convo.Meta) []map[string]any {
	out := make([]map[string]any, 0, len(metas))
	for _, m := range metas {
		slugs := make([]string, 0, len(m.ModelSlugs))
		for s := range m.ModelSlugs {
			slugs = append(slugs, s)
		}
		sort.Strings(slugs)
		out = append(out, map[string]any{
			"id":            m.ID,
			"title":         m.Title,
			"created_at":    isoOrNil(m.CreatedAt),
			"updated_at":    isoOrNil(m.UpdatedAt),
			"message_count": m.MessageCount,
			"model_slugs":   slugs,
		})
	}
	return out
}

func isoOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
