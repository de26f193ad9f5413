// Package web exposes the conversion pipeline over HTTP: upload an
// export ZIP, preview and select conversations, convert, download the
// resulting package. All session state stays in memory; nothing
// touches disk.
package web

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatpack/chatpack/internal/archive"
	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/markdown"
	"github.com/chatpack/chatpack/internal/pipeline"
	"github.com/chatpack/chatpack/internal/stats"
)

// maxSessionAge is how long an upload stays available for conversion.
const maxSessionAge = time.Hour

// outputBase is the top-level directory inside the download ZIP.
const outputBase = "claude_import"

// Session holds one upload's state across the preview and convert
// round trips.
type Session struct {
	ID        string
	CreatedAt time.Time

	raws  []convo.RawConversation
	Metas []convo.Meta
	Stats stats.Export

	mu        sync.Mutex
	resultZip []byte
}

// newSession extracts and decodes the uploaded ZIP and runs the cheap
// metadata pass for list views.
func newSession(fileData []byte) (*Session, error) {
	data, err := archive.ExtractBytes(fileData)
	if err != nil {
		return nil, err
	}
	raws, err := convo.DecodeConversations(data)
	if err != nil {
		return nil, err
	}

	metas := convo.ParseMeta(raws)
	records := make([]stats.Record, 0, len(metas))
	for _, m := range metas {
		records = append(records, stats.FromMeta(m))
	}

	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		raws:      raws,
		Metas:     metas,
		Stats:     stats.Compute(records),
	}, nil
}

// Preview fully parses and renders a single conversation.
func (s *Session) Preview(conversationID string) (string, bool) {
	for _, raw := range s.raws {
		if raw.ID == conversationID {
			c := convo.ParseOne(raw)
			return markdown.RenderConversation(&c, markdown.DefaultOptions()), true
		}
	}
	return "", false
}

// Convert runs the pipeline over the selected conversations (nil = all)
// and stores the resulting package ZIP for download.
func (s *Session) Convert(ctx context.Context, ids []string, opts pipeline.Options) error {
	selected := s.raws
	if len(ids) > 0 {
		want := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
		selected = nil
		for _, raw := range s.raws {
			if _, ok := want[raw.ID]; ok {
				selected = append(selected, raw)
			}
		}
	}

	res := pipeline.RunRaws(ctx, selected, opts)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range res.Files {
		w, err := zw.Create(outputBase + "/" + f.Path)
		if err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
		if _, err := w.Write(f.Content); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	s.mu.Lock()
	s.resultZip = buf.Bytes()
	s.mu.Unlock()
	return nil
}

// Result returns the converted package, or false if Convert has not
// completed for this session.
func (s *Session) Result() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resultZip == nil {
		return nil, false
	}
	return s.resultZip, true
}

// SessionStore is an in-memory session registry with age-based expiry.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new session from an uploaded ZIP.
func (st *SessionStore) Create(fileData []byte) (*Session, error) {
	session, err := newSession(fileData)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.cleanupLocked()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session, nil
}

// Get returns a live session, dropping it if expired.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.now().Sub(s.CreatedAt) > maxSessionAge {
		delete(st.sessions, id)
		return nil, false
	}
	return s, true
}

func (st *SessionStore) cleanupLocked() {
	now := st.now()
	for id, s := range st.sessions {
		if now.Sub(s.CreatedAt) > maxSessionAge {
			delete(st.sessions, id)
		}
	}
}
