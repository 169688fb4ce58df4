// Package session is a minimal header-token session store. A client
// posts the permissions it wants and receives an opaque token to send
// back in a header. It performs no credential checks and exists to
// drive the demo server and end-to-end tests.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// DefaultHeader carries the session token when no other header is
// configured.
const DefaultHeader = "TOKEN"

// Session is the principal produced by the store.
type Session struct {
	ID          string   `json:"id"`
	Permissions []string `json:"permissions"`
}

func (s Session) String() string { return s.ID }

// Permissions is the engine extractor for sessions.
func Permissions(s Session) []string { return s.Permissions }

// Store keeps sessions in memory keyed by token.
type Store struct {
	header string
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore returns an empty store reading tokens from header.
func NewStore(header string, logger *slog.Logger) *Store {
	if header == "" {
		header = DefaultHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{header: header, logger: logger, sessions: make(map[string]Session)}
}

func (s *Store) Header() string { return s.header }

// Issue creates a session holding permissions and returns its token.
func (s *Store) Issue(permissions []string) (string, Session) {
	token := uuid.NewString()
	sess := Session{ID: uuid.NewString(), Permissions: append([]string(nil), permissions...)}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	return token, sess
}

func (s *Store) Lookup(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Identify resolves the session named by the request's token header.
func (s *Store) Identify(r *http.Request) (Session, bool) {
	token := r.Header.Get(s.header)
	if token == "" {
		return Session{}, false
	}
	return s.Lookup(token)
}

// IssueHandler accepts a JSON array of permission names and responds
// with the new token in the store's header.
func (s *Store) IssueHandler(w http.ResponseWriter, r *http.Request) {
	var permissions []string
	if err := json.NewDecoder(r.Body).Decode(&permissions); err != nil {
		http.Error(w, fmt.Sprintf("decode permissions: %v", err), http.StatusBadRequest)
		return
	}

	token, sess := s.Issue(permissions)
	s.logger.Debug("session issued", "session", sess.ID, "permissions", sess.Permissions)

	w.Header().Set(s.header, token)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger.Warn("encode session", "error", err)
	}
}
