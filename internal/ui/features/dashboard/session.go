package dashboard

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName  = "evaldash"
	sessionIDKey = "id"
)

func optionKey(slug string) string {
	return "option:" + slug
}

// session returns the visitor's session, assigning an id on first use.
// An undecodable cookie yields a fresh session.
func (h *Handlers) session(r *http.Request) *sessions.Session {
	sess, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		h.logger.Debug("discarding invalid session", "error", err)
	}
	if sess == nil {
		sess = sessions.NewSession(h.sessionStore, sessionName)
	}
	if _, ok := sess.Values[sessionIDKey].(string); !ok {
		sess.Values[sessionIDKey] = uuid.NewString()
		sess.IsNew = true
	}
	return sess
}

func sessionID(sess *sessions.Session) string {
	id, _ := sess.Values[sessionIDKey].(string)
	return id
}

// storedOption returns the option remembered for a page, if any.
func storedOption(sess *sessions.Session, slug string) string {
	opt, _ := sess.Values[optionKey(slug)].(string)
	return opt
}

// selectionSet holds the latest option per session and page while that page
// has at least one open update stream. Entries go away with the last stream.
type selectionSet struct {
	mu      sync.Mutex
	entries map[string]*selection
}

type selection struct {
	option  string
	streams int
}

func newSelectionSet() *selectionSet {
	return &selectionSet{entries: make(map[string]*selection)}
}

func (s *selectionSet) open(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &selection{}
		s.entries[key] = e
	}
	e.streams++
}

func (s *selectionSet) close(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if e.streams--; e.streams <= 0 {
		delete(s.entries, key)
	}
}

// set records option only when a stream is listening for key.
func (s *selectionSet) set(key, option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.option = option
	}
}

func (s *selectionSet) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.option
	}
	return ""
}

func (s *selectionSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func selectionKey(session, slug string) string {
	return session + "\x00" + slug
}
