package session

import(
	"sync"
	"time"
)

// A Store holds sessions by ID. Sessions are only touched under the
// store's lock, via Update; View hands out copies.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

func (st *Store)get(id string) *Session {
	s, exists := st.sessions[id]
	if !exists {
		s = New(id)
		st.sessions[id] = s
	}
	return s
}

// Update runs f on the session, creating it if needed.
func (st *Store)Update(id string, f func(s *Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return f(st.get(id))
}

// View returns a copy of the session.
func (st *Store)View(id string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.get(id)
}

func (st *Store)Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune forgets idle sessions not touched since `before`. Sessions that
// are mid-flow are kept.
func (st *Store)Prune(before time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		if s.State == Idle && s.Updated.Before(before) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
