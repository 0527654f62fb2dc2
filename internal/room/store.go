package room

import (
	"sort"
	"sync"
)

// PlaceholderDocument seeds the shared buffer of a freshly created room.
const PlaceholderDocument = "// start code here"

// DefaultLanguage is the execution language a room starts with.
const DefaultLanguage = "javascript"

// Room is one collaborative editing session. Members are keyed by
// connection id; the value is the display name, which is not unique.
type Room struct {
	members  map[string]string
	document string
	language string
}

// Info is a read-only snapshot of a room for listings.
type Info struct {
	ID          string `json:"id"`
	MemberCount int    `json:"member_count"`
	Language    string `json:"language"`
}

// Store maps room ids to live rooms. A room exists in the store iff it has
// at least one member (except for the window between Ensure and the first
// AddMember, which callers are expected to close in one event step).
// All mutating operations are no-ops on absent rooms.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// Ensure returns the room for key, creating it with the placeholder
// document if it does not exist yet.
func (s *Store) Ensure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[key]; !ok {
		s.rooms[key] = &Room{
			members:  make(map[string]string),
			document: PlaceholderDocument,
			language: DefaultLanguage,
		}
	}
}

// Exists reports whether the room is currently in the store.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[key]
	return ok
}

// AddMember records connID with the given display name in the room.
func (s *Store) AddMember(key, connID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.members[connID] = name
	}
}

// RemoveMember drops connID from the room. If that empties the member set,
// the room is deleted in the same step. Returns whether the member was
// present and whether the room was destroyed.
func (s *Store) RemoveMember(key, connID string) (removed, destroyed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[key]
	if !ok {
		return false, false
	}
	if _, ok := r.members[connID]; !ok {
		return false, false
	}
	delete(r.members, connID)
	if len(r.members) == 0 {
		delete(s.rooms, key)
		return true, true
	}
	return true, false
}

// SetDocument overwrites the room's document. Last write wins.
func (s *Store) SetDocument(key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.document = text
	}
}

// SetLanguage overwrites the room's language. Last write wins.
func (s *Store) SetLanguage(key, lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.language = lang
	}
}

// Document returns the room's current document.
func (s *Store) Document(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[key]
	if !ok {
		return "", false
	}
	return r.document, true
}

// Language returns the room's current language.
func (s *Store) Language(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[key]
	if !ok {
		return "", false
	}
	return r.language, true
}

// MemberConns returns the connection ids currently in the room.
func (s *Store) MemberConns(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[key]
	if !ok {
		return nil
	}
	conns := make([]string, 0, len(r.members))
	for connID := range r.members {
		conns = append(conns, connID)
	}
	return conns
}

// MemberNames returns the display names in the room, sorted. Duplicate
// names from distinct connections are kept.
func (s *Store) MemberNames(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[key]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(r.members))
	for _, name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of live rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// List returns a snapshot of every live room, sorted by id.
func (s *Store) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, len(s.rooms))
	for id, r := range s.rooms {
		infos = append(infos, Info{
			ID:          id,
			MemberCount: len(r.members),
			Language:    r.language,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
