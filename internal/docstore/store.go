// Package docstore is the live data source behind the shipped routes:
// an in-memory document collection that other parts of the process (or
// a bridge to an external application) mutate while the filesystem is
// being served.
package docstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Document is one entry in the store.
type Document struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"-"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Store holds documents keyed by id. All methods are safe for
// concurrent use; route handlers run on independent goroutines.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]*Document
	order   []string // creation order, for stable listings
	nextID  int
	focused string // id of the most recently touched document
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		docs: make(map[string]*Document),
		now:  time.Now,
	}
}

// Create adds a document with the given title and returns a copy.
func (s *Store) Create(title string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	doc := &Document{
		ID:      fmt.Sprintf("%d", s.nextID),
		Title:   title,
		Created: now,
		Updated: now,
	}
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	s.focused = doc.ID
	return *doc
}

// Get returns a copy of the document, if it exists.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// List returns copies of all documents in creation order.
func (s *Store) List() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.docs[id])
	}
	return out
}

// SetBody replaces the document's body.
func (s *Store) SetBody(id, body string) bool {
	return s.update(id, func(doc *Document) { doc.Body = body })
}

// SetTitle replaces the document's title.
func (s *Store) SetTitle(id, title string) bool {
	return s.update(id, func(doc *Document) { doc.Title = title })
}

func (s *Store) update(id string, fn func(*Document)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return false
	}
	fn(doc)
	doc.Updated = s.now()
	s.focused = id
	return true
}

// Remove deletes the document.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.focused == id {
		s.focused = ""
	}
	return true
}

// LastFocused returns the id of the most recently created or mutated
// document.
func (s *Store) LastFocused() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focused, s.focused != ""
}

// IndexJSON renders the document index (everything but bodies) as
// pretty-printed JSON with a trailing newline.
func (s *Store) IndexJSON() (string, error) {
	docs := s.List()
	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
