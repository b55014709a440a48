// Package sessions holds the short-lived link between a completed acquisition
// and the image set available for composition.
package sessions

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"propshot/apperr"
)

// Clock is injected so TTL behavior is testable without real delays.
type Clock func() time.Time

// Session is owned exclusively by the Store; readers get a snapshot copy.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Images     []string
	ListingURL string
}

type Store struct {
	mu    sync.Mutex
	items map[string]Session
	ttl   time.Duration
	now   Clock
}

func NewStore(ttl time.Duration, clock Clock) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		items: make(map[string]Session),
		ttl:   ttl,
		now:   clock,
	}
}

// NewID builds a time-seeded, collision-resistant session token.
func (s *Store) NewID() string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("session_%d_%s", s.now().Unix(), frag)
}

// Put registers a completed acquisition and returns its session id.
func (s *Store) Put(images []string, listingURL string) Session {
	sess := Session{
		ID:         s.NewID(),
		CreatedAt:  s.now(),
		Images:     images,
		ListingURL: listingURL,
	}

	s.mu.Lock()
	s.items[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a snapshot of the session, or NotFound if absent or expired.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return Session{}, apperr.New(apperr.KindNotFound, "session %s not found or expired", id)
	}
	if s.expired(sess) {
		delete(s.items, id)
		return Session{}, apperr.New(apperr.KindNotFound, "session %s not found or expired", id)
	}

	snapshot := sess
	snapshot.Images = append([]string(nil), sess.Images...)
	return snapshot, nil
}

// Delete removes a session; absent ids fail NotFound so deletes stay
// observable, though repeating one is harmless.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperr.New(apperr.KindNotFound, "session %s not found", id)
	}
	delete(s.items, id)
	log.Printf("Deleted session %s", id)
	return nil
}

// List returns live sessions oldest-first, sweeping expired entries first.
func (s *Store) List() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	out := make([]Session, 0, len(s.items))
	for _, sess := range s.items {
		snapshot := sess
		snapshot.Images = append([]string(nil), sess.Images...)
		out = append(out, snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep evicts expired entries and returns the live count. It runs
// opportunistically from List and the health probe; staleness only affects
// visibility, never a composition already holding its snapshot.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	return len(s.items)
}

func (s *Store) sweepLocked() {
	for id, sess := range s.items {
		if s.expired(sess) {
			delete(s.items, id)
			log.Printf("Cleaned expired session %s", id)
		}
	}
}

func (s *Store) expired(sess Session) bool {
	return s.now().Sub(sess.CreatedAt) > s.ttl
}

// Age reports how old a session is, for the listing endpoint.
func (s *Store) Age(sess Session) time.Duration {
	return s.now().Sub(sess.CreatedAt)
}
