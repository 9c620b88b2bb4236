package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store keeps in-progress wizards in memory. Sessions idle for longer than
// the TTL are dropped, which is how abandoned drafts are discarded.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
}

func NewStore(ttl, cleanupInterval time.Duration) *Store {
	return &Store{
		sessions: cache.New(ttl, cleanupInterval),
		ttl:      ttl,
	}
}

func (s *Store) Create(ownerID uuid.UUID) *Wizard {
	w := NewWizard(ownerID)
	s.sessions.Set(w.ID().String(), w, s.ttl)
	return w
}

// Get returns the caller's wizard and extends its TTL. A session owned by
// someone else is reported as missing.
func (s *Store) Get(id, ownerID uuid.UUID) (*Wizard, error) {
	v, ok := s.sessions.Get(id.String())
	if !ok {
		return nil, ErrSessionNotFound
	}
	w := v.(*Wizard)
	if w.OwnerID() != ownerID {
		return nil, ErrSessionNotFound
	}
	s.sessions.Set(id.String(), w, s.ttl)
	return w, nil
}

// Discard drops a session. A session with a submission running is kept.
func (s *Store) Discard(id, ownerID uuid.UUID) error {
	w, err := s.Get(id, ownerID)
	if err != nil {
		return err
	}
	if w.busy() {
		return ErrSubmissionInFlight
	}
	s.sessions.Delete(id.String())
	return nil
}

func (s *Store) Len() int {
	return s.sessions.ItemCount()
}
