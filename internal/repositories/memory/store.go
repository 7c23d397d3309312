// Package memory keeps every store in process memory. Service tests use it
// in place of Postgres; it honours the same lookup and association contracts.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

type pair struct {
	contactID string
	otherID   string
}

type state struct {
	contacts      map[string]models.Contact
	owners        map[string]models.Owner
	tags          map[string]models.Tag
	contactOwners map[pair]time.Time
	contactTags   map[pair]time.Time
	history       []models.MergeHistory
}

func newState() *state {
	return &state{
		contacts:      map[string]models.Contact{},
		owners:        map[string]models.Owner{},
		tags:          map[string]models.Tag{},
		contactOwners: map[pair]time.Time{},
		contactTags:   map[pair]time.Time{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.contacts {
		c.contacts[k] = v
	}
	for k, v := range s.owners {
		c.owners[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.contactOwners {
		c.contactOwners[k] = v
	}
	for k, v := range s.contactTags {
		c.contactTags[k] = v
	}
	c.history = append([]models.MergeHistory{}, s.history...)
	return c
}

type txKey struct{}

// Store is the shared state behind the per-entity views.
type Store struct {
	mu  sync.Mutex
	st  *state
	seq int64
	Now func() time.Time

	// detached holds history rows written outside the open transaction; a
	// rollback keeps them.
	detached []models.MergeHistory
}

// New creates an empty store
func New() *Store {
	return &Store{st: newState(), Now: time.Now}
}

// RunInTx restores the state captured at the outermost call when fn fails.
func (s *Store) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.detached = nil
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		snapshot.history = append(snapshot.history, s.detached...)
		s.st = snapshot
		s.detached = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil && !database.Detached(ctx)
}

// tick returns strictly increasing timestamps so insertion order is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.Now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
}

// Contacts returns the contact repository view of the store.
func (s *Store) Contacts() *Contacts { return &Contacts{s} }

// Owners returns the owner repository view of the store.
func (s *Store) Owners() *Owners { return &Owners{s} }

// Tags returns the tag repository view of the store.
func (s *Store) Tags() *Tags { return &Tags{s} }

// ContactOwners returns the contact owner join view of the store.
func (s *Store) ContactOwners() *ContactOwners { return &ContactOwners{s} }

// ContactTags returns the contact tag join view of the store.
func (s *Store) ContactTags() *ContactTags { return &ContactTags{s} }

// MergeHistory returns the merge history view of the store.
func (s *Store) MergeHistory() *MergeHistory { return &MergeHistory{s} }
