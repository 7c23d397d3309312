// Package relationships manages owners, tags and their many-to-many links
// to contacts. Single-pair operations are strict; bulk operations skip and
// report pairs they cannot apply.
package relationships

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// Lookups return nil, nil when nothing matches.
type ContactLookup interface {
	GetByID(ctx context.Context, id string) (*models.Contact, error)
}

// OwnerStore persists owners
type OwnerStore interface {
	Insert(ctx context.Context, owner *models.Owner) error
	GetByID(ctx context.Context, id string) (*models.Owner, error)
	GetByName(ctx context.Context, name string) (*models.Owner, error)
	List(ctx context.Context) ([]models.Owner, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// TagStore persists tags
type TagStore interface {
	Insert(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id string) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context, includeInactive bool) ([]models.Tag, error)
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]models.Tag, error)
	Popular(ctx context.Context, limit int) ([]models.TagUsage, error)
}

// ContactOwnerStore owns the contact_owners join. Add reports false when the
// pair already existed; Remove reports false when it did not.
type ContactOwnerStore interface {
	Add(ctx context.Context, contactID, ownerID string) (bool, error)
	Remove(ctx context.Context, contactID, ownerID string) (bool, error)
	ListForContact(ctx context.Context, contactID string) ([]models.Owner, error)
}

// ContactTagStore owns the contact_tags join, with the same Add/Remove
// contract as ContactOwnerStore.
type ContactTagStore interface {
	Add(ctx context.Context, contactID, tagID string) (bool, error)
	Remove(ctx context.Context, contactID, tagID string) (bool, error)
	ListForContact(ctx context.Context, contactID string) ([]models.Tag, error)
	ListContacts(ctx context.Context, tagID string, withEmailOnly bool) ([]models.Contact, error)
	CountContacts(ctx context.Context, tagID string) (int, error)
}

const SearchLimit = 20

// Config holds the limits of the relationship service
type Config struct {
	DefaultTagColor string
	MaxPageSize     int
	Now             func() time.Time
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		DefaultTagColor: "#3B82F6",
		MaxPageSize:     100,
		Now:             time.Now,
	}
}

// Service manages owners and tags and their links to contacts
type Service struct {
	log           ectologger.Logger
	contacts      ContactLookup
	owners        OwnerStore
	tags          TagStore
	contactOwners ContactOwnerStore
	contactTags   ContactTagStore
	tx            database.TxRunner
	cfg           Config
}

// NewService creates a new relationship service
func NewService(
	log ectologger.Logger,
	contacts ContactLookup,
	owners OwnerStore,
	tags TagStore,
	contactOwners ContactOwnerStore,
	contactTags ContactTagStore,
	tx database.TxRunner,
	cfg Config,
) *Service {
	defaults := DefaultConfig()
	if cfg.DefaultTagColor == "" {
		cfg.DefaultTagColor = defaults.DefaultTagColor
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	return &Service{
		log:           log,
		contacts:      contacts,
		owners:        owners,
		tags:          tags,
		contactOwners: contactOwners,
		contactTags:   contactTags,
		tx:            tx,
		cfg:           cfg,
	}
}
