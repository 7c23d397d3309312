package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// Contacts is the in-memory contact repository
type Contacts struct{ s *Store }

// Insert stores a new contact
func (r *Contacts) Insert(_ context.Context, contact *models.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if contact.Mobile != nil {
		for _, c := range r.s.st.contacts {
			if c.Name == contact.Name && c.Mobile != nil && *c.Mobile == *contact.Mobile {
				return errs.Conflict("contact with name %q and mobile %q already exists", contact.Name, *contact.Mobile)
			}
		}
	}
	stored := *contact
	stored.Owners = nil
	r.s.st.contacts[contact.ID] = stored
	return nil
}

// Update replaces a stored contact
func (r *Contacts) Update(_ context.Context, contact *models.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.contacts[contact.ID]; !ok {
		return errs.NotFound("contact %s not found", contact.ID)
	}
	stored := *contact
	stored.Owners = nil
	r.s.st.contacts[contact.ID] = stored
	return nil
}

// GetByID returns a copy of the contact, or nil when none exists
func (r *Contacts) GetByID(_ context.Context, id string) (*models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.st.contacts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// FindByIdentity returns the contact holding the name and mobile pair, ignoring excludeID
func (r *Contacts) FindByIdentity(_ context.Context, name, mobile, excludeID string) (*models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.st.contacts {
		if c.ID != excludeID && c.Name == name && c.Mobile != nil && *c.Mobile == mobile {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

// Delete drops the contact and its associations, as the foreign keys do.
func (r *Contacts) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.contacts[id]; !ok {
		return false, nil
	}
	delete(r.s.st.contacts, id)
	for p := range r.s.st.contactOwners {
		if p.contactID == id {
			delete(r.s.st.contactOwners, p)
		}
	}
	for p := range r.s.st.contactTags {
		if p.contactID == id {
			delete(r.s.st.contactTags, p)
		}
	}
	return true, nil
}

// List filters, sorts and pages contacts and returns the unpaged total
func (r *Contacts) List(_ context.Context, filter models.ContactFilter) ([]models.Contact, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []models.Contact
	for _, c := range r.s.st.contacts {
		if r.matches(c, filter) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []models.Contact{}, total, nil
	}
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (r *Contacts) matches(c models.Contact, f models.ContactFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !containsFold(c.Name, q) && !containsFold(deref(c.Email), q) && !containsFold(c.CompanyName, q) {
			return false
		}
	}
	if f.Company != "" && !containsFold(c.CompanyName, strings.ToLower(f.Company)) {
		return false
	}
	if f.RelationshipType != nil && (c.RelationshipType == nil || *c.RelationshipType != *f.RelationshipType) {
		return false
	}
	if f.IsWhatsappReachable != nil && c.IsWhatsappReachable != *f.IsWhatsappReachable {
		return false
	}
	if f.MinScore != nil && c.DataQualityScore < *f.MinScore {
		return false
	}
	if f.SourceSystem != nil && c.SourceSystem != *f.SourceSystem {
		return false
	}
	if f.OwnerName != "" && !r.hasOwnerNamed(c.ID, f.OwnerName) {
		return false
	}
	return true
}

func (r *Contacts) hasOwnerNamed(contactID, name string) bool {
	for p := range r.s.st.contactOwners {
		if p.contactID != contactID {
			continue
		}
		if owner, ok := r.s.st.owners[p.otherID]; ok && strings.EqualFold(owner.Name, name) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
