package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// Tags is the in-memory tag repository
type Tags struct{ s *Store }

// Insert stores a new tag
func (r *Tags) Insert(_ context.Context, tag *models.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(tag.Name, tag.ID) {
		return errs.Conflict("tag %q already exists", tag.Name)
	}
	r.s.st.tags[tag.ID] = *tag
	return nil
}

// Update replaces a stored tag
func (r *Tags) Update(_ context.Context, tag *models.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.tags[tag.ID]; !ok {
		return errs.NotFound("tag %s not found", tag.ID)
	}
	if r.nameTaken(tag.Name, tag.ID) {
		return errs.Conflict("tag %q already exists", tag.Name)
	}
	r.s.st.tags[tag.ID] = *tag
	return nil
}

func (r *Tags) nameTaken(name, exceptID string) bool {
	for _, t := range r.s.st.tags {
		if t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

// GetByID returns a copy of the tag, or nil when none exists
func (r *Tags) GetByID(_ context.Context, id string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.st.tags[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// GetByName returns the tag with the exact name, or nil when none exists
func (r *Tags) GetByName(_ context.Context, name string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.st.tags {
		if t.Name == name {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

// List returns tags ordered by name, skipping inactive ones unless includeInactive is set
func (r *Tags) List(_ context.Context, includeInactive bool) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tags := []models.Tag{}
	for _, t := range r.s.st.tags {
		if t.IsActive || includeInactive {
			tags = append(tags, t)
		}
	}
	sortTags(tags)
	return tags, nil
}

// Delete refuses while contacts still reference the tag, as the foreign key does.
func (r *Tags) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.tags[id]; !ok {
		return false, nil
	}
	for p := range r.s.st.contactTags {
		if p.otherID == id {
			return false, errs.Conflict("tag %s is still referenced", id)
		}
	}
	delete(r.s.st.tags, id)
	return true, nil
}

// Search returns tags whose name or description contains query
func (r *Tags) Search(_ context.Context, query string, limit int) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q := strings.ToLower(query)
	tags := []models.Tag{}
	for _, t := range r.s.st.tags {
		if containsFold(t.Name, q) || containsFold(deref(t.Description), q) {
			tags = append(tags, t)
		}
	}
	sortTags(tags)
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// Popular returns the most used tags with their contact counts
func (r *Tags) Popular(_ context.Context, limit int) ([]models.TagUsage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := map[string]int{}
	for p := range r.s.st.contactTags {
		counts[p.otherID]++
	}
	usage := []models.TagUsage{}
	for _, t := range r.s.st.tags {
		usage = append(usage, models.TagUsage{Tag: t, ContactCount: counts[t.ID]})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].ContactCount != usage[j].ContactCount {
			return usage[i].ContactCount > usage[j].ContactCount
		}
		return usage[i].Name < usage[j].Name
	})
	if len(usage) > limit {
		usage = usage[:limit]
	}
	return usage, nil
}

// ContactTags is the in-memory contact tag join
type ContactTags struct{ s *Store }

// Add tags a contact and reports whether the pair is new
func (r *ContactTags) Add(_ context.Context, contactID, tagID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := pair{contactID, tagID}
	if _, ok := r.s.st.contactTags[p]; ok {
		return false, nil
	}
	r.s.st.contactTags[p] = r.s.tick()
	return true, nil
}

// Remove untags a contact and reports whether the pair existed
func (r *ContactTags) Remove(_ context.Context, contactID, tagID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := pair{contactID, tagID}
	if _, ok := r.s.st.contactTags[p]; !ok {
		return false, nil
	}
	delete(r.s.st.contactTags, p)
	return true, nil
}

// ListForContact returns the tags on a contact ordered by name
func (r *ContactTags) ListForContact(_ context.Context, contactID string) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tags := []models.Tag{}
	for p := range r.s.st.contactTags {
		if p.contactID == contactID {
			tags = append(tags, r.s.st.tags[p.otherID])
		}
	}
	sortTags(tags)
	return tags, nil
}

// ListContacts returns the contacts carrying the tag
func (r *ContactTags) ListContacts(_ context.Context, tagID string, withEmailOnly bool) ([]models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	contacts := []models.Contact{}
	for p := range r.s.st.contactTags {
		if p.otherID != tagID {
			continue
		}
		c := r.s.st.contacts[p.contactID]
		if withEmailOnly && deref(c.Email) == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Name < contacts[j].Name })
	return contacts, nil
}

// CountContacts returns how many contacts carry the tag
func (r *ContactTags) CountContacts(_ context.Context, tagID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for p := range r.s.st.contactTags {
		if p.otherID == tagID {
			count++
		}
	}
	return count, nil
}

func sortTags(tags []models.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
}
