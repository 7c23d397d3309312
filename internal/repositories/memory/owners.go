package memory

import (
	"context"
	"sort"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// Owners is the in-memory owner repository
type Owners struct{ s *Store }

// Insert stores a new owner
func (r *Owners) Insert(_ context.Context, owner *models.Owner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.st.owners {
		if o.Name == owner.Name {
			return errs.Conflict("owner %q already exists", owner.Name)
		}
	}
	r.s.st.owners[owner.ID] = *owner
	return nil
}

// GetByID returns a copy of the owner, or nil when none exists
func (r *Owners) GetByID(_ context.Context, id string) (*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.st.owners[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// GetByName returns the owner with the exact name, or nil when none exists
func (r *Owners) GetByName(_ context.Context, name string) (*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.st.owners {
		if o.Name == name {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

// List returns every owner ordered by name
func (r *Owners) List(_ context.Context) ([]models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owners := make([]models.Owner, 0, len(r.s.st.owners))
	for _, o := range r.s.st.owners {
		owners = append(owners, o)
	}
	sortOwners(owners)
	return owners, nil
}

// Delete removes an owner and its contact links
func (r *Owners) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.owners[id]; !ok {
		return false, nil
	}
	delete(r.s.st.owners, id)
	for p := range r.s.st.contactOwners {
		if p.otherID == id {
			delete(r.s.st.contactOwners, p)
		}
	}
	return true, nil
}

// ContactOwners is the in-memory contact owner join
type ContactOwners struct{ s *Store }

// Add links an owner to a contact and reports whether the pair is new
func (r *ContactOwners) Add(_ context.Context, contactID, ownerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := pair{contactID, ownerID}
	if _, ok := r.s.st.contactOwners[p]; ok {
		return false, nil
	}
	r.s.st.contactOwners[p] = r.s.tick()
	return true, nil
}

// Remove unlinks an owner and reports whether the pair existed
func (r *ContactOwners) Remove(_ context.Context, contactID, ownerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := pair{contactID, ownerID}
	if _, ok := r.s.st.contactOwners[p]; !ok {
		return false, nil
	}
	delete(r.s.st.contactOwners, p)
	return true, nil
}

// ListForContact returns the owners of a contact ordered by name
func (r *ContactOwners) ListForContact(_ context.Context, contactID string) ([]models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owners := []models.Owner{}
	for p := range r.s.st.contactOwners {
		if p.contactID == contactID {
			owners = append(owners, r.s.st.owners[p.otherID])
		}
	}
	sortOwners(owners)
	return owners, nil
}

func sortOwners(owners []models.Owner) {
	sort.Slice(owners, func(i, j int) bool { return owners[i].Name < owners[j].Name })
}
