package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// MergeHistory is the in-memory merge history repository
type MergeHistory struct{ s *Store }

// ErrAppendOnly is returned when a row with an existing id is inserted again.
var ErrAppendOnly = errors.New("merge history is append-only")

// Insert appends a merge history record
func (r *MergeHistory) Insert(ctx context.Context, history *models.MergeHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, h := range r.s.st.history {
		if h.ID == history.ID {
			return ErrAppendOnly
		}
	}
	r.s.st.history = append(r.s.st.history, *history)
	if !inTx(ctx) {
		r.s.detached = append(r.s.detached, *history)
	}
	return nil
}

// Query filters and pages records newest first and returns the unpaged total
func (r *MergeHistory) Query(_ context.Context, filter models.MergeHistoryFilter) ([]models.MergeHistory, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := ectolinq.Filter(r.s.st.history, func(h models.MergeHistory) bool {
		return matchesHistory(h, filter)
	})
	sortHistory(matched)

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []models.MergeHistory{}, total, nil
	}
	return matched[start:min(start+filter.Limit, total)], total, nil
}

// ForContact returns the newest records naming the contact as primary or merged
func (r *MergeHistory) ForContact(_ context.Context, contactID string, limit int) ([]models.MergeHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := ectolinq.Filter(r.s.st.history, func(h models.MergeHistory) bool {
		return involvesContact(h, contactID)
	})
	sortHistory(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Statistics aggregates merge counts over the stored records
func (r *MergeHistory) Statistics(_ context.Context, since time.Time, emailSources []models.SourceSystem) (*models.MergeStatistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := models.NewMergeStatistics()
	for _, h := range r.s.st.history {
		stats.Total++
		stats.ByType[h.MergeType]++
		stats.ByReason[h.MergeReason]++
		stats.BySource[h.SourceSystem]++
		if !h.MergedAt.Before(since) {
			stats.LastSevenDays++
		}
		if ectolinq.Contains(emailSources, h.SourceSystem) {
			stats.EmailOriginBySource[h.SourceSystem]++
		}
	}
	return stats, nil
}

func matchesHistory(h models.MergeHistory, f models.MergeHistoryFilter) bool {
	if f.ContactID != "" && !involvesContact(h, f.ContactID) {
		return false
	}
	if f.MergeType != nil && h.MergeType != *f.MergeType {
		return false
	}
	if len(f.SourceSystems) > 0 && !ectolinq.Contains(f.SourceSystems, h.SourceSystem) {
		return false
	}
	if f.From != nil && h.MergedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && h.MergedAt.After(*f.To) {
		return false
	}
	return true
}

func involvesContact(h models.MergeHistory, contactID string) bool {
	return h.PrimaryContactID == contactID || (h.MergedContactID != nil && *h.MergedContactID == contactID)
}

func sortHistory(items []models.MergeHistory) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].MergedAt.Equal(items[j].MergedAt) {
			return items[i].MergedAt.After(items[j].MergedAt)
		}
		return items[i].ID > items[j].ID
	})
}
