package models

// Page is a paginated result.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// SkippedItem names a target that a bulk operation did not apply and why.
type SkippedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult reports the outcome of a bulk association change.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Skipped   []SkippedItem `json:"skipped"`
}

func (b *BatchResult) Skip(id, reason string) {
	b.Skipped = append(b.Skipped, SkippedItem{ID: id, Reason: reason})
}

// Applied returns the requested ids that were not skipped, in request order.
func (b *BatchResult) Applied(ids []string) []string {
	skipped := make(map[string]int, len(b.Skipped))
	for _, item := range b.Skipped {
		skipped[item.ID]++
	}
	applied := make([]string, 0, len(ids))
	for _, id := range ids {
		if skipped[id] > 0 {
			skipped[id]--
			continue
		}
		applied = append(applied, id)
	}
	return applied
}

const (
	SkipReasonAlreadyAssociated = "already_associated"
	SkipReasonNotAssociated     = "not_associated"
	SkipReasonNotFound          = "not_found"
	SkipReasonInvalidID         = "invalid_id"
)
