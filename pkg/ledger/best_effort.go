package ledger

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/metrics"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// BestEffort records merges without ever failing the caller. Failures are
// logged and counted, and the write always runs outside the caller's
// transaction.
type BestEffort struct {
	recorder Recorder
	log      ectologger.Logger
}

func NewBestEffort(recorder Recorder, log ectologger.Logger) *BestEffort {
	return &BestEffort{recorder: recorder, log: log}
}

// Record returns the written row, or nil when the write failed.
func (b *BestEffort) Record(ctx context.Context, input models.RecordMergeInput) *models.MergeHistory {
	history, err := b.recorder.Record(database.WithoutTx(ctx), input)
	if err != nil {
		metrics.LedgerWriteFailuresTotal.Inc()
		b.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"merge_type":         input.MergeType,
			"merge_reason":       input.MergeReason,
			"primary_contact_id": input.PrimaryContactID,
		}).Error("failed to record merge history")
		return nil
	}
	return history
}
