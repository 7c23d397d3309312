// Package events announces contact lifecycle changes to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/consolidation"
	appctx "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/context"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/metrics"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const SchemaVersion = "1.0"

type EventType string

const (
	EventTypeContactCreated  EventType = "contact.created"
	EventTypeContactUpdated  EventType = "contact.updated"
	EventTypeContactDeleted  EventType = "contact.deleted"
	EventTypeContactMerged   EventType = "contact.merged"
	EventTypeContactIngested EventType = "contact.ingested"
	EventTypeTagCreated      EventType = "tag.created"
	EventTypeTagUpdated      EventType = "tag.updated"
	EventTypeTagDeleted      EventType = "tag.deleted"
	EventTypeTagsChanged     EventType = "contact.tags_changed"
	EventTypeOwnersChanged   EventType = "contact.owners_changed"
)

// Event is the envelope written for every change.
type Event struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	EntityID      string    `json:"entity_id"`
	EntityType    string    `json:"entity_type"`
	Actor         string    `json:"actor,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	Data          any       `json:"data,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

// Emitter publishes events after the change has committed. Publish failures
// are logged and counted; they never fail the request that caused them. A nil
// publisher disables emission.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *Emitter) ContactCreated(ctx context.Context, contact *models.Contact) {
	e.emit(ctx, EventTypeContactCreated, "contact", contact.ID, contact)
}

func (e *Emitter) ContactUpdated(ctx context.Context, contact *models.Contact) {
	e.emit(ctx, EventTypeContactUpdated, "contact", contact.ID, contact)
}

func (e *Emitter) ContactDeleted(ctx context.Context, contactID string) {
	e.emit(ctx, EventTypeContactDeleted, "contact", contactID, nil)
}

func (e *Emitter) ContactIngested(ctx context.Context, result *consolidation.IngestResult) {
	eventType := EventTypeContactIngested
	if result.Created {
		eventType = EventTypeContactCreated
	}
	e.emit(ctx, eventType, "contact", result.Contact.ID, result)
}

func (e *Emitter) ContactMerged(ctx context.Context, result *consolidation.MergeResult) {
	e.emit(ctx, EventTypeContactMerged, "contact", result.Contact.ID, map[string]any{
		"contact":       result.Contact,
		"merged_id":     result.MergedID,
		"owners_copied": result.OwnersCopied,
		"tags_copied":   result.TagsCopied,
	})
}

func (e *Emitter) TagCreated(ctx context.Context, tag *models.Tag) {
	e.emit(ctx, EventTypeTagCreated, "tag", tag.ID, tag)
}

func (e *Emitter) TagUpdated(ctx context.Context, tag *models.Tag) {
	e.emit(ctx, EventTypeTagUpdated, "tag", tag.ID, tag)
}

func (e *Emitter) TagDeleted(ctx context.Context, tagID string) {
	e.emit(ctx, EventTypeTagDeleted, "tag", tagID, nil)
}

// TagsChanged announces association changes on one contact. Added and removed
// hold tag ids.
func (e *Emitter) TagsChanged(ctx context.Context, contactID string, added, removed []string) {
	e.emit(ctx, EventTypeTagsChanged, "contact", contactID, map[string]any{
		"added":   nonNil(added),
		"removed": nonNil(removed),
	})
}

func (e *Emitter) OwnersChanged(ctx context.Context, contactID string, added, removed []string) {
	e.emit(ctx, EventTypeOwnersChanged, "contact", contactID, map[string]any{
		"added":   nonNil(added),
		"removed": nonNil(removed),
	})
}

func (e *Emitter) emit(ctx context.Context, eventType EventType, entityType, entityID string, data any) {
	if e == nil || e.publisher == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	event := Event{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		EntityID:      entityID,
		EntityType:    entityType,
		Actor:         appctx.GetActor(ctx),
		RequestID:     appctx.GetRequestID(ctx),
		Data:          data,
		Timestamp:     e.now().UTC(),
	}

	if err := e.publisher.Publish(ctx, entityID, string(eventType), event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"entity_id":  entityID,
		}).Errorf("Failed to emit %s event", eventType)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "ok").Inc()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
