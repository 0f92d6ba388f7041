package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

const auditCollection = "audit_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	ID         string    `bson:"_id"`
	Type       string    `bson:"type"`
	ActorID    string    `bson:"actor_id,omitempty"`
	TargetID   string    `bson:"target_id,omitempty"`
	Email      string    `bson:"email,omitempty"`
	IP         string    `bson:"ip,omitempty"`
	Device     string    `bson:"device,omitempty"`
	Detail     string    `bson:"detail,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

// EnsureIndexes creates the indexes backing audit listings.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// Insert appends an event to the audit_events collection.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := auditDoc{
		ID:         event.ID,
		Type:       string(event.Type),
		ActorID:    event.ActorID,
		TargetID:   event.TargetID,
		Email:      event.Email,
		IP:         event.IP,
		Device:     event.Device,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Already persisted; inserts are keyed by event id.
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns events newest first, optionally restricted to one user acting
// or being acted upon.
func (r *AuditRepository) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEvent, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query = bson.M{"$or": bson.A{
			bson.M{"target_id": filter.UserID},
			bson.M{"actor_id": filter.UserID},
		}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(filter.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]*domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.AuditEvent{
			ID:         d.ID,
			Type:       domain.AuditEventType(d.Type),
			ActorID:    d.ActorID,
			TargetID:   d.TargetID,
			Email:      d.Email,
			IP:         d.IP,
			Device:     d.Device,
			Detail:     d.Detail,
			OccurredAt: d.OccurredAt.UTC(),
		})
	}
	return events, nil
}
