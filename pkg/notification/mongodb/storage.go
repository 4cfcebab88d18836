package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

// DefaultCollection is the collection name used by New.
const DefaultCollection = "notifications"

// Storage is a MongoDB-backed implementation of notification.Storage.
//
// Every mutation is a single field-scoped update, so concurrent callers get
// the driver's per-document atomicity without any application-level locking.
type Storage struct {
	col *mongo.Collection
}

// New creates a notification storage over the given database using
// DefaultCollection.
func New(db *mongo.Database) *Storage {
	return NewWithCollection(db.Collection(DefaultCollection))
}

// NewWithCollection creates a notification storage over an explicit
// collection handle.
func NewWithCollection(col *mongo.Collection) *Storage {
	return &Storage{col: col}
}

// EnsureIndexes creates the indexes the query paths rely on: the recipient
// feed, the delivery worker's due-notification poll, and the expiry sweep.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read_at", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_for", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, n *notification.Notification) error {
	if _, err := s.col.InsertOne(ctx, toDocument(n)); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, id string) (*notification.Notification, error) {
	var doc document
	err := s.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	n := doc.toDomain()
	return &n, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (s *Storage) SetRead(ctx context.Context, id string, at time.Time) error {
	// The read_at guard makes the first timestamp win; a repeated call is a
	// matched-zero no-op, not an error.
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "read_at", Value: nil}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "read_at", Value: at},
			{Key: "status", Value: string(notification.StatusRead)},
			{Key: "updated_at", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set read timestamp: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.ensureExists(ctx, id)
	}
	return nil
}

func (s *Storage) SetClicked(ctx context.Context, id string, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "clicked_at", Value: nil}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "clicked_at", Value: at},
			{Key: "updated_at", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set clicked timestamp: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.ensureExists(ctx, id)
	}
	return nil
}

func (s *Storage) SetDismissed(ctx context.Context, id string, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "dismissed_at", Value: nil}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "dismissed_at", Value: at},
			{Key: "updated_at", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set dismissed timestamp: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.ensureExists(ctx, id)
	}
	return nil
}

func (s *Storage) SetStatus(ctx context.Context, id string, status notification.Status) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(status)},
			{Key: "updated_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if res.MatchedCount == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (s *Storage) SetSchedule(ctx context.Context, id string, at *time.Time, status notification.Status) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "scheduled_for", Value: at},
			{Key: "status", Value: string(status)},
			{Key: "updated_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (s *Storage) SetChannel(ctx context.Context, id string, ch notification.Channel, d notification.Delivery, aggregate notification.Status) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "deliveries.channel", Value: string(ch)},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "deliveries.$.status", Value: string(d.Status)},
			{Key: "deliveries.$.sent_at", Value: d.SentAt},
			{Key: "deliveries.$.delivered_at", Value: d.DeliveredAt},
			{Key: "deliveries.$.failure_reason", Value: d.FailureReason},
			{Key: "deliveries.$.tracking_id", Value: d.TrackingID},
			{Key: "status", Value: string(aggregate)},
			{Key: "updated_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to set channel delivery: %w", err)
	}
	if res.MatchedCount == 0 {
		if err := s.ensureExists(ctx, id); err != nil {
			return err
		}
		return notification.ErrChannelNotRequested
	}
	return nil
}

func (s *Storage) List(ctx context.Context, recipientID string, opts notification.ListOptions) ([]notification.Notification, int64, error) {
	filter := bson.D{{Key: "recipient_id", Value: recipientID}}
	if opts.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(opts.Type)})
	}
	if opts.UnreadOnly {
		filter = append(filter,
			bson.E{Key: "read_at", Value: nil},
			bson.E{Key: "status", Value: bson.D{{Key: "$ne", Value: string(notification.StatusCancelled)}}},
		)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(opts.Offset())).
		SetLimit(int64(opts.Limit)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	items := make([]notification.Notification, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	return items, total, nil
}

func (s *Storage) CountUnread(ctx context.Context, recipientID string, t notification.Type) (int64, error) {
	filter := bson.D{
		{Key: "recipient_id", Value: recipientID},
		{Key: "read_at", Value: nil},
		{Key: "status", Value: bson.D{{Key: "$ne", Value: string(notification.StatusCancelled)}}},
	}
	if t != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(t)})
	}

	count, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Storage) MarkAllRead(ctx context.Context, recipientID string, opts notification.MarkAllReadOptions) (int64, error) {
	filter := bson.D{
		{Key: "recipient_id", Value: recipientID},
		{Key: "read_at", Value: nil},
		{Key: "status", Value: bson.D{{Key: "$ne", Value: string(notification.StatusCancelled)}}},
	}
	if opts.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(opts.Type)})
	}
	if opts.Before != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$lt", Value: *opts.Before}}})
	}

	now := time.Now()
	res, err := s.col.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "read_at", Value: now},
		{Key: "status", Value: string(notification.StatusRead)},
		{Key: "updated_at", Value: now},
	}}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Storage) ListDue(ctx context.Context, now time.Time, limit int) ([]notification.Notification, error) {
	filter := bson.D{
		{Key: "status", Value: string(notification.StatusPending)},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "scheduled_for", Value: nil}},
			bson.D{{Key: "scheduled_for", Value: bson.D{{Key: "$lte", Value: now}}}},
		}},
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "priority_rank", Value: -1},
		{Key: "created_at", Value: 1},
	})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode due notifications: %w", err)
	}

	items := make([]notification.Notification, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	return items, nil
}

func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// Unread pending notifications survive expiry; only records the
	// recipient has dealt with (read, dismissed) or that were cancelled are
	// swept.
	res, err := s.col.DeleteMany(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now}}},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: bson.A{
				string(notification.StatusRead),
				string(notification.StatusCancelled),
			}}}}},
			bson.D{{Key: "dismissed_at", Value: bson.D{{Key: "$ne", Value: nil}}}},
		}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Storage) Analytics(ctx context.Context, f notification.AnalyticsFilter) (*notification.Report, error) {
	match := bson.D{}
	if f.RecipientID != "" {
		match = append(match, bson.E{Key: "recipient_id", Value: f.RecipientID})
	}
	if f.Type != "" {
		match = append(match, bson.E{Key: "type", Value: string(f.Type)})
	}
	createdAt := bson.D{}
	if f.From != nil {
		createdAt = append(createdAt, bson.E{Key: "$gte", Value: *f.From})
	}
	if f.To != nil {
		createdAt = append(createdAt, bson.E{Key: "$lte", Value: *f.To})
	}
	if len(createdAt) > 0 {
		match = append(match, bson.E{Key: "created_at", Value: createdAt})
	}

	countIfSet := func(field string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, false}}}, 1, 0,
		}}}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "read", Value: countIfSet("read_at")},
					{Key: "clicked", Value: countIfSet("clicked_at")},
					{Key: "dismissed", Value: countIfSet("dismissed_at")},
				}}},
			}},
			{Key: "by_type", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$type"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
			{Key: "by_priority", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$priority"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification analytics: %w", err)
	}

	var results []struct {
		Totals []struct {
			Total     int64 `bson:"total"`
			Read      int64 `bson:"read"`
			Clicked   int64 `bson:"clicked"`
			Dismissed int64 `bson:"dismissed"`
		} `bson:"totals"`
		ByType []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"by_type"`
		ByPriority []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"by_priority"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode notification analytics: %w", err)
	}

	report := &notification.Report{
		ByType:     make(map[notification.Type]int64),
		ByPriority: make(map[notification.Priority]int64),
	}
	if len(results) == 0 {
		return report, nil
	}

	facets := results[0]
	if len(facets.Totals) > 0 {
		report.Total = facets.Totals[0].Total
		report.Read = facets.Totals[0].Read
		report.Clicked = facets.Totals[0].Clicked
		report.Dismissed = facets.Totals[0].Dismissed
	}
	for _, row := range facets.ByType {
		report.ByType[notification.Type(row.ID)] = row.Count
	}
	for _, row := range facets.ByPriority {
		report.ByPriority[notification.Priority(row.ID)] = row.Count
	}
	return report, nil
}

// ensureExists distinguishes a guarded no-op update from a missing document.
func (s *Storage) ensureExists(ctx context.Context, id string) error {
	count, err := s.col.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to check notification existence: %w", err)
	}
	if count == 0 {
		return notification.ErrNotFound
	}
	return nil
}

var _ notification.Storage = (*Storage)(nil)
