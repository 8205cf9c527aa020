package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultWriteTimeout = 2 * time.Second

// MongoRecorder writes events to a Mongo collection.
type MongoRecorder struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{col: col, timeout: defaultWriteTimeout}
}

// EnsureIndexes creates the per-user lookup index.
func (r *MongoRecorder) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("audit: ensure indexes: %w", err)
	}
	return nil
}

// Record inserts e. The write is detached from ctx cancellation so an
// aborted request still leaves its trail.
func (r *MongoRecorder) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if _, err := r.col.InsertOne(wctx, e); err != nil {
		metrics.BestEffortFailures.WithLabelValues("audit_record").Inc()
		logger.Warn("audit_record_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

func (r *MongoRecorder) Recent(ctx context.Context, userID string, limit int) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("audit.Recent: %w", err)
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("audit.Recent: %w", err)
	}
	return out, nil
}
