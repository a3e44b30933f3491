package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WatchPayments opens a change stream on the payments collection. This is the
// live read path: every committed payment write is pushed to subscribers, who
// re-query the week snapshot and reconcile. Requires a replica-set deployment;
// on standalone Mongo the caller falls back to polling.
func WatchPayments(ctx context.Context) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "delete"}}}},
		}}},
	}
	return PaymentCollection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
}
