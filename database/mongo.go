package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var AdminCollection *mongo.Collection
var SellerCollection *mongo.Collection
var AttendanceCollection *mongo.Collection
var PaymentCollection *mongo.Collection
var ReceiptBucket *gridfs.Bucket

func Connect(uri string, dbName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal(err)
	}

	Client = client
	db := client.Database(dbName)
	AdminCollection = db.Collection("admins")
	SellerCollection = db.Collection("sellers")
	AttendanceCollection = db.Collection("attendance")
	PaymentCollection = db.Collection("payments")

	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("receipts"))
	if err != nil {
		log.Fatal(err)
	}
	ReceiptBucket = bucket
}

// EnsureIndexes creates the indexes the reconciliation rules lean on. The
// unique (sellerId, date) index makes "at most one attendance record per
// seller per day" a database guarantee rather than a client-side convention.
func EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := AttendanceCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sellerId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = AttendanceCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "weekStart", Value: 1}},
	})
	if err != nil {
		return err
	}

	// Payments are looked up by seller-week; not unique, two operators can
	// still race. The engine rejects the second submission it sees.
	_, err = PaymentCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}, {Key: "weekStart", Value: 1}},
	})
	return err
}
