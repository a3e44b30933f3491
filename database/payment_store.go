package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tuc-canteen-backend/models"
)

// MongoPaymentStore is the Mongo-backed implementation of the reconciliation
// engine's PaymentStore.
type MongoPaymentStore struct{}

func NewPaymentStore() *MongoPaymentStore {
	return &MongoPaymentStore{}
}

func (s *MongoPaymentStore) InsertPayment(ctx context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if _, err := PaymentCollection.InsertOne(ctx, rec); err != nil {
		return models.PaymentRecord{}, err
	}
	return rec, nil
}
