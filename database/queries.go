package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tuc-canteen-backend/models"
)

// Week-scoped snapshot queries shared by the payment view, the live stream
// and the report handlers.

func FetchActiveSellers(ctx context.Context) ([]models.Seller, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := SellerCollection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sellers []models.Seller
	if err := cursor.All(ctx, &sellers); err != nil {
		return nil, err
	}
	if sellers == nil {
		sellers = []models.Seller{}
	}
	return sellers, nil
}

func FetchWeekAttendance(ctx context.Context, weekStart string) ([]models.AttendanceRecord, error) {
	cursor, err := AttendanceCollection.Find(ctx, bson.M{"weekStart": weekStart})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AttendanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return records, nil
}

func FetchWeekPayments(ctx context.Context, weekStart string) ([]models.PaymentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := PaymentCollection.Find(ctx, bson.M{"weekStart": weekStart}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.PaymentRecord
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}
	return payments, nil
}
