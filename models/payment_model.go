package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRecord is the evidence that a seller's weekly fee was collected.
// DaysWorked and FeeRate are frozen at the moment the collection flow was
// opened, so the amount charged always matches what the operator was shown
// even if attendance was edited mid-flow. Never edited or deleted in normal
// operation.
type PaymentRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	WeekStart   string             `bson:"weekStart" json:"weekStart"`
	Amount      float64            `bson:"amount" json:"amount"`
	DaysWorked  int                `bson:"daysWorked" json:"daysWorked"`
	FeeRate     float64            `bson:"feeRate" json:"feeRate"`
	ReceiptID   primitive.ObjectID `bson:"receiptId" json:"receiptId"` // GridFS file id of the receipt photo
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CollectedBy primitive.ObjectID `bson:"collectedBy" json:"collectedBy"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
