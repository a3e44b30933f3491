package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceRecord marks a seller present on a calendar day. Existence of the
// record is the presence signal: marking a seller absent deletes the record,
// there is no "present" flag. At most one record per (sellerId, date), enforced
// by a unique index.
type AttendanceRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID   primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Date       string             `bson:"date" json:"date"`           // YYYY-MM-DD, day granularity
	WeekStart  string             `bson:"weekStart" json:"weekStart"` // Monday of that date's week
	RecordedBy primitive.ObjectID `bson:"recordedBy" json:"recordedBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
