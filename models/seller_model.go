package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekday abbreviations for the Mon-Sat operating week. No Sunday sales.
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
)

// OperatingDays returns the days the canteen operates, in order.
func OperatingDays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// Seller is a vendor tracked by the committee. Attendance and payment records
// reference it by id only, so deactivating a seller never breaks history.
type Seller struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Product   string             `bson:"product" json:"product"`
	FeeRate   float64            `bson:"feeRate" json:"feeRate"` // GHS per attended day
	Schedule  []Weekday          `bson:"schedule" json:"schedule"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
