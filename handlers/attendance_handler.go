package handlers

import (
	"context"
	"net/http"
	"time"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/dates"
	"tuc-canteen-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetAttendanceHandler marks a seller present or absent for a date. Presence
// is the existence of the record: marking present inserts, marking absent
// deletes. Both directions are idempotent, so double taps in the UI are
// harmless.
func SetAttendanceHandler(c *gin.Context) {
	adminIDStr, exists := c.Get("adminId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Operator not identified"})
		return
	}
	adminID, _ := primitive.ObjectIDFromHex(adminIDStr.(string))

	var input struct {
		SellerID string `json:"sellerId" binding:"required"`
		Date     string `json:"date" binding:"required"`
		Present  *bool  `json:"present" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sellerID, err := primitive.ObjectIDFromHex(input.SellerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller id"})
		return
	}

	weekStart, err := dates.WeekStartString(input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var seller models.Seller
	if err := database.SellerCollection.FindOne(ctx, bson.M{"_id": sellerID, "active": true}).Decode(&seller); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
		return
	}

	if !*input.Present {
		if _, err := database.AttendanceCollection.DeleteOne(ctx, bson.M{"sellerId": sellerID, "date": input.Date}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not clear attendance"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"present": false})
		return
	}

	record := models.AttendanceRecord{
		ID:         primitive.NewObjectID(),
		SellerID:   sellerID,
		Date:       input.Date,
		WeekStart:  weekStart,
		RecordedBy: adminID,
		CreatedAt:  time.Now(),
	}

	_, err = database.AttendanceCollection.InsertOne(ctx, record)
	if err != nil {
		// The unique (sellerId, date) index fired: already present, no-op.
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusOK, gin.H{"present": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record attendance"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetAttendanceHandler lists attendance records for a day (?date=) or a whole
// week (?weekStart=).
func GetAttendanceHandler(c *gin.Context) {
	dateParam := c.Query("date")
	weekParam := c.Query("weekStart")

	filter := bson.M{}
	switch {
	case dateParam != "":
		if _, err := dates.ParseDay(dateParam); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
			return
		}
		filter["date"] = dateParam
	case weekParam != "":
		if _, err := dates.ParseDay(weekParam); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weekStart must be YYYY-MM-DD"})
			return
		}
		filter["weekStart"] = weekParam
	default:
		filter["date"] = dates.FormatDay(time.Now())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.AttendanceCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch attendance"})
		return
	}
	defer cursor.Close(ctx)

	var records []models.AttendanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not decode attendance"})
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}

	c.JSON(http.StatusOK, records)
}
