package handlers

import (
	"context"
	"net/http"
	"time"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validSchedule(schedule []models.Weekday) bool {
	valid := map[models.Weekday]bool{}
	for _, d := range models.OperatingDays() {
		valid[d] = true
	}
	for _, d := range schedule {
		if !valid[d] {
			return false
		}
	}
	return true
}

// GetSellersHandler lists sellers, active ones by default. Pass ?all=true to
// include deactivated sellers for historical reports.
func GetSellersHandler(c *gin.Context) {
	filter := bson.M{"active": true}
	if c.Query("all") == "true" {
		filter = bson.M{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.SellerCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch sellers"})
		return
	}
	defer cursor.Close(ctx)

	var sellers []models.Seller
	if err := cursor.All(ctx, &sellers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not decode sellers"})
		return
	}
	if sellers == nil {
		sellers = []models.Seller{}
	}

	c.JSON(http.StatusOK, sellers)
}

// CreateSellerHandler registers a new seller.
func CreateSellerHandler(c *gin.Context) {
	var input struct {
		Name     string           `json:"name" binding:"required"`
		Product  string           `json:"product" binding:"required"`
		FeeRate  float64          `json:"feeRate" binding:"required,gt=0"`
		Schedule []models.Weekday `json:"schedule"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !validSchedule(input.Schedule) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Schedule may only contain Mon-Sat"})
		return
	}
	if len(input.Schedule) == 0 {
		input.Schedule = models.OperatingDays()
	}

	now := time.Now()
	seller := models.Seller{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Product:   input.Product,
		FeeRate:   input.FeeRate,
		Schedule:  input.Schedule,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.SellerCollection.InsertOne(ctx, seller); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create seller"})
		return
	}

	c.JSON(http.StatusCreated, seller)
}

// UpdateSellerHandler edits a seller's details. A fee rate change applies to
// future collections only; recorded payments keep the rate they were
// collected at.
func UpdateSellerHandler(c *gin.Context) {
	idStr := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller id"})
		return
	}

	var input struct {
		Name     *string           `json:"name"`
		Product  *string           `json:"product"`
		FeeRate  *float64          `json:"feeRate"`
		Schedule *[]models.Weekday `json:"schedule"`
		Active   *bool             `json:"active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	update := bson.M{}
	if input.Name != nil {
		update["name"] = *input.Name
	}
	if input.Product != nil {
		update["product"] = *input.Product
	}
	if input.FeeRate != nil {
		if *input.FeeRate <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fee rate must be positive"})
			return
		}
		update["feeRate"] = *input.FeeRate
	}
	if input.Schedule != nil {
		if !validSchedule(*input.Schedule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Schedule may only contain Mon-Sat"})
			return
		}
		update["schedule"] = *input.Schedule
	}
	if input.Active != nil {
		update["active"] = *input.Active
	}

	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	update["updatedAt"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.SellerCollection.UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": update},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update seller"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
		return
	}

	var updated models.Seller
	if err := database.SellerCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&updated); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Seller updated"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeactivateSellerHandler soft-deletes a seller. Attendance and payment
// history reference the seller by id only, so nothing else is touched.
func DeactivateSellerHandler(c *gin.Context) {
	idStr := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.SellerCollection.UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not deactivate seller"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Seller deactivated"})
}
