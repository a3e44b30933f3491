package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/dates"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// sumWeekPayments totals collected amounts for one week via an aggregation
// pipeline.
func sumWeekPayments(ctx context.Context, weekStart string) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "weekStart", Value: weekStart}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := database.PaymentCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
		Count int     `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, err
		}
	}
	return result.Total, result.Count, nil
}

// DashboardStatsHandler returns the four headline numbers on the dashboard:
// active sellers, sellers present today, this week's collection, and this
// week's outstanding fees.
func DashboardStatsHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	today := dates.FormatDay(now)
	weekStart := dates.FormatDay(dates.WeekStart(now))

	totalSellers, err := database.SellerCollection.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count sellers"})
		return
	}

	presentToday, err := database.AttendanceCollection.CountDocuments(ctx, bson.M{"date": today})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count attendance"})
		return
	}

	weeklyCollection, _, err := sumWeekPayments(ctx, weekStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not total payments"})
		return
	}

	view, err := buildWeekView(ctx, weekStart, translatorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not compute outstanding fees"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalSellers":     totalSellers,
		"presentToday":     presentToday,
		"weeklyCollection": weeklyCollection,
		"outstandingFees":  view.TotalOutstanding,
		"weekStart":        weekStart,
		"weekLabel":        view.Label,
		"lastUpdated":      now,
	})
}

// WeeklySummaryHandler returns revenue and attendance per week for the last N
// weeks (?weeks=, default 4), oldest first. Feeds the dashboard chart.
func WeeklySummaryHandler(c *gin.Context) {
	weeksBack := 4
	if param := c.Query("weeks"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil || n < 1 || n > 52 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weeks must be between 1 and 52"})
			return
		}
		weeksBack = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	type weekSummary struct {
		WeekStart      string  `json:"weekStart"`
		Label          string  `json:"label"`
		Revenue        float64 `json:"revenue"`
		Payments       int     `json:"payments"`
		AttendanceDays int64   `json:"attendanceDays"`
	}

	summaries := make([]weekSummary, 0, weeksBack)
	for _, ws := range dates.WeeksBack(time.Now(), weeksBack) {
		weekStart := dates.FormatDay(ws)

		revenue, count, err := sumWeekPayments(ctx, weekStart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not total payments"})
			return
		}

		attendanceDays, err := database.AttendanceCollection.CountDocuments(ctx, bson.M{"weekStart": weekStart})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count attendance"})
			return
		}

		summaries = append(summaries, weekSummary{
			WeekStart:      weekStart,
			Label:          ws.Format("Jan 2"),
			Revenue:        revenue,
			Payments:       count,
			AttendanceDays: attendanceDays,
		})
	}

	c.JSON(http.StatusOK, summaries)
}

// ExportWeekCSVHandler downloads the week's seller performance table as CSV.
// Pure projection of the computed view; no business rules live here.
func ExportWeekCSVHandler(c *gin.Context) {
	weekStart, ok := resolveWeekStart(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	view, err := buildWeekView(ctx, weekStart, translatorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build week view"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=week-%s.csv", weekStart))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"seller", "product", "attendance_days", "fee_rate", "fee_amount", "status", "amount_collected"})
	for _, v := range view.Sellers {
		collected := ""
		if v.Payment != nil {
			collected = strconv.FormatFloat(v.Payment.Amount, 'f', 2, 64)
		}
		_ = w.Write([]string{
			v.SellerName,
			v.Product,
			strconv.Itoa(v.AttendanceDays),
			strconv.FormatFloat(v.FeeRate, 'f', 2, 64),
			strconv.FormatFloat(v.FeeAmount, 'f', 2, 64),
			string(v.Status),
			collected,
		})
	}
	w.Flush()
}

// AttendanceStatusHandler tells the client whether to nudge the operator
// about today's attendance. Reminders only fire during business hours.
func AttendanceStatusHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	today := dates.FormatDay(now)

	totalSellers, err := database.SellerCollection.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count sellers"})
		return
	}

	if totalSellers == 0 {
		c.JSON(http.StatusOK, gin.H{
			"shouldNotify": false,
			"reason":       "no_sellers",
			"totalSellers": 0,
		})
		return
	}

	recorded, err := database.AttendanceCollection.CountDocuments(ctx, bson.M{"date": today})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count attendance"})
		return
	}

	const businessStartHour, businessEndHour = 8, 18
	hour := now.Hour()
	if hour < businessStartHour || hour > businessEndHour {
		c.JSON(http.StatusOK, gin.H{
			"shouldNotify":       false,
			"reason":             "outside_hours",
			"totalSellers":       totalSellers,
			"attendanceRecorded": recorded,
		})
		return
	}

	if recorded == 0 {
		c.JSON(http.StatusOK, gin.H{
			"shouldNotify":       true,
			"priority":           "high",
			"reason":             "no_attendance",
			"totalSellers":       totalSellers,
			"attendanceRecorded": 0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shouldNotify":       false,
		"reason":             "attendance_taken",
		"totalSellers":       totalSellers,
		"attendanceRecorded": recorded,
	})
}
