package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/dates"
	"tuc-canteen-backend/i18n"
	"tuc-canteen-backend/models"
	"tuc-canteen-backend/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var engine *reconcile.Engine

// InitEngine wires the reconciliation engine the payment handlers share. Must
// be called once at startup, after the database is connected.
func InitEngine(e *reconcile.Engine) {
	engine = e
}

// resolveWeekStart normalizes the weekStart query param onto a Monday,
// defaulting to the current week.
func resolveWeekStart(c *gin.Context) (string, bool) {
	param := c.Query("weekStart")
	if param == "" {
		return dates.FormatDay(dates.WeekStart(time.Now())), true
	}
	ws, err := dates.WeekStartString(param)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekStart must be YYYY-MM-DD"})
		return "", false
	}
	return ws, true
}

// WeekView is the payload the payments screen renders: one derived row per
// active seller plus week totals.
type WeekView struct {
	WeekStart        string                  `json:"weekStart"`
	Label            string                  `json:"label"`
	Sellers          []reconcile.PaymentView `json:"sellers"`
	TotalCollected   float64                 `json:"totalCollected"`
	TotalOutstanding float64                 `json:"totalOutstanding"`
	StatusLabels     map[string]string       `json:"statusLabels"`
	Degraded         bool                    `json:"degraded,omitempty"`
}

func buildWeekView(ctx context.Context, weekStart string, tr i18n.Translator) (WeekView, error) {
	sellers, err := database.FetchActiveSellers(ctx)
	if err != nil {
		return WeekView{}, err
	}
	attendance, err := database.FetchWeekAttendance(ctx, weekStart)
	if err != nil {
		return WeekView{}, err
	}
	payments, err := database.FetchWeekPayments(ctx, weekStart)
	if err != nil {
		return WeekView{}, err
	}

	engine.ExpireOverlay(time.Now())
	engine.Reconcile(payments)
	views := engine.ComputeView(sellers, attendance, payments)

	view := WeekView{
		WeekStart: weekStart,
		Sellers:   views,
		StatusLabels: map[string]string{
			string(reconcile.StatusPaid):    tr.T("paid"),
			string(reconcile.StatusPending): tr.T("pending"),
			string(reconcile.StatusNoWork):  tr.T("no_work"),
		},
	}
	if ws, err := dates.ParseDay(weekStart); err == nil {
		view.Label = dates.WeekRangeLabel(ws)
	}
	for _, v := range views {
		if v.Payment != nil {
			view.TotalCollected += v.Payment.Amount
		} else if v.Status == reconcile.StatusPending {
			view.TotalOutstanding += v.FeeAmount
		}
	}
	return view, nil
}

// GetWeekViewHandler returns the derived payment view for a week.
func GetWeekViewHandler(c *gin.Context) {
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

	c.JSON(http.StatusOK, view)
}

// GetPaymentsHandler lists the durable payment records for a week.
func GetPaymentsHandler(c *gin.Context) {
	weekStart, ok := resolveWeekStart(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payments, err := database.FetchWeekPayments(ctx, weekStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// CollectPaymentHandler runs the collection flow: receipt photo in, payment
// record out. The request is multipart: either a "receipt" file or a
// "receiptId" from an earlier failed attempt (so a retry never re-uploads the
// photo), plus the daysWorked/feeRate snapshot the operator was shown.
func CollectPaymentHandler(c *gin.Context) {
	adminIDStr, exists := c.Get("adminId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Operator not identified"})
		return
	}
	adminID, _ := primitive.ObjectIDFromHex(adminIDStr.(string))

	var input struct {
		SellerID   string  `form:"sellerId" binding:"required"`
		WeekStart  string  `form:"weekStart" binding:"required"`
		DaysWorked int     `form:"daysWorked" binding:"required,gte=1"`
		FeeRate    float64 `form:"feeRate" binding:"required,gt=0"`
		Notes      string  `form:"notes"`
		ReceiptID  string  `form:"receiptId"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sellerID, err := primitive.ObjectIDFromHex(input.SellerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller id"})
		return
	}
	weekStart, err := dates.WeekStartString(input.WeekStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekStart must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var seller models.Seller
	if err := database.SellerCollection.FindOne(ctx, bson.M{"_id": sellerID}).Decode(&seller); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
		return
	}

	receiptID, err := resolveReceipt(ctx, c, input.ReceiptID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": translatorFrom(c).T("missing_receipt")})
		return
	}

	payments, err := database.FetchWeekPayments(ctx, weekStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch payments"})
		return
	}

	rec, err := engine.RecordPayment(ctx, reconcile.PaymentRequest{
		Seller:      seller,
		WeekStart:   weekStart,
		DaysWorked:  input.DaysWorked,
		FeeRate:     input.FeeRate,
		ReceiptID:   receiptID,
		Notes:       input.Notes,
		CollectedBy: adminID,
	}, payments)
	if err != nil {
		tr := translatorFrom(c)
		switch {
		case errors.Is(err, reconcile.ErrMissingReceipt):
			c.JSON(http.StatusBadRequest, gin.H{"error": tr.T("missing_receipt")})
		case errors.Is(err, reconcile.ErrDuplicatePayment):
			c.JSON(http.StatusConflict, gin.H{"error": tr.T("already_paid")})
		default:
			// The receipt is already stored; hand its id back so a retry can
			// resubmit without uploading the photo again.
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     tr.T("payment_failed"),
				"receiptId": receiptID.Hex(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// resolveReceipt returns the GridFS id of the receipt artifact: a previously
// uploaded one when receiptId is supplied, otherwise the uploaded file.
func resolveReceipt(ctx context.Context, c *gin.Context, receiptIDParam string) (primitive.ObjectID, error) {
	if receiptIDParam != "" {
		return primitive.ObjectIDFromHex(receiptIDParam)
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return primitive.NilObjectID, reconcile.ErrMissingReceipt
	}

	file, err := fileHeader.Open()
	if err != nil {
		return primitive.NilObjectID, err
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	name := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"contentType": contentType,
		"capturedAt":  time.Now(),
	})
	return database.ReceiptBucket.UploadFromStream(name, file, uploadOpts)
}

// GetReceiptHandler streams a receipt photo back out of GridFS.
func GetReceiptHandler(c *gin.Context) {
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receipt id"})
		return
	}

	stream, err := database.ReceiptBucket.OpenDownloadStream(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
		return
	}
	defer stream.Close()

	file := stream.GetFile()
	contentType := "image/jpeg"
	if file.Metadata != nil {
		var meta struct {
			ContentType string `bson:"contentType"`
		}
		if err := bson.Unmarshal(file.Metadata, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	c.DataFromReader(http.StatusOK, file.Length, contentType, stream, nil)
}

// LiveWeekViewHandler streams the week view over SSE. The payments change
// stream is the push signal; each event re-queries the week snapshot,
// reconciles the overlay and emits the fresh view. Without a replica set the
// change stream is unavailable and the handler degrades to the polling
// ticker. A failed re-query re-emits the last-known-good view flagged
// degraded instead of dropping the totals.
func LiveWeekViewHandler(c *gin.Context) {
	weekStart, ok := resolveWeekStart(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	tr := translatorFrom(c)

	events := make(chan struct{}, 1)
	cs, err := database.WatchPayments(ctx)
	if err == nil {
		go func() {
			defer cs.Close(context.Background())
			for cs.Next(ctx) {
				select {
				case events <- struct{}{}:
				default: // an event is already pending; snapshots are whole, not incremental
				}
			}
		}()
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var lastGood *WeekView
	c.Stream(func(w io.Writer) bool {
		qctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		view, err := buildWeekView(qctx, weekStart, tr)
		cancel()

		if err != nil {
			if lastGood != nil {
				stale := *lastGood
				stale.Degraded = true
				c.SSEvent("view", stale)
			} else {
				c.SSEvent("error", gin.H{"error": "Could not build week view"})
			}
		} else {
			lastGood = &view
			c.SSEvent("view", view)
		}

		select {
		case <-ctx.Done():
			return false
		case <-events:
			return true
		case <-ticker.C:
			return true
		}
	})
}
