// Package reconcile derives the per-seller weekly payment view and bridges the
// gap between an acknowledged payment write and the moment the durable record
// shows up on the live read path.
//
// The engine owns one piece of mutable state: the just-paid overlay, a set of
// seller ids whose payments were submitted by this instance but may not yet be
// visible in the payments feed. RecordPayment adds to it, Reconcile shrinks it
// as durable records arrive, and ExpireOverlay drops entries whose write was
// never confirmed.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tuc-canteen-backend/models"
)

// PaymentStore persists payment records. The engine depends on this interface,
// not on a concrete database.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=engine.go PaymentStore
type PaymentStore interface {
	InsertPayment(ctx context.Context, rec models.PaymentRecord) (models.PaymentRecord, error)
}

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusNoWork  PaymentStatus = "no_work"
)

// PaymentView is the derived, non-persisted state of one seller for one week.
type PaymentView struct {
	SellerID       primitive.ObjectID    `json:"sellerId"`
	SellerName     string                `json:"sellerName"`
	Product        string                `json:"product"`
	AttendanceDays int                   `json:"attendanceDays"`
	FeeRate        float64               `json:"feeRate"`
	FeeAmount      float64               `json:"feeAmount"`
	Paid           bool                  `json:"paid"`
	JustPaid       bool                  `json:"justPaid"`
	Status         PaymentStatus         `json:"status"`
	Payment        *models.PaymentRecord `json:"payment,omitempty"`
}

// PaymentRequest carries everything RecordPayment needs. DaysWorked and
// FeeRate are the values shown to the operator when the collection flow was
// opened, not re-read at submission time.
type PaymentRequest struct {
	Seller      models.Seller
	WeekStart   string
	DaysWorked  int
	FeeRate     float64
	ReceiptID   primitive.ObjectID
	Notes       string
	CollectedBy primitive.ObjectID
}

// DefaultOverlayTTL bounds how long an unconfirmed overlay entry may keep a
// seller showing as paid. A write that has not surfaced on the read path by
// then is treated as lost.
const DefaultOverlayTTL = 2 * time.Minute

type Engine struct {
	store PaymentStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	overlay map[primitive.ObjectID]time.Time // seller id -> entry deadline
}

type Option func(*Engine)

// WithOverlayTTL overrides the overlay entry lifetime.
func WithOverlayTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithClock overrides the engine clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store PaymentStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		ttl:     DefaultOverlayTTL,
		now:     time.Now,
		overlay: make(map[primitive.ObjectID]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeView derives the payment view for every seller from a week-scoped
// snapshot of attendance and payment records. Pure apart from the overlay
// read; cheap enough to re-run wholesale on every incoming snapshot.
//
// When both an overlay entry and a durable record exist for a seller, the
// durable record wins for all fields and the just-paid highlight is
// suppressed.
func (e *Engine) ComputeView(sellers []models.Seller, weekAttendance []models.AttendanceRecord, weekPayments []models.PaymentRecord) []PaymentView {
	days := make(map[primitive.ObjectID]int, len(sellers))
	for _, rec := range weekAttendance {
		days[rec.SellerID]++
	}

	paymentBySeller := make(map[primitive.ObjectID]models.PaymentRecord, len(weekPayments))
	for _, p := range weekPayments {
		// At most one payment per seller-week; the first one wins.
		if _, ok := paymentBySeller[p.SellerID]; !ok {
			paymentBySeller[p.SellerID] = p
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	views := make([]PaymentView, 0, len(sellers))
	for _, s := range sellers {
		view := PaymentView{
			SellerID:       s.ID,
			SellerName:     s.Name,
			Product:        s.Product,
			AttendanceDays: days[s.ID],
			FeeRate:        s.FeeRate,
		}
		view.FeeAmount = float64(view.AttendanceDays) * s.FeeRate

		_, inOverlay := e.overlay[s.ID]
		if p, ok := paymentBySeller[s.ID]; ok {
			rec := p
			view.Payment = &rec
			view.Paid = true
		} else if inOverlay {
			view.Paid = true
			view.JustPaid = true
		}

		switch {
		case view.Paid:
			view.Status = StatusPaid
		case view.FeeAmount > 0:
			view.Status = StatusPending
		default:
			view.Status = StatusNoWork
		}
		views = append(views, view)
	}
	return views
}

// RecordPayment validates and persists a payment, then marks the seller as
// just-paid so the view reflects the collection before the durable record
// round-trips through the live feed. weekPayments is the current snapshot for
// the target week, used for the duplicate check. On any error the overlay is
// left untouched and the seller stays Pending.
func (e *Engine) RecordPayment(ctx context.Context, req PaymentRequest, weekPayments []models.PaymentRecord) (models.PaymentRecord, error) {
	if req.ReceiptID.IsZero() {
		return models.PaymentRecord{}, ErrMissingReceipt
	}
	for _, p := range weekPayments {
		if p.SellerID == req.Seller.ID && p.WeekStart == req.WeekStart {
			return models.PaymentRecord{}, ErrDuplicatePayment
		}
	}

	rec := models.PaymentRecord{
		ID:          primitive.NewObjectID(),
		SellerID:    req.Seller.ID,
		WeekStart:   req.WeekStart,
		Amount:      float64(req.DaysWorked) * req.FeeRate,
		DaysWorked:  req.DaysWorked,
		FeeRate:     req.FeeRate,
		ReceiptID:   req.ReceiptID,
		Notes:       req.Notes,
		CollectedBy: req.CollectedBy,
		Timestamp:   e.now(),
	}

	persisted, err := e.store.InsertPayment(ctx, rec)
	if err != nil {
		return models.PaymentRecord{}, &PersistenceError{
			Op:      "insert payment",
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
	}

	e.mu.Lock()
	e.overlay[req.Seller.ID] = e.now().Add(e.ttl)
	e.mu.Unlock()

	return persisted, nil
}

// Reconcile removes from the overlay every seller whose payment now appears
// durably in the supplied snapshot. Idempotent; the overlay only shrinks here.
func (e *Engine) Reconcile(weekPayments []models.PaymentRecord) {
	durable := make(map[primitive.ObjectID]bool, len(weekPayments))
	for _, p := range weekPayments {
		durable[p.SellerID] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.overlay {
		if durable[id] {
			delete(e.overlay, id)
		}
	}
}

// ExpireOverlay drops entries whose deadline has passed and returns how many
// were dropped. An expired entry means the write was acknowledged but never
// surfaced on the read path, so the seller falls back to Pending rather than
// showing falsely paid forever.
func (e *Engine) ExpireOverlay(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired := 0
	for id, deadline := range e.overlay {
		if now.After(deadline) {
			delete(e.overlay, id)
			expired++
		}
	}
	return expired
}

// OverlaySize reports how many unconfirmed payments the engine is tracking.
func (e *Engine) OverlaySize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.overlay)
}
