package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tuc-canteen-backend/models"
	"tuc-canteen-backend/reconcile"
	mock_reconcile "tuc-canteen-backend/reconcile/mocks"
)

const weekStart = "2025-01-06"

func newSeller(name string, feeRate float64) models.Seller {
	return models.Seller{
		ID:      primitive.NewObjectID(),
		Name:    name,
		Product: "tomatoes",
		FeeRate: feeRate,
		Active:  true,
	}
}

func attendanceFor(seller models.Seller, days ...string) []models.AttendanceRecord {
	recs := make([]models.AttendanceRecord, 0, len(days))
	for _, d := range days {
		recs = append(recs, models.AttendanceRecord{
			ID:        primitive.NewObjectID(),
			SellerID:  seller.ID,
			Date:      d,
			WeekStart: weekStart,
		})
	}
	return recs
}

func paymentFor(seller models.Seller, days int, feeRate float64) models.PaymentRecord {
	return models.PaymentRecord{
		ID:         primitive.NewObjectID(),
		SellerID:   seller.ID,
		WeekStart:  weekStart,
		Amount:     float64(days) * feeRate,
		DaysWorked: days,
		FeeRate:    feeRate,
		ReceiptID:  primitive.NewObjectID(),
		Timestamp:  time.Now(),
	}
}

func TestComputeView(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ama := newSeller("Ama", 10)
	efua := newSeller("Efua", 5)
	kojo := newSeller("Kojo", 8)

	tests := []struct {
		name       string
		sellers    []models.Seller
		attendance []models.AttendanceRecord
		payments   []models.PaymentRecord
		want       map[string]reconcile.PaymentView
	}{
		{
			name:    "no sellers yields empty view",
			sellers: nil,
			want:    map[string]reconcile.PaymentView{},
		},
		{
			name:       "three attendance days at rate ten",
			sellers:    []models.Seller{ama},
			attendance: attendanceFor(ama, "2025-01-06", "2025-01-08", "2025-01-10"),
			want: map[string]reconcile.PaymentView{
				"Ama": {AttendanceDays: 3, FeeAmount: 30, Status: reconcile.StatusPending},
			},
		},
		{
			name:    "zero attendance is no work even with a stray payment",
			sellers: []models.Seller{efua},
			payments: []models.PaymentRecord{
				paymentFor(efua, 2, 5),
			},
			want: map[string]reconcile.PaymentView{
				// Payment records still mark the seller paid, but fee stays zero.
				"Efua": {AttendanceDays: 0, FeeAmount: 0, Paid: true, Status: reconcile.StatusPaid},
			},
		},
		{
			name:       "durable payment marks paid",
			sellers:    []models.Seller{ama, kojo},
			attendance: append(attendanceFor(ama, "2025-01-06"), attendanceFor(kojo, "2025-01-07")...),
			payments:   []models.PaymentRecord{paymentFor(ama, 1, 10)},
			want: map[string]reconcile.PaymentView{
				"Ama":  {AttendanceDays: 1, FeeAmount: 10, Paid: true, Status: reconcile.StatusPaid},
				"Kojo": {AttendanceDays: 1, FeeAmount: 8, Status: reconcile.StatusPending},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := reconcile.NewEngine(mock_reconcile.NewMockPaymentStore(ctrl))
			views := engine.ComputeView(tt.sellers, tt.attendance, tt.payments)

			assert.Len(t, views, len(tt.want))
			for _, v := range views {
				want, ok := tt.want[v.SellerName]
				assert.True(t, ok, "unexpected seller %s", v.SellerName)
				assert.Equal(t, want.AttendanceDays, v.AttendanceDays, v.SellerName)
				assert.Equal(t, want.FeeAmount, v.FeeAmount, v.SellerName)
				assert.Equal(t, want.Paid, v.Paid, v.SellerName)
				assert.Equal(t, want.Status, v.Status, v.SellerName)
				assert.False(t, v.JustPaid, v.SellerName)
			}
		})
	}
}

func TestComputeView_FeeIsExact(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	seller := newSeller("Adwoa", 7.5)
	engine := reconcile.NewEngine(mock_reconcile.NewMockPaymentStore(ctrl))

	views := engine.ComputeView(
		[]models.Seller{seller},
		attendanceFor(seller, "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"),
		nil,
	)

	assert.Equal(t, 4*7.5, views[0].FeeAmount)
}

func TestRecordPayment_MissingReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	// No InsertPayment expectation: the request must be rejected before any write.
	engine := reconcile.NewEngine(store)

	kojo := newSeller("Kojo", 8)
	_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     kojo,
		WeekStart:  weekStart,
		DaysWorked: 2,
		FeeRate:    8,
	}, nil)

	assert.ErrorIs(t, err, reconcile.ErrMissingReceipt)
	assert.Zero(t, engine.OverlaySize())

	views := engine.ComputeView([]models.Seller{kojo}, attendanceFor(kojo, "2025-01-06"), nil)
	assert.Equal(t, reconcile.StatusPending, views[0].Status)
}

func TestRecordPayment_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	engine := reconcile.NewEngine(store)

	ama := newSeller("Ama", 10)
	existing := paymentFor(ama, 3, 10)

	_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     ama,
		WeekStart:  weekStart,
		DaysWorked: 3,
		FeeRate:    10,
		ReceiptID:  primitive.NewObjectID(),
	}, []models.PaymentRecord{existing})

	assert.ErrorIs(t, err, reconcile.ErrDuplicatePayment)
	// Overlay monotonicity: an already-paid seller never enters the overlay.
	assert.Zero(t, engine.OverlaySize())
}

func TestRecordPayment_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		Return(models.PaymentRecord{}, errors.New("connection reset"))

	engine := reconcile.NewEngine(store)
	yaw := newSeller("Yaw", 12)

	_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     yaw,
		WeekStart:  weekStart,
		DaysWorked: 2,
		FeeRate:    12,
		ReceiptID:  primitive.NewObjectID(),
	}, nil)

	var perr *reconcile.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.False(t, perr.Timeout)
	assert.Zero(t, engine.OverlaySize())

	// The seller must remain Pending so the operator can retry.
	views := engine.ComputeView([]models.Seller{yaw}, attendanceFor(yaw, "2025-01-06", "2025-01-07"), nil)
	assert.Equal(t, reconcile.StatusPending, views[0].Status)
	assert.False(t, views[0].Paid)
}

func TestRecordPayment_TimeoutIsFlagged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		Return(models.PaymentRecord{}, context.DeadlineExceeded)

	engine := reconcile.NewEngine(store)

	_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     newSeller("Akua", 6),
		WeekStart:  weekStart,
		DaysWorked: 1,
		FeeRate:    6,
		ReceiptID:  primitive.NewObjectID(),
	}, nil)

	var perr *reconcile.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.True(t, perr.Timeout)
}

func TestRecordPayment_SnapshotThenSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ama := newSeller("Ama", 10)

	var inserted models.PaymentRecord
	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			inserted = rec
			return rec, nil
		})

	engine := reconcile.NewEngine(store)

	// The rate the operator was shown, even though the live seller record has
	// since been edited to 15.
	rec, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     ama,
		WeekStart:  weekStart,
		DaysWorked: 3,
		FeeRate:    10,
		ReceiptID:  primitive.NewObjectID(),
		Notes:      "paid in full",
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 30.0, rec.Amount)
	assert.Equal(t, 3, rec.DaysWorked)
	assert.Equal(t, 10.0, rec.FeeRate)
	assert.Equal(t, inserted, rec)
}

func TestJustPaidLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ama := newSeller("Ama", 10)
	attendance := attendanceFor(ama, "2025-01-06", "2025-01-08", "2025-01-10")

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			return rec, nil
		})

	engine := reconcile.NewEngine(store)

	// Before collection: pending.
	views := engine.ComputeView([]models.Seller{ama}, attendance, nil)
	assert.Equal(t, reconcile.StatusPending, views[0].Status)
	assert.Equal(t, 30.0, views[0].FeeAmount)

	rec, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     ama,
		WeekStart:  weekStart,
		DaysWorked: 3,
		FeeRate:    10,
		ReceiptID:  primitive.NewObjectID(),
	}, nil)
	assert.NoError(t, err)

	// After the write acknowledges but before the feed catches up: paid via
	// the overlay, highlighted as just-paid.
	views = engine.ComputeView([]models.Seller{ama}, attendance, nil)
	assert.True(t, views[0].Paid)
	assert.True(t, views[0].JustPaid)
	assert.Equal(t, reconcile.StatusPaid, views[0].Status)

	// The feed delivers the durable record: reconciliation clears the overlay
	// and the highlight drops while paid sticks.
	engine.Reconcile([]models.PaymentRecord{rec})
	assert.Zero(t, engine.OverlaySize())

	views = engine.ComputeView([]models.Seller{ama}, attendance, []models.PaymentRecord{rec})
	assert.True(t, views[0].Paid)
	assert.False(t, views[0].JustPaid)
	assert.Equal(t, reconcile.StatusPaid, views[0].Status)
	assert.Equal(t, rec.ID, views[0].Payment.ID)
}

func TestComputeView_DurableRecordSuppressesHighlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ama := newSeller("Ama", 10)

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			return rec, nil
		})

	engine := reconcile.NewEngine(store)
	rec, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     ama,
		WeekStart:  weekStart,
		DaysWorked: 2,
		FeeRate:    10,
		ReceiptID:  primitive.NewObjectID(),
	}, nil)
	assert.NoError(t, err)

	// Overlay entry still present, but the snapshot already carries the
	// durable record: durable wins, highlight suppressed.
	views := engine.ComputeView([]models.Seller{ama}, attendanceFor(ama, "2025-01-06", "2025-01-07"), []models.PaymentRecord{rec})
	assert.True(t, views[0].Paid)
	assert.False(t, views[0].JustPaid)
	assert.NotNil(t, views[0].Payment)
}

func TestReconcile_Convergence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sellers := []models.Seller{newSeller("Ama", 10), newSeller("Kojo", 8), newSeller("Efua", 5)}

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			return rec, nil
		}).
		Times(len(sellers))

	engine := reconcile.NewEngine(store)

	var recs []models.PaymentRecord
	for _, s := range sellers {
		rec, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
			Seller:     s,
			WeekStart:  weekStart,
			DaysWorked: 1,
			FeeRate:    s.FeeRate,
			ReceiptID:  primitive.NewObjectID(),
		}, nil)
		assert.NoError(t, err)
		recs = append(recs, rec)
	}
	assert.Equal(t, len(sellers), engine.OverlaySize())

	// A snapshot containing a durable record for every overlay member empties
	// the overlay. Running it again is a no-op.
	engine.Reconcile(recs)
	assert.Zero(t, engine.OverlaySize())
	engine.Reconcile(recs)
	assert.Zero(t, engine.OverlaySize())
}

func TestReconcile_PartialSnapshotShrinksOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ama := newSeller("Ama", 10)
	kojo := newSeller("Kojo", 8)

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	var recs []models.PaymentRecord
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			recs = append(recs, rec)
			return rec, nil
		}).
		Times(2)

	engine := reconcile.NewEngine(store)
	for _, s := range []models.Seller{ama, kojo} {
		_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
			Seller:     s,
			WeekStart:  weekStart,
			DaysWorked: 1,
			FeeRate:    s.FeeRate,
			ReceiptID:  primitive.NewObjectID(),
		}, nil)
		assert.NoError(t, err)
	}

	// Only Ama's record has surfaced so far.
	engine.Reconcile(recs[:1])
	assert.Equal(t, 1, engine.OverlaySize())

	views := engine.ComputeView([]models.Seller{ama, kojo}, nil, recs[:1])
	for _, v := range views {
		assert.True(t, v.Paid, v.SellerName)
	}
}

func TestExpireOverlay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

	store := mock_reconcile.NewMockPaymentStore(ctrl)
	store.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.PaymentRecord) (models.PaymentRecord, error) {
			return rec, nil
		})

	engine := reconcile.NewEngine(store,
		reconcile.WithOverlayTTL(time.Minute),
		reconcile.WithClock(func() time.Time { return now }),
	)

	ama := newSeller("Ama", 10)
	_, err := engine.RecordPayment(context.Background(), reconcile.PaymentRequest{
		Seller:     ama,
		WeekStart:  weekStart,
		DaysWorked: 1,
		FeeRate:    10,
		ReceiptID:  primitive.NewObjectID(),
	}, nil)
	assert.NoError(t, err)

	// Still inside the TTL: nothing expires.
	assert.Zero(t, engine.ExpireOverlay(now.Add(30*time.Second)))
	assert.Equal(t, 1, engine.OverlaySize())

	// Past the deadline: the entry is dropped and the seller falls back to
	// Pending instead of showing falsely paid.
	assert.Equal(t, 1, engine.ExpireOverlay(now.Add(2*time.Minute)))
	assert.Zero(t, engine.OverlaySize())

	views := engine.ComputeView([]models.Seller{ama}, attendanceFor(ama, "2025-01-06"), nil)
	assert.Equal(t, reconcile.StatusPending, views[0].Status)
}
