package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/nexkart/internal/models"
)

type orderServiceFixture struct {
	svc      *OrderService
	orders   *fakeOrderStore
	pending  *fakePendingOrderStore
	users    *fakeUserStore
	otps     *fakeOtpStore
	notifier *fakeNotifier
	now      time.Time
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	f := &orderServiceFixture{
		orders:   newFakeOrderStore(),
		pending:  newFakePendingOrderStore(),
		users:    newFakeUserStore(),
		otps:     newFakeOtpStore(),
		notifier: &fakeNotifier{},
		now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	otpSvc := newTestOTPService(f.otps, f.notifier)
	otpSvc.now = func() time.Time { return f.now }

	f.svc = NewOrderService(f.orders, f.pending, f.users, otpSvc, f.notifier, nil, 2)
	f.svc.now = func() time.Time { return f.now }

	return f
}

func (f *orderServiceFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "5550100",
		Address: "12 Lake View",
		City:    "Pune",
		Country: "IN",
	}
}

func testLines() []models.OrderedProduct {
	return []models.OrderedProduct{
		{ExternalProductID: 101, Title: "Desk Lamp", PriceAtPurchase: 40, Quantity: 2, ReturnPolicy: "10 days return policy"},
		{ExternalProductID: 102, Title: "Notebook", PriceAtPurchase: 5, Quantity: 1, ReturnPolicy: NoReturnPolicy},
	}
}

func (f *orderServiceFixture) placeAndPromote(t *testing.T, userID uuid.UUID, paymentMethod string) *models.Order {
	t.Helper()

	if _, err := f.svc.PlaceOrder(userID, testLines(), testAddress(), paymentMethod); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	order, err := f.svc.VerifyOrderOtp(userID, "asha@example.com", f.notifier.lastOtpCode)
	if err != nil {
		t.Fatalf("VerifyOrderOtp: %v", err)
	}
	return order
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	cases := []struct {
		name     string
		products []models.OrderedProduct
		address  models.ShippingAddress
		method   string
	}{
		{"no products", nil, testAddress(), models.PaymentCard},
		{"bad payment method", testLines(), testAddress(), "Cheque"},
		{"missing email", testLines(), models.ShippingAddress{Name: "A", Phone: "1"}, models.PaymentCard},
		{"missing phone", testLines(), models.ShippingAddress{Name: "A", Email: "a@b.c"}, models.PaymentCard},
		{"zero quantity", []models.OrderedProduct{{ExternalProductID: 1, PriceAtPurchase: 5}}, testAddress(), models.PaymentCard},
	}

	for _, tc := range cases {
		if _, err := f.svc.PlaceOrder(userID, tc.products, tc.address, tc.method); !IsValidation(err) {
			t.Errorf("%s: err = %v, want ValidationError", tc.name, err)
		}
	}

	if len(f.pending.pending) != 0 {
		t.Errorf("validation failures left %d drafts behind", len(f.pending.pending))
	}
}

func TestPlaceOrderCreatesDraft(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	draft, err := f.svc.PlaceOrder(userID, testLines(), testAddress(), models.PaymentCashOnDelivery)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if draft.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("COD payment status = %q, want %q", draft.PaymentStatus, models.PaymentStatusPending)
	}
	if draft.OrderStatus != models.StatusProcessing {
		t.Errorf("order status = %q, want %q", draft.OrderStatus, models.StatusProcessing)
	}
	if draft.TotalAmount != 85 {
		t.Errorf("total = %v, want 85", draft.TotalAmount)
	}
	if draft.Products[0].TotalPrice != 80 {
		t.Errorf("line total = %v, want 80", draft.Products[0].TotalPrice)
	}

	if _, ok := f.otps.records["asha@example.com"]; !ok {
		t.Error("no OTP record issued for the shipping email")
	}
	if f.notifier.otpSends != 1 {
		t.Errorf("otp sends = %d, want 1", f.notifier.otpSends)
	}
}

func TestPlaceOrderPrepaidMarkedPaid(t *testing.T) {
	f := newOrderServiceFixture(t)

	draft, err := f.svc.PlaceOrder(uuid.New(), testLines(), testAddress(), models.PaymentUPI)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if draft.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("prepaid payment status = %q, want %q", draft.PaymentStatus, models.PaymentStatusPaid)
	}
}

func TestPlaceOrderOtpCooldownDropsDraft(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	if _, err := f.svc.PlaceOrder(userID, testLines(), testAddress(), models.PaymentCard); err != nil {
		t.Fatalf("first PlaceOrder: %v", err)
	}
	firstCount := len(f.pending.pending)

	f.advance(10 * time.Second)
	if _, err := f.svc.PlaceOrder(userID, testLines(), testAddress(), models.PaymentCard); !IsConflict(err) {
		t.Fatalf("PlaceOrder inside OTP cooldown = %v, want ConflictError", err)
	}

	if len(f.pending.pending) != firstCount {
		t.Errorf("rejected placement stranded a draft: %d drafts, want %d", len(f.pending.pending), firstCount)
	}
}

func TestVerifyOrderOtpPromotesDraft(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if order.OrderStatus != models.StatusProcessing {
		t.Errorf("status = %q, want %q", order.OrderStatus, models.StatusProcessing)
	}
	if !order.ShippingAddress.IsVerified {
		t.Error("shipping address not marked verified after OTP promotion")
	}
	if !order.PlacedAt.Equal(f.now) {
		t.Errorf("placed at = %v, want %v", order.PlacedAt, f.now)
	}
	if len(order.Products) != 2 {
		t.Fatalf("promoted order has %d products, want 2", len(order.Products))
	}

	if len(f.pending.pending) != 0 {
		t.Error("pending draft not deleted after promotion")
	}
	if _, ok := f.otps.records["asha@example.com"]; ok {
		t.Error("OTP record not consumed after promotion")
	}
	if f.notifier.successSends != 1 {
		t.Errorf("order success emails = %d, want 1", f.notifier.successSends)
	}
}

func TestVerifyOrderOtpWrongOwner(t *testing.T) {
	f := newOrderServiceFixture(t)

	if _, err := f.svc.PlaceOrder(uuid.New(), testLines(), testAddress(), models.PaymentCard); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if _, err := f.svc.VerifyOrderOtp(uuid.New(), "asha@example.com", f.notifier.lastOtpCode); !IsAuthorization(err) {
		t.Errorf("promotion by another user = %v, want AuthorizationError", err)
	}
	if len(f.pending.pending) != 1 {
		t.Error("draft should survive a failed promotion")
	}
}

func TestSetStatusRequiresAdmin(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.placeAndPromote(t, uuid.New(), models.PaymentCard)

	if _, _, err := f.svc.SetStatus("user", order.ID, models.StatusPacked); !IsAuthorization(err) {
		t.Errorf("non-admin SetStatus = %v, want AuthorizationError", err)
	}
}

func TestSetStatusRejectsInvalidTargets(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.placeAndPromote(t, uuid.New(), models.PaymentCard)

	for _, target := range []string{models.StatusProcessing, models.StatusCancelled, models.StatusRefunded, "Lost"} {
		if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, target); !IsValidation(err) {
			t.Errorf("SetStatus(%q) = %v, want ValidationError", target, err)
		}
	}
}

func TestSetStatusTerminalStateConflict(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, err := f.svc.Cancel(userID, order.ID, "changed my mind"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusPacked); !IsConflict(err) {
		t.Errorf("SetStatus on cancelled order = %v, want ConflictError", err)
	}
}

func TestSetStatusStampsFirstReachOnly(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.placeAndPromote(t, uuid.New(), models.PaymentCard)

	updated, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusPacked)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	firstStamp := *updated.PackedAt

	f.advance(2 * time.Hour)
	updated, _, err = f.svc.SetStatus(RoleAdmin, order.ID, models.StatusPacked)
	if err != nil {
		t.Fatalf("second SetStatus: %v", err)
	}

	if !updated.PackedAt.Equal(firstStamp) {
		t.Errorf("packed at moved from %v to %v on repeat transition", firstStamp, *updated.PackedAt)
	}
}

func TestDeliveredStampsWindowsAndMarksCodPaid(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.placeAndPromote(t, uuid.New(), models.PaymentCashOnDelivery)

	f.advance(48 * time.Hour)
	updated, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusDelivered)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if updated.DeliveredAt == nil || !updated.DeliveredAt.Equal(f.now) {
		t.Fatalf("delivered at = %v, want %v", updated.DeliveredAt, f.now)
	}
	if updated.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("COD payment status after delivery = %q, want %q", updated.PaymentStatus, models.PaymentStatusPaid)
	}

	byProduct := map[int]*time.Time{}
	for i := range updated.Products {
		byProduct[updated.Products[i].ExternalProductID] = updated.Products[i].ReturnExpiresAt
	}

	wantParsed := f.now.AddDate(0, 0, 10)
	if got := byProduct[101]; got == nil || !got.Equal(wantParsed) {
		t.Errorf("parsed return window = %v, want %v", got, wantParsed)
	}

	wantGrace := f.now.AddDate(0, 0, 2)
	if got := byProduct[102]; got == nil || !got.Equal(wantGrace) {
		t.Errorf("no-policy grace window = %v, want %v", got, wantGrace)
	}

	if len(f.notifier.noReturnNotices) != 1 {
		t.Errorf("no-return notices = %d, want 1", len(f.notifier.noReturnNotices))
	}
}

func TestCancelValidation(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, err := f.svc.Cancel(userID, order.ID, "  "); !IsValidation(err) {
		t.Errorf("Cancel without reason = %v, want ValidationError", err)
	}
	if _, err := f.svc.Cancel(uuid.New(), order.ID, "reason"); !IsAuthorization(err) {
		t.Errorf("Cancel by another user = %v, want AuthorizationError", err)
	}
}

func TestCancelRejectedOnceShipped(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusShipped); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	savesBefore := f.orders.saves
	mailsBefore := len(f.notifier.statusMessages)

	if _, err := f.svc.Cancel(userID, order.ID, "too slow"); !IsConflict(err) {
		t.Fatalf("Cancel after shipping = %v, want ConflictError", err)
	}

	stored, err := f.orders.FindByID(order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.OrderStatus != models.StatusShipped {
		t.Errorf("order status = %q after rejected cancel, want %q", stored.OrderStatus, models.StatusShipped)
	}
	if f.orders.saves != savesBefore {
		t.Error("rejected cancel wrote to the store")
	}
	if len(f.notifier.statusMessages) != mailsBefore+1 {
		t.Error("rejected cancel did not notify the buyer")
	}
}

func TestCancelCodDeletesOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCashOnDelivery)

	msg, err := f.svc.Cancel(userID, order.ID, "found it cheaper")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if msg != "Order cancelled successfully" {
		t.Errorf("message = %q", msg)
	}

	if _, err := f.orders.FindByID(order.ID); !IsNotFound(err) {
		t.Error("COD cancel should hard-delete the order")
	}
}

func TestCancelPaidOrderAwaitsRefund(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusPacked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	msg, err := f.svc.Cancel(userID, order.ID, "wrong size")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !strings.Contains(msg, "refund pending") {
		t.Errorf("message = %q, want refund pending", msg)
	}

	stored, err := f.orders.FindByID(order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.OrderStatus != models.StatusCancelled {
		t.Errorf("status = %q, want %q", stored.OrderStatus, models.StatusCancelled)
	}
	if stored.CancelledOrder.CanceledReason != "wrong size" {
		t.Errorf("reason = %q", stored.CancelledOrder.CanceledReason)
	}
	if stored.CancelledOrder.CanceledAt == nil {
		t.Error("cancelled timestamp not recorded")
	}
}

func TestReturnRequiresDelivery(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, err := f.svc.Return(userID, order.ID, "defective"); !IsConflict(err) {
		t.Errorf("Return before delivery = %v, want ConflictError", err)
	}
}

func TestReturnPartitionsWindows(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusDelivered); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// Five days out: the 10-day product is still returnable, the no-policy
	// product is not.
	f.advance(5 * 24 * time.Hour)
	msg, err := f.svc.Return(userID, order.ID, "defective")
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !strings.Contains(msg, "refund pending") {
		t.Errorf("message = %q", msg)
	}

	stored, err := f.orders.FindByID(order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.OrderStatus != models.StatusReturned {
		t.Errorf("status = %q, want %q", stored.OrderStatus, models.StatusReturned)
	}
	if len(stored.Products) != 1 || stored.Products[0].ExternalProductID != 101 {
		t.Errorf("returned order kept products %v, want only 101", stored.Products)
	}
	if len(f.users.historyEntries) != 1 {
		t.Errorf("history entries = %d, want 1 for the expired product", len(f.users.historyEntries))
	}
}

func TestReturnAllExpiredRecordsHistoryOnce(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, _, err := f.svc.SetStatus(RoleAdmin, order.ID, models.StatusDelivered); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	f.advance(30 * 24 * time.Hour)
	if _, err := f.svc.Return(userID, order.ID, "too late"); !IsConflict(err) {
		t.Fatalf("Return with all windows elapsed = %v, want ConflictError", err)
	}
	if len(f.users.historyEntries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(f.users.historyEntries))
	}

	// A retry attempts the same inserts but the unique triple dedupes them.
	if _, err := f.svc.Return(userID, order.ID, "too late"); !IsConflict(err) {
		t.Fatalf("repeat Return = %v, want ConflictError", err)
	}
	if len(f.users.historyEntries) != 2 {
		t.Errorf("history entries after retry = %d, want 2", len(f.users.historyEntries))
	}
	if f.users.historyAttempts != 4 {
		t.Errorf("history attempts = %d, want 4", f.users.historyAttempts)
	}

	stored, err := f.orders.FindByID(order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.OrderStatus != models.StatusDelivered {
		t.Errorf("status = %q after ineligible return, want %q", stored.OrderStatus, models.StatusDelivered)
	}
}

func TestRefundRequiresAdmin(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.placeAndPromote(t, uuid.New(), models.PaymentCard)

	if _, err := f.svc.Refund("user", order.ID); !IsAuthorization(err) {
		t.Errorf("non-admin Refund = %v, want AuthorizationError", err)
	}
}

func TestRefundCompletesAndDisposes(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, err := f.svc.Cancel(userID, order.ID, "wrong size"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mailsBefore := len(f.notifier.statusMessages)
	deletesBefore := f.orders.deletes

	msg, err := f.svc.Refund(RoleAdmin, order.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if msg != "Order refunded successfully" {
		t.Errorf("message = %q", msg)
	}
	if _, err := f.orders.FindByID(order.ID); !IsNotFound(err) {
		t.Error("refunded order should be disposed after successful notification")
	}

	// Re-refunding a disposed order is a quiet success with no further
	// notification or disposal.
	msg, err = f.svc.Refund(RoleAdmin, order.ID)
	if err != nil {
		t.Fatalf("repeat Refund: %v", err)
	}
	if msg != "Order already refunded" {
		t.Errorf("repeat message = %q", msg)
	}
	if got := len(f.notifier.statusMessages) - mailsBefore; got != 1 {
		t.Errorf("refund notifications = %d, want 1", got)
	}
	if got := f.orders.deletes - deletesBefore; got != 1 {
		t.Errorf("order disposals = %d, want 1", got)
	}
}

func TestRefundKeepsRecordWhenNotificationFails(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	order := f.placeAndPromote(t, userID, models.PaymentCard)

	if _, err := f.svc.Cancel(userID, order.ID, "wrong size"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	f.notifier.failStatus = true
	_, err := f.svc.Refund(RoleAdmin, order.ID)
	var external *ExternalError
	if err == nil || !errors.As(err, &external) {
		t.Fatalf("Refund with failing notifier = %v, want ExternalError", err)
	}

	stored, err := f.orders.FindByID(order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.OrderStatus != models.StatusRefunded {
		t.Errorf("status = %q, want %q", stored.OrderStatus, models.StatusRefunded)
	}
	if stored.PaymentStatus != models.PaymentStatusRefunded {
		t.Errorf("payment status = %q, want %q", stored.PaymentStatus, models.PaymentStatusRefunded)
	}
	if stored.RefundAt == nil {
		t.Error("refund timestamp not recorded")
	}
}
