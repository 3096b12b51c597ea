package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/utils"
)

// NoReturnPolicy is the catalog's marker for products that cannot be
// returned at all.
const NoReturnPolicy = "No return policy"

// RoleAdmin is the privilege required for the admin command surface.
const RoleAdmin = "admin"

// OrderService owns the order lifecycle: pending draft creation, OTP-gated
// promotion, the status state machine, cancel/return workflows and refund
// finalization. Concurrent writers to the same order race with
// last-write-wins semantics at the storage layer; no locking is attempted.
type OrderService struct {
	orders    OrderStore
	pending   PendingOrderStore
	users     UserStore
	otp       *OTPService
	notifier  Notifier
	events    *EventPublisher
	graceDays int
	now       func() time.Time
}

// NewOrderService constructs an OrderService. graceDays is the fixed window
// annotated on delivered products that carry no return policy.
func NewOrderService(orders OrderStore, pending PendingOrderStore, users UserStore, otp *OTPService, notifier Notifier, events *EventPublisher, graceDays int) *OrderService {
	return &OrderService{
		orders:    orders,
		pending:   pending,
		users:     users,
		otp:       otp,
		notifier:  notifier,
		events:    events,
		graceDays: graceDays,
		now:       time.Now,
	}
}

// PlaceOrder persists an order draft and issues the confirmation OTP to the
// shipping-address email. The draft stays unconfirmed until VerifyOrderOtp
// promotes it; a storage TTL reaps drafts that are never confirmed.
func (s *OrderService) PlaceOrder(userID uuid.UUID, products []models.OrderedProduct, address models.ShippingAddress, paymentMethod string) (*models.PendingOrder, error) {
	if len(products) == 0 {
		return nil, &ValidationError{Msg: "at least one product is required"}
	}
	if !models.ValidPaymentMethod(paymentMethod) {
		return nil, &ValidationError{Msg: "invalid payment method"}
	}
	if strings.TrimSpace(address.Email) == "" || strings.TrimSpace(address.Name) == "" {
		return nil, &ValidationError{Msg: "shipping name and email are required"}
	}
	if strings.TrimSpace(address.Phone) == "" {
		return nil, &ValidationError{Msg: "phone number is required"}
	}

	var total float64
	for i := range products {
		if products[i].Quantity <= 0 {
			return nil, &ValidationError{Msg: "quantity must be greater than 0"}
		}
		products[i].TotalPrice = products[i].PriceAtPurchase * float64(products[i].Quantity)
		total += products[i].TotalPrice
	}

	paymentStatus := models.PaymentStatusPaid
	if paymentMethod == models.PaymentCashOnDelivery {
		paymentStatus = models.PaymentStatusPending
	}

	draft := &models.PendingOrder{
		UserID:          userID,
		Products:        products,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   paymentStatus,
		OrderStatus:     models.StatusProcessing,
		TotalAmount:     total,
	}

	if err := s.pending.Create(draft); err != nil {
		return nil, err
	}

	if _, err := s.otp.Issue(address.Email, "Place order verification OTP"); err != nil {
		// Drop the draft so a cooldown rejection does not strand a
		// confirmable duplicate.
		if delErr := s.pending.Delete(draft.ID); delErr != nil {
			log.Printf("[Order] Failed to clean up draft %s after OTP rejection: %v", draft.ID, delErr)
		}
		return nil, err
	}

	return draft, nil
}

// VerifyOrderOtp promotes the pending order matched by the shipping-address
// email into a finalized Order. Creation happens first; the pending and OTP
// deletes that follow are tolerated to fail (a storage TTL reconciles
// leftovers) because retrying creation would risk a duplicate order.
func (s *OrderService) VerifyOrderOtp(userID uuid.UUID, email, code string) (*models.Order, error) {
	if email == "" || code == "" {
		return nil, &ValidationError{Msg: "email and OTP are required"}
	}

	if err := s.otp.Verify(email, code); err != nil {
		return nil, err
	}

	draft, err := s.pending.FindByEmail(email)
	if err != nil {
		return nil, err
	}

	if draft.UserID != userID {
		return nil, &AuthorizationError{Msg: "pending order belongs to another user"}
	}

	address := draft.ShippingAddress
	address.IsVerified = true

	lines := make([]models.OrderedProduct, 0, len(draft.Products))
	for _, p := range draft.Products {
		lines = append(lines, models.OrderedProduct{
			ExternalProductID: p.ExternalProductID,
			Title:             p.Title,
			Thumbnail:         p.Thumbnail,
			PriceAtPurchase:   p.PriceAtPurchase,
			Quantity:          p.Quantity,
			TotalPrice:        p.TotalPrice,
			ReturnPolicy:      p.ReturnPolicy,
		})
	}

	order := &models.Order{
		UserID:          draft.UserID,
		Products:        lines,
		ShippingAddress: address,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   draft.PaymentStatus,
		OrderStatus:     draft.OrderStatus,
		TotalAmount:     draft.TotalAmount,
		PlacedAt:        s.now(),
	}

	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	if err := s.notifier.SendOrderSuccess(address.Name, address.Email, order.ID.String(), "Your order has been placed successfully."); err != nil {
		log.Printf("[Order] Order success email failed for %s: %v", order.ID, err)
	}

	if err := s.otp.Consume(email); err != nil {
		log.Printf("[Order] Failed to consume OTP for %s: %v", email, err)
	}
	if err := s.pending.Delete(draft.ID); err != nil {
		log.Printf("[Order] Failed to delete pending order %s: %v", draft.ID, err)
	}

	return order, nil
}

// SetStatus drives an order along the fulfillment sequence on behalf of an
// administrator. Reaching Delivered marks COD orders paid and stamps each
// product's return window; the status notification is dispatched after the
// state change is committed and never rolls it back.
func (s *OrderService) SetStatus(actorRole string, orderID uuid.UUID, newStatus string) (*models.Order, string, error) {
	if actorRole != RoleAdmin {
		return nil, "", &AuthorizationError{Msg: "only admins can update order status"}
	}

	switch newStatus {
	case models.StatusPacked, models.StatusShipped, models.StatusOutForDelivery, models.StatusDelivered:
	default:
		return nil, "", &ValidationError{Msg: "invalid target order status"}
	}

	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return nil, "", err
	}

	switch order.OrderStatus {
	case models.StatusCancelled, models.StatusReturned, models.StatusRefunded:
		return nil, "", &ConflictError{Msg: fmt.Sprintf("order is already %s", order.OrderStatus)}
	}

	now := s.now()
	order.OrderStatus = newStatus

	// Timestamps record the first time each status was reached and are
	// never cleared.
	switch newStatus {
	case models.StatusPacked:
		if order.PackedAt == nil {
			order.PackedAt = &now
		}
	case models.StatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case models.StatusOutForDelivery:
		if order.OutForDeliveryAt == nil {
			order.OutForDeliveryAt = &now
		}
	case models.StatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}

	var noReturnNotices []string
	if newStatus == models.StatusDelivered {
		if order.PaymentMethod == models.PaymentCashOnDelivery {
			order.PaymentStatus = models.PaymentStatusPaid
		}

		deliveredAt := *order.DeliveredAt
		for i := range order.Products {
			p := &order.Products[i]

			if p.ReturnPolicy == NoReturnPolicy {
				grace := deliveredAt.AddDate(0, 0, s.graceDays)
				p.ReturnExpiresAt = &grace
				noReturnNotices = append(noReturnNotices, fmt.Sprintf(
					"Thanks for purchasing %s. %s is not eligible for return.", p.Title, p.Title))
				continue
			}

			days, ok := utils.ExtractReturnDays(p.ReturnPolicy)
			if !ok {
				continue
			}
			expires := deliveredAt.AddDate(0, 0, days)
			p.ReturnExpiresAt = &expires
		}
	}

	if err := s.orders.Save(order); err != nil {
		return nil, "", err
	}

	for _, notice := range noReturnNotices {
		if err := s.notifier.SendNoReturnNotice(order.ShippingAddress.Name, order.ShippingAddress.Email, notice); err != nil {
			log.Printf("[Order] No-return notice failed for %s: %v", order.ID, err)
		}
	}

	message := fmt.Sprintf("Order status updated successfully to %s", newStatus)
	if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), now,
		fmt.Sprintf("Your order has been %s. Any further updates will be sent to your email.", newStatus)); err != nil {
		log.Printf("[Order] Status email failed for %s: %v", order.ID, err)
	}

	s.publishStatus(order)

	return order, message, nil
}

// Cancel lets the buyer cancel a not-yet-shipped order. COD orders are
// hard-deleted since there is no payment to reverse; paid orders move to
// Cancelled and await an admin-driven refund.
func (s *OrderService) Cancel(requesterID, orderID uuid.UUID, reason string) (string, error) {
	if strings.TrimSpace(reason) == "" {
		return "", &ValidationError{Msg: "cancellation reason is required"}
	}

	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return "", err
	}

	if order.UserID != requesterID {
		return "", &AuthorizationError{Msg: "you are not authorized to cancel this order"}
	}

	switch order.OrderStatus {
	case models.StatusProcessing, models.StatusPacked:
	default:
		if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), s.now(),
			fmt.Sprintf("Your cancellation request was declined: the order is already %s.", order.OrderStatus)); err != nil {
			log.Printf("[Order] Cancel rejection email failed for %s: %v", order.ID, err)
		}
		return "", &ConflictError{Msg: fmt.Sprintf("order cannot be cancelled once %s", order.OrderStatus)}
	}

	if order.PaymentMethod == models.PaymentCashOnDelivery {
		if err := s.orders.Delete(order.ID); err != nil {
			return "", err
		}
		if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), s.now(),
			"Your order has been cancelled."); err != nil {
			log.Printf("[Order] Cancel email failed for %s: %v", order.ID, err)
		}
		return "Order cancelled successfully", nil
	}

	now := s.now()
	order.OrderStatus = models.StatusCancelled
	order.CancelledOrder = models.CancelledOrder{CanceledAt: &now, CanceledReason: reason}

	if err := s.orders.Save(order); err != nil {
		return "", err
	}

	if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), now,
		"Your order has been cancelled. Your refund will be processed shortly."); err != nil {
		log.Printf("[Order] Cancel email failed for %s: %v", order.ID, err)
	}

	s.publishStatus(order)

	return "Order cancelled successfully, refund pending", nil
}

// Return processes a post-delivery return. Products whose windows have
// elapsed (or that never had a parseable policy) are logged into the buyer's
// order history exactly once whether or not anything remains returnable.
func (s *OrderService) Return(requesterID, orderID uuid.UUID, reason string) (string, error) {
	if strings.TrimSpace(reason) == "" {
		return "", &ValidationError{Msg: "return reason is required"}
	}

	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return "", err
	}

	if order.UserID != requesterID {
		return "", &AuthorizationError{Msg: "you are not authorized to return this order"}
	}

	if order.OrderStatus != models.StatusDelivered || order.DeliveredAt == nil {
		return "", &ConflictError{Msg: "only delivered orders can be returned"}
	}

	now := s.now()
	deliveredAt := *order.DeliveredAt

	var returnable, expired []models.OrderedProduct
	for _, p := range order.Products {
		days, ok := utils.ExtractReturnDays(p.ReturnPolicy)
		if ok && !now.After(deliveredAt.AddDate(0, 0, days)) {
			returnable = append(returnable, p)
		} else {
			expired = append(expired, p)
		}
	}

	for _, p := range expired {
		if err := s.users.AppendOrderHistory(order.UserID, p.ExternalProductID, order.PlacedAt); err != nil {
			return "", err
		}
	}

	if len(returnable) == 0 {
		if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), now,
			"None of the products in this order are eligible for return."); err != nil {
			log.Printf("[Order] Return rejection email failed for %s: %v", order.ID, err)
		}
		return "", &ConflictError{Msg: "no products in this order are eligible for return"}
	}

	order.Products = returnable
	order.OrderStatus = models.StatusReturned
	order.ReturnedOrder = models.ReturnedOrder{ReturnedAt: &now, ReturnedReason: reason}

	if err := s.orders.Save(order); err != nil {
		return "", err
	}

	if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), now,
		"Your return has been accepted. Your refund will be processed shortly."); err != nil {
		log.Printf("[Order] Return email failed for %s: %v", order.ID, err)
	}

	s.publishStatus(order)

	return "Order returned successfully, refund pending", nil
}

// Refund finalizes a refund in the combined idempotent form: calling it on an
// already-refunded (or already-disposed) order is a no-op success. The order
// record is deleted only after the refund notification succeeds; on a
// notification failure it stays Refunded and undeleted, and the failure is
// surfaced to the admin caller.
func (s *OrderService) Refund(actorRole string, orderID uuid.UUID) (string, error) {
	if actorRole != RoleAdmin {
		return "", &AuthorizationError{Msg: "only admins can refund orders"}
	}

	order, err := s.orders.FindByID(orderID)
	if IsNotFound(err) {
		return "Order already refunded", nil
	}
	if err != nil {
		return "", err
	}

	if order.OrderStatus == models.StatusRefunded {
		return "Order already refunded", nil
	}

	now := s.now()
	order.OrderStatus = models.StatusRefunded
	order.PaymentStatus = models.PaymentStatusRefunded
	order.RefundAt = &now

	if err := s.orders.Save(order); err != nil {
		return "", err
	}

	s.publishStatus(order)

	// Refund confirmation requires successful customer communication before
	// record disposal.
	if err := s.notifier.SendOrderStatus(order.ShippingAddress.Name, order.ShippingAddress.Email, order.ID.String(), now,
		"Your refund has been processed."); err != nil {
		return "", &ExternalError{Msg: "order marked refunded but the customer notification failed; record retained", Err: err}
	}

	if err := s.orders.Delete(order.ID); err != nil {
		return "", err
	}

	return "Order refunded successfully", nil
}

func (s *OrderService) publishStatus(order *models.Order) {
	s.events.PublishOrderStatus(context.Background(), OrderStatusEvent{
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Status:    order.OrderStatus,
		UpdatedAt: s.now(),
	})
}
