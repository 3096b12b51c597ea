package services

import "time"

// Notifier is the outbound notification sink. Delivery is best-effort with no
// guarantee assumed by the order and OTP workflows; only the refund
// confirmation path treats a send failure as fatal.
type Notifier interface {
	SendOtp(email, code, label string) error
	SendOrderStatus(name, email, orderID string, at time.Time, message string) error
	SendNoReturnNotice(name, email, message string) error
	SendOrderSuccess(name, email, orderID, message string) error
	SendSignupSuccess(email, name, username string) error
}
