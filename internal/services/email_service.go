package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// EmailService delivers customer-facing mail over SMTP. With no host
// configured it logs and reports success, mirroring how other outbound
// integrations degrade when unconfigured.
type EmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailService constructs an EmailService.
func NewEmailService(host, port, user, pass, from string) *EmailService {
	return &EmailService{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *EmailService) send(to, subject, html string) error {
	if s.host == "" {
		log.Printf("[Email] SMTP not configured, skipping %q to %s", subject, to)
		return nil
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		log.Printf("[Email] Failed to send %q to %s: %v", subject, to, err)
		return err
	}

	return nil
}

// SendOtp mails a one-time code with its label as the subject line.
func (s *EmailService) SendOtp(email, code, label string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h2>%s</h2>
      <p>Your OTP code is:</p>
      <h3 style="color: #0e76a8;">%s</h3>
      <p>This OTP will expire in 2 minutes.</p>
      <h2>Thank you for using our service! NexKart</h2>
    </div>`, label, code)

	return s.send(email, label, html)
}

// SendOrderStatus mails a status-change summary to the buyer.
func (s *EmailService) SendOrderStatus(name, email, orderID string, at time.Time, message string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h2>Hi %s</h2>
      <p>Order <b>%s</b> was updated at %s.</p>
      <p>%s</p>
      <h2>Thank you for shopping with NexKart!</h2>
    </div>`, name, orderID, at.Format(time.RFC1123), message)

	return s.send(email, "Order status update", html)
}

// SendNoReturnNotice tells the buyer a delivered product is not eligible for
// return.
func (s *EmailService) SendNoReturnNotice(name, email, message string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h2>Hi %s</h2>
      <p>%s</p>
      <h2>Thank you for shopping with NexKart!</h2>
    </div>`, name, message)

	return s.send(email, "Return eligibility notice", html)
}

// SendOrderSuccess confirms a successfully placed order.
func (s *EmailService) SendOrderSuccess(name, email, orderID, message string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h2>Hi %s</h2>
      <p>%s</p>
      <p>Order reference: <b>%s</b></p>
      <h2>Thank you for shopping with NexKart!</h2>
    </div>`, name, message, orderID)

	return s.send(email, "Order placed successfully", html)
}

// SendSignupSuccess welcomes a newly verified account.
func (s *EmailService) SendSignupSuccess(email, name, username string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h2>Hi %s</h2>
      <h1>Welcome to NexKart!</h1>
      <p>Your account has been successfully created.</p>
      <p>Your username is: %s</p>
    </div>`, name, username)

	return s.send(email, "Account created successfully, welcome to NexKart", html)
}
