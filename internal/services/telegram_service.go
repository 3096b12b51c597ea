package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// TelegramService pushes operational notices (new orders, refunds) to the
// staff chat. Unconfigured instances log and report success.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the staff chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotice summarizes a confirmed order for the staff chat.
type OrderNotice struct {
	OrderID       string
	BuyerName     string
	BuyerEmail    string
	PaymentMethod string
	TotalAmount   float64
	ItemCount     int
}

// NotifyOrderConfirmed announces a freshly promoted order.
func (s *TelegramService) NotifyOrderConfirmed(notice OrderNotice) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER CONFIRMED</b>
<b>📋 Order:</b> %s
<b>👤 Buyer:</b> %s (%s)
<b>📦 Items:</b> %d
<b>💰 Total:</b> %.2f
<b>💳 Payment:</b> %s`,
		notice.OrderID,
		notice.BuyerName,
		notice.BuyerEmail,
		notice.ItemCount,
		notice.TotalAmount,
		notice.PaymentMethod,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyRefundCompleted announces a finalized refund.
func (s *TelegramService) NotifyRefundCompleted(orderID string, amount float64) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ REFUND COMPLETED</b>
<b>📋 Order:</b> %s
<b>💰 Amount:</b> %.2f`,
		orderID,
		amount,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
