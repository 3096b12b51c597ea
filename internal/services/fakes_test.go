package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/nexkart/internal/models"
)

// fakeNotifier records outbound notifications and can be told to fail
// status sends.
type fakeNotifier struct {
	mu sync.Mutex

	lastOtpCode     string
	otpSends        int
	statusMessages  []string
	noReturnNotices []string
	successSends    int
	signupSends     int

	failStatus bool
}

func (f *fakeNotifier) SendOtp(email, code, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOtpCode = code
	f.otpSends++
	return nil
}

func (f *fakeNotifier) SendOrderStatus(name, email, orderID string, at time.Time, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStatus {
		return errors.New("smtp unavailable")
	}
	f.statusMessages = append(f.statusMessages, message)
	return nil
}

func (f *fakeNotifier) SendNoReturnNotice(name, email, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noReturnNotices = append(f.noReturnNotices, message)
	return nil
}

func (f *fakeNotifier) SendOrderSuccess(name, email, orderID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successSends++
	return nil
}

func (f *fakeNotifier) SendSignupSuccess(email, name, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupSends++
	return nil
}

type fakeOtpStore struct {
	records map[string]*models.OtpRecord
}

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{records: map[string]*models.OtpRecord{}}
}

func (f *fakeOtpStore) FindByIdentifier(identifier string) (*models.OtpRecord, error) {
	record, ok := f.records[identifier]
	if !ok {
		return nil, &NotFoundError{Msg: "OTP expired or not found"}
	}
	copied := *record
	return &copied, nil
}

func (f *fakeOtpStore) Upsert(identifier, codeHash, purpose string, issuedAt time.Time) error {
	record := &models.OtpRecord{Identifier: identifier, CodeHash: codeHash, Purpose: purpose}
	record.CreatedAt = issuedAt
	f.records[identifier] = record
	return nil
}

func (f *fakeOtpStore) Delete(identifier string) error {
	delete(f.records, identifier)
	return nil
}

type fakeOrderStore struct {
	orders  map[uuid.UUID]*models.Order
	saves   int
	deletes int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[uuid.UUID]*models.Order{}}
}

func copyOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Products = make([]models.OrderedProduct, len(order.Products))
	copy(copied.Products, order.Products)
	return &copied
}

func (f *fakeOrderStore) Create(order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeOrderStore) FindByID(id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, &NotFoundError{Msg: "order not found"}
	}
	return copyOrder(order), nil
}

func (f *fakeOrderStore) Save(order *models.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return &NotFoundError{Msg: "order not found"}
	}
	f.orders[order.ID] = copyOrder(order)
	f.saves++
	return nil
}

func (f *fakeOrderStore) Delete(id uuid.UUID) error {
	delete(f.orders, id)
	f.deletes++
	return nil
}

type fakePendingOrderStore struct {
	pending map[uuid.UUID]*models.PendingOrder
}

func newFakePendingOrderStore() *fakePendingOrderStore {
	return &fakePendingOrderStore{pending: map[uuid.UUID]*models.PendingOrder{}}
}

func (f *fakePendingOrderStore) Create(pending *models.PendingOrder) error {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	copied := *pending
	f.pending[pending.ID] = &copied
	return nil
}

func (f *fakePendingOrderStore) FindByEmail(email string) (*models.PendingOrder, error) {
	for _, p := range f.pending {
		if p.ShippingAddress.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, &NotFoundError{Msg: "pending order not found"}
}

func (f *fakePendingOrderStore) Delete(id uuid.UUID) error {
	delete(f.pending, id)
	return nil
}

// fakeUserStore mimics the insert-or-ignore semantics of the history table's
// unique index: duplicate triples are counted as attempts but stored once.
type fakeUserStore struct {
	users           map[uuid.UUID]*models.User
	historyEntries  map[string]struct{}
	historyAttempts int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:          map[uuid.UUID]*models.User{},
		historyEntries: map[string]struct{}{},
	}
}

func (f *fakeUserStore) FindByID(id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, &NotFoundError{Msg: "user not found"}
	}
	return user, nil
}

func (f *fakeUserStore) AppendOrderHistory(userID uuid.UUID, externalProductID int, placedAt time.Time) error {
	f.historyAttempts++
	key := fmt.Sprintf("%s|%d|%d", userID, externalProductID, placedAt.UnixNano())
	f.historyEntries[key] = struct{}{}
	return nil
}
