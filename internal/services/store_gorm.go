package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/nexkart/internal/models"
)

// Store bundles the GORM-backed implementations of the persistence
// interfaces the services consume.
type Store struct {
	Orders  OrderStore
	Pending PendingOrderStore
	Otps    OtpStore
	Users   UserStore
}

// NewStore wires GORM-backed stores around db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Orders:  &gormOrderStore{db: db},
		Pending: &gormPendingOrderStore{db: db},
		Otps:    &gormOtpStore{db: db},
		Users:   &gormUserStore{db: db},
	}
}

type gormOrderStore struct {
	db *gorm.DB
}

func (s *gormOrderStore) Create(order *models.Order) error {
	return s.db.Create(order).Error
}

func (s *gormOrderStore) FindByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Products").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Msg: "order not found"}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save rewrites the order row and its line items. Line items are replaced
// wholesale so products removed by the return workflow do not linger.
func (s *gormOrderStore) Save(order *models.Order) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Save(order).Error; err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderedProduct{}).Error; err != nil {
			return err
		}

		if len(order.Products) == 0 {
			return nil
		}

		for i := range order.Products {
			order.Products[i].OrderID = &order.ID
			order.Products[i].PendingOrderID = nil
		}

		return tx.Create(&order.Products).Error
	})
}

func (s *gormOrderStore) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderedProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", id).Error
	})
}

type gormPendingOrderStore struct {
	db *gorm.DB
}

func (s *gormPendingOrderStore) Create(pending *models.PendingOrder) error {
	return s.db.Create(pending).Error
}

func (s *gormPendingOrderStore) FindByEmail(email string) (*models.PendingOrder, error) {
	var pending models.PendingOrder
	err := s.db.Preload("Products").
		Where("shipping_email = ?", email).
		Order("created_at desc").
		First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Msg: "pending order not found"}
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *gormPendingOrderStore) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pending_order_id = ?", id).Delete(&models.OrderedProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PendingOrder{}, "id = ?", id).Error
	})
}

type gormOtpStore struct {
	db *gorm.DB
}

func (s *gormOtpStore) FindByIdentifier(identifier string) (*models.OtpRecord, error) {
	var record models.OtpRecord
	err := s.db.Where("identifier = ?", identifier).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Msg: "OTP expired or not found"}
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *gormOtpStore) Upsert(identifier, codeHash, purpose string, issuedAt time.Time) error {
	record := models.OtpRecord{
		Identifier: identifier,
		CodeHash:   codeHash,
		Purpose:    purpose,
	}
	record.CreatedAt = issuedAt

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"code_hash":  codeHash,
			"purpose":    purpose,
			"created_at": issuedAt,
		}),
	}).Create(&record).Error
}

func (s *gormOtpStore) Delete(identifier string) error {
	return s.db.Delete(&models.OtpRecord{}, "identifier = ?", identifier).Error
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Msg: "user not found"}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AppendOrderHistory inserts a history entry, ignoring duplicates of the same
// (user, product, placedAt) triple so retried workflows record each product
// exactly once.
func (s *gormUserStore) AppendOrderHistory(userID uuid.UUID, externalProductID int, placedAt time.Time) error {
	entry := models.OrderHistoryEntry{
		UserID:            userID,
		ExternalProductID: externalProductID,
		PlacedAt:          placedAt,
	}

	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}
