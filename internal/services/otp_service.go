package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/example/nexkart/internal/utils"
)

// OTPService issues and validates short-lived one-time codes bound to an
// email identifier. Codes are stored bcrypt-hashed with at most one live
// record per identifier.
//
// Verify checks expiry without deleting the record; the consumer that
// completes its downstream action (signup finalize, order promotion,
// password-reset verification) calls Consume. For the reset-password flow the
// record's absence is the proof of prior verification.
type OTPService struct {
	store    OtpStore
	notifier Notifier
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
}

// NewOTPService constructs an OTPService. TTL and cooldown come from
// configuration rather than package state.
func NewOTPService(store OtpStore, notifier Notifier, ttl, cooldown time.Duration) *OTPService {
	return &OTPService{
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Issue generates a code for the identifier, upserting any existing record
// and resetting its issue time. Issuance is rejected while a live record is
// younger than the cooldown. The email dispatch is best-effort: a notifier
// failure never fails the OTP write, since verification must remain possible
// even if the mail is delayed.
func (s *OTPService) Issue(identifier, purpose string) (string, error) {
	if identifier == "" {
		return "", &ValidationError{Msg: "identifier is required"}
	}

	existing, err := s.store.FindByIdentifier(identifier)
	if err != nil && !IsNotFound(err) {
		return "", err
	}

	now := s.now()
	if existing != nil && now.Sub(existing.CreatedAt) < s.cooldown {
		return "", &ConflictError{Msg: "please wait before requesting a new OTP"}
	}

	code, err := generateOtpCode()
	if err != nil {
		return "", err
	}

	hash, err := utils.HashPassword(code)
	if err != nil {
		return "", err
	}

	if err := s.store.Upsert(identifier, hash, purpose, now); err != nil {
		return "", err
	}

	if err := s.notifier.SendOtp(identifier, code, purpose); err != nil {
		log.Printf("[OTP] Failed to send code to %s: %v", identifier, err)
	}

	return code, nil
}

// Verify checks the candidate code against the live record. It fails closed
// when no record exists, rejects records older than the TTL, and compares the
// candidate against the stored bcrypt hash. The record is left in place.
func (s *OTPService) Verify(identifier, candidate string) error {
	if identifier == "" || candidate == "" {
		return &ValidationError{Msg: "identifier and OTP are required"}
	}

	record, err := s.store.FindByIdentifier(identifier)
	if err != nil {
		return err
	}

	if s.now().Sub(record.CreatedAt) > s.ttl {
		return &ConflictError{Msg: "OTP has expired. Please request a new one."}
	}

	if !utils.CheckPassword(record.CodeHash, candidate) {
		return &ConflictError{Msg: "invalid OTP"}
	}

	return nil
}

// Consume deletes the live record for the identifier. Callers invoke it after
// the downstream action the OTP gated has completed.
func (s *OTPService) Consume(identifier string) error {
	return s.store.Delete(identifier)
}

// Exists reports whether a live record is present for the identifier.
func (s *OTPService) Exists(identifier string) (bool, error) {
	_, err := s.store.FindByIdentifier(identifier)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func generateOtpCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
