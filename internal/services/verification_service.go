package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/logging"
)

const (
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
	otpResendAfter = time.Minute
)

type VerificationStore interface {
	GetOTP(phoneHash string) (*OTP, error)
	PutOTP(o *OTP) error
	DeleteOTP(phoneHash string) error
	MarkPhoneVerified(phoneHash string, at time.Time) error
}

// SMSSender delivers a one-time code. phone is normalized (254XXXXXXXXX).
type SMSSender interface {
	Send(phone, message string) error
}

// LogSender writes codes to the log instead of sending them. Development only.
type LogSender struct{}

func (LogSender) Send(phone, message string) error {
	logging.Info("sms", "to", phone, "body", message)
	return nil
}

type VerificationService struct {
	store   VerificationStore
	hasher  *identifier.Hasher
	sender  SMSSender
	now     func() time.Time
	newCode func() (string, error)
}

func NewVerificationService(store VerificationStore, hasher *identifier.Hasher, sender SMSSender) *VerificationService {
	if sender == nil {
		sender = LogSender{}
	}
	return &VerificationService{
		store:   store,
		hasher:  hasher,
		sender:  sender,
		now:     func() time.Time { return time.Now().UTC() },
		newCode: sixDigitCode,
	}
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Request sends a fresh code to phone. A new request within a minute of the
// previous one is refused.
func (s *VerificationService) Request(phone string) error {
	p, err := identifier.NormalizePhone(phone)
	if err != nil {
		return NewInvalidError("phone number is not a valid Kenyan mobile number")
	}
	h := s.hasher.HashPhone(p)
	now := s.now()
	prev, err := s.store.GetOTP(h)
	if err != nil {
		return err
	}
	if prev != nil && now.Before(prev.ExpiresAt.Add(-otpTTL+otpResendAfter)) {
		return NewTooManyRequestsError("code already sent, try again shortly")
	}
	code, err := s.newCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.PutOTP(&OTP{PhoneHash: h, CodeHash: hash, ExpiresAt: now.Add(otpTTL)}); err != nil {
		return err
	}
	if err := s.sender.Send(p, "Your Scamwatch code is "+code); err != nil {
		return NewBadGatewayError("could not send code")
	}
	return nil
}

func (s *VerificationService) Confirm(phone, code string) error {
	p, err := identifier.NormalizePhone(phone)
	if err != nil {
		return NewInvalidError("phone number is not a valid Kenyan mobile number")
	}
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return NewInvalidError("code must be 6 digits")
	}
	h := s.hasher.HashPhone(p)
	o, err := s.store.GetOTP(h)
	if err != nil {
		return err
	}
	now := s.now()
	if o == nil || !now.Before(o.ExpiresAt) {
		return NewInvalidError("code expired or not requested")
	}
	if o.Attempts >= otpMaxAttempts {
		_ = s.store.DeleteOTP(h)
		return NewTooManyRequestsError("too many attempts")
	}
	if bcrypt.CompareHashAndPassword(o.CodeHash, []byte(code)) != nil {
		o.Attempts++
		if err := s.store.PutOTP(o); err != nil {
			return err
		}
		return NewInvalidError("incorrect code")
	}
	if err := s.store.DeleteOTP(h); err != nil {
		return err
	}
	return s.store.MarkPhoneVerified(h, now)
}
