// Package verification confirms that a user controls a phone number.
// A short numeric code is sent to the phone; entering it yields a one-time
// token other requests can present as proof.
package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"companion-booking-backend/internal/parse"
)

var (
	// ErrInvalidPhone is returned for numbers that are not Korean mobile numbers.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidCode is returned when the code is wrong, expired or was never sent.
	ErrInvalidCode = errors.New("invalid or expired verification code")
	// ErrInvalidToken is returned when a verification token is unknown or already used.
	ErrInvalidToken = errors.New("invalid or expired verification token")
)

const codeDigits = 6

// Sender delivers a code to a phone, typically over SMS.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending them. For development only.
type LogSender struct{}

func (LogSender) SendCode(_ context.Context, phone, code string) error {
	log.Info().Str("phone", phone).Str("code", code).Msg("verification code issued")
	return nil
}

// Options configures a Service.
type Options struct {
	CodeTTL  time.Duration
	TokenTTL time.Duration
	// DevCode, when set, is accepted for any phone with a pending code.
	DevCode string
}

// Service issues and checks verification codes.
type Service struct {
	store  Store
	sender Sender
	opts   Options
}

// NewService creates a verification service.
func NewService(store Store, sender Sender, opts Options) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 3 * time.Minute
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 10 * time.Minute
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Service{store: store, sender: sender, opts: opts}
}

// SendCode issues a fresh code for the phone, replacing any earlier one.
// It returns the normalized phone and how long the code stays valid.
func (s *Service) SendCode(ctx context.Context, rawPhone string) (string, time.Duration, error) {
	phone, err := parse.NormalizePhone(rawPhone)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}

	code, err := randomCode(codeDigits)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.store.Set(ctx, codeKey(phone), string(hash), s.opts.CodeTTL); err != nil {
		return "", 0, err
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		_ = s.store.Delete(ctx, codeKey(phone))
		return "", 0, fmt.Errorf("failed to send code: %w", err)
	}
	return phone, s.opts.CodeTTL, nil
}

// VerifyCode checks a code and, on success, consumes it and returns a one-time token.
func (s *Service) VerifyCode(ctx context.Context, rawPhone, code string) (string, error) {
	phone, err := parse.NormalizePhone(rawPhone)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}

	hash, err := s.store.Get(ctx, codeKey(phone))
	if errors.Is(err, ErrMissing) {
		return "", ErrInvalidCode
	}
	if err != nil {
		return "", err
	}

	devMatch := s.opts.DevCode != "" && code == s.opts.DevCode
	if !devMatch && bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return "", ErrInvalidCode
	}
	if err := s.store.Delete(ctx, codeKey(phone)); err != nil {
		return "", err
	}

	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.store.Set(ctx, tokenKey(token), phone, s.opts.TokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeToken returns the phone a token was issued for and invalidates the token.
// Concurrent calls with one token succeed at most once.
func (s *Service) ConsumeToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	phone, err := s.store.Take(ctx, tokenKey(token))
	if errors.Is(err, ErrMissing) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return phone, nil
}

func codeKey(phone string) string  { return "code:" + phone }
func tokenKey(token string) string { return "token:" + token }

func randomCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
