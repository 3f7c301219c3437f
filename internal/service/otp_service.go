package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrOTPExpired = errors.New("otp expired or never requested")
	ErrOTPInvalid = errors.New("wrong otp")
)

// OTP scopes keep signup codes and admin settings codes in separate key
// spaces.
const (
	OTPScopeSignup   = "signup"
	OTPScopeSettings = "settings"
)

type OTPService struct {
	redisClient *redis.Client
}

func NewOTPService(redisClient *redis.Client) *OTPService {
	return &OTPService{redisClient: redisClient}
}

func otpKey(scope, subject string) string {
	return fmt.Sprintf("otp:%s:%s", scope, subject)
}

// Generate issues a fresh 6-digit code for subject, replacing any previous
// one. Delivery is the caller's problem.
func (s *OTPService) Generate(ctx context.Context, scope, subject string, ttl time.Duration) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("otp generation failed: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.redisClient.Set(ctx, otpKey(scope, subject), code, ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the stored one and burns it on success, so a
// code never verifies twice.
func (s *OTPService) Verify(ctx context.Context, scope, subject, code string) error {
	key := otpKey(scope, subject)
	stored, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrOTPExpired
		}
		return err
	}
	if stored != code {
		return ErrOTPInvalid
	}
	return s.redisClient.Del(ctx, key).Err()
}
