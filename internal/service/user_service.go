package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/pkg/logger"
)

var (
	ErrUsernameInvalid  = errors.New("username must be 1-15 letters, digits or underscores")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailInvalid     = errors.New("a valid gmail address is required")
	ErrEmailTaken       = errors.New("email already registered")
	ErrMobileInvalid    = errors.New("mobile must be 10 digits")
	ErrMobileTaken      = errors.New("mobile already registered")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrMobileUnverified = errors.New("mobile not verified")
	ErrBadCredentials   = errors.New("wrong username or password")
	ErrSessionExpired   = errors.New("session expired, log in again")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)
	mobileRegex   = regexp.MustCompile(`^\d{10}$`)
	gmailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@gmail\.com$`)
)

type UserService struct {
	db            *gorm.DB
	redisClient   *redis.Client
	cfg           *config.Config
	userRepo      *repository.UserRepository
	walletRepo    *repository.WalletRepository
	affiliateRepo *repository.AffiliateRepository
	otp           *OTPService
}

func NewUserService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, otp *OTPService) *UserService {
	return &UserService{
		db:            db,
		redisClient:   redisClient,
		cfg:           cfg,
		userRepo:      repository.NewUserRepository(db),
		walletRepo:    repository.NewWalletRepository(db),
		affiliateRepo: repository.NewAffiliateRepository(db),
		otp:           otp,
	}
}

func verifiedMobileKey(mobile string) string {
	return "signup:verified:" + mobile
}

func sessionKey(token string) string {
	return "session:" + token
}

// RequestSignupOTP issues a signup code for an unregistered mobile. The code
// is returned to the caller; delivery channels are out of scope here.
func (s *UserService) RequestSignupOTP(ctx context.Context, mobile string) (string, error) {
	if !mobileRegex.MatchString(mobile) {
		return "", ErrMobileInvalid
	}
	if _, err := s.userRepo.GetByMobile(ctx, mobile); err == nil {
		return "", ErrMobileTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", err
	}

	code, err := s.otp.Generate(ctx, OTPScopeSignup, mobile, s.cfg.Business.SignupOTPTTL)
	if err != nil {
		return "", err
	}
	logger.Infow("signup otp issued", "mobile", mobile)
	return code, nil
}

// VerifySignupOTP burns the code and marks the mobile verified for ten
// minutes, long enough to finish the signup form.
func (s *UserService) VerifySignupOTP(ctx context.Context, mobile, code string) error {
	if err := s.otp.Verify(ctx, OTPScopeSignup, mobile, code); err != nil {
		return err
	}
	return s.redisClient.Set(ctx, verifiedMobileKey(mobile), "1", 10*time.Minute).Err()
}

type SignupParams struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Referrer string `json:"referrer"`
}

// Signup registers a user whose mobile passed OTP verification, creates the
// wallet row, and credits the referrer's affiliate account when a valid
// referrer was named.
func (s *UserService) Signup(ctx context.Context, params *SignupParams) (*model.User, error) {
	if !usernameRegex.MatchString(params.Username) {
		return nil, ErrUsernameInvalid
	}
	if !gmailRegex.MatchString(strings.ToLower(params.Email)) {
		return nil, ErrEmailInvalid
	}
	if !mobileRegex.MatchString(params.Mobile) {
		return nil, ErrMobileInvalid
	}
	if len(params.Password) < 6 {
		return nil, ErrPasswordTooShort
	}

	verified, err := s.redisClient.Exists(ctx, verifiedMobileKey(params.Mobile)).Result()
	if err != nil {
		return nil, err
	}
	if verified == 0 {
		return nil, ErrMobileUnverified
	}

	if _, err := s.userRepo.GetByUsername(ctx, params.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if exists, err := s.userRepo.ExistsByEmail(ctx, strings.ToLower(params.Email)); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailTaken
	}
	if _, err := s.userRepo.GetByMobile(ctx, params.Mobile); err == nil {
		return nil, ErrMobileTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		Username: params.Username,
		Fullname: strings.TrimSpace(params.Fullname),
		Email:    strings.ToLower(params.Email),
		Mobile:   params.Mobile,
		Password: params.Password,
		Status:   model.UserStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		if params.Referrer != "" && !strings.EqualFold(params.Referrer, params.Username) {
			referrer, err := s.userRepo.GetByUsername(ctx, params.Referrer)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return nil
				}
				return err
			}
			if _, err := s.affiliateRepo.GetOrCreate(ctx, referrer.Username); err != nil {
				return err
			}
			bonus := decimal.NewFromFloat(s.cfg.Business.ReferralBonus)
			return s.affiliateRepo.AddReferral(ctx, tx, referrer.Username, bonus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.walletRepo.GetOrCreate(ctx, user.Username); err != nil {
		logger.Errorw("wallet creation after signup failed", "username", user.Username, "error", err)
	}

	s.redisClient.Del(ctx, verifiedMobileKey(params.Mobile))
	logger.Infow("user registered", "username", user.Username)
	return user, nil
}

// Login checks the credentials and opens a redis-backed session.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, err
	}
	if user.Password != password {
		return "", nil, ErrBadCredentials
	}
	if user.Status != model.UserStatusActive {
		return "", nil, ErrAccountFrozen
	}

	token := uuid.NewString()
	if err := s.redisClient.Set(ctx, sessionKey(token), user.Username, s.cfg.Business.SessionTTL).Err(); err != nil {
		return "", nil, err
	}
	logger.Infow("user logged in", "username", user.Username)
	return token, user, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.redisClient.Del(ctx, sessionKey(token)).Err()
}

// GetByToken resolves a session token to its user. Used by the auth
// middleware on every authenticated request.
func (s *UserService) GetByToken(ctx context.Context, token string) (*model.User, error) {
	username, err := s.redisClient.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

type UpdateProfileParams struct {
	Fullname string `json:"fullname"`
	Password string `json:"password"`
}

// UpdateProfile changes the editable profile fields. Empty fields are left
// alone.
func (s *UserService) UpdateProfile(ctx context.Context, username string, params *UpdateProfileParams) error {
	updates := map[string]interface{}{}
	if strings.TrimSpace(params.Fullname) != "" {
		updates["fullname"] = strings.TrimSpace(params.Fullname)
	}
	if params.Password != "" {
		if len(params.Password) < 6 {
			return ErrPasswordTooShort
		}
		updates["password"] = params.Password
	}
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update")
	}
	return s.userRepo.Update(ctx, s.db, username, updates)
}
