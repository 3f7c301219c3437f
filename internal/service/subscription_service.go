package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/infrastructure/lock"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/pkg/idgen"
	"nextearnx/pkg/logger"
)

var (
	ErrUnknownPlan   = errors.New("unknown plan")
	ErrFreeTrialUsed = errors.New("free trial already taken")
	ErrAlreadyOnPlan = errors.New("an active subscription exists")
)

type Plan struct {
	Name  string          `json:"name"`
	Days  int             `json:"days"`
	Price decimal.Decimal `json:"price"`
	Free  bool            `json:"free"`
}

type SubscriptionService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	subRepo     *repository.SubscriptionRepository
	userRepo    *repository.UserRepository
	walletRepo  *repository.WalletRepository
	ledgerRepo  *repository.LedgerRepository
	settings    *SettingsService
}

func NewSubscriptionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, settings *SettingsService) *SubscriptionService {
	return &SubscriptionService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		subRepo:     repository.NewSubscriptionRepository(db),
		userRepo:    repository.NewUserRepository(db),
		walletRepo:  repository.NewWalletRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		settings:    settings,
	}
}

// Plans builds the catalog from the settings prices plus the free trial.
// Only plans with a known duration are offered.
func (s *SubscriptionService) Plans(ctx context.Context) ([]Plan, error) {
	settings, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]Plan, 0, len(settings.Prices)+1)
	for _, name := range model.PlanOrder {
		price, priced := settings.Prices[name]
		if !priced {
			continue
		}
		plans = append(plans, Plan{Name: name, Days: model.PlanDays[name], Price: price})
	}
	plans = append(plans, Plan{
		Name: model.PlanFreeTrial,
		Days: model.PlanDays[model.PlanFreeTrial],
		Free: true,
	})
	return plans, nil
}

// Current returns the active subscription, ErrNoSubscription when there is
// none or it lapsed.
func (s *SubscriptionService) Current(ctx context.Context, username string) (*model.Subscription, error) {
	return s.subRepo.GetActive(ctx, username, time.Now())
}

// Purchase buys a plan from the wallet. The free trial skips the debit but
// still writes the subscription row and flips the once-only flag, all in one
// transaction so a crash cannot spend the trial without granting it.
func (s *SubscriptionService) Purchase(ctx context.Context, username, planName string) (*model.Subscription, error) {
	days, known := model.PlanDays[planName]
	if !known {
		return nil, ErrUnknownPlan
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.CanTransact() {
		return nil, ErrAccountFrozen
	}

	if _, err := s.subRepo.GetActive(ctx, user.Username, time.Now()); err == nil {
		return nil, ErrAlreadyOnPlan
	} else if !errors.Is(err, repository.ErrNoSubscription) {
		return nil, err
	}

	now := time.Now()
	sub := &model.Subscription{
		Username:    user.Username,
		Plan:        planName,
		PurchasedAt: now,
		ExpiresAt:   now.AddDate(0, 0, days),
	}

	if planName == model.PlanFreeTrial {
		if user.HasTakenFreeTrial {
			return nil, ErrFreeTrialUsed
		}
		sub.Price = decimal.Zero
		sub.TxnID = fmt.Sprintf("FREE_TRIAL_%d", idgen.NextID())

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.userRepo.Update(ctx, tx, user.Username, map[string]interface{}{
				"has_taken_free_trial": true,
				"plan":                 planName,
				"plan_expiry":          sub.ExpiresAt,
			}); err != nil {
				return err
			}
			return s.subRepo.Upsert(ctx, tx, sub)
		})
		if err != nil {
			return nil, err
		}
		logger.Infow("free trial started", "username", user.Username)
		return sub, nil
	}

	settings, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	price, priced := settings.Prices[planName]
	if !priced {
		return nil, ErrUnknownPlan
	}
	sub.Price = price
	sub.TxnID = fmt.Sprintf("WALLET_PAY_%d", idgen.NextID())

	walletLock := lock.NewWalletLock(s.redisClient, user.Username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(price) {
		return nil, repository.ErrInsufficientFunds
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Deduct(ctx, tx, user.Username, price, wallet.Version); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         sub.TxnID,
			Username:      user.Username,
			Type:          model.EntryTypeDebit,
			Amount:        price,
			Note:          "Subscription: " + planName,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Sub(price),
		}); err != nil {
			return err
		}
		if err := s.userRepo.Update(ctx, tx, user.Username, map[string]interface{}{
			"plan":        planName,
			"plan_expiry": sub.ExpiresAt,
		}); err != nil {
			return err
		}
		return s.subRepo.Upsert(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("subscription purchased",
		"username", user.Username, "plan", planName, "price", price.StringFixed(2))
	return sub, nil
}
