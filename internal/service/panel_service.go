package service

import (
	"context"
	"encoding/json"
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
	ErrTargetRequired   = errors.New("target is required")
	ErrQuantityTooSmall = errors.New("quantity must be at least 1")
)

// PanelService runs the instant panel: paid service orders billed per unit
// at the price the admin sets in global settings.
type PanelService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	walletRepo  *repository.WalletRepository
	ledgerRepo  *repository.LedgerRepository
	userRepo    *repository.UserRepository
	outboxRepo  *repository.OutboxRepository
	settings    *SettingsService
}

func NewPanelService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, settings *SettingsService) *PanelService {
	return &PanelService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		walletRepo:  repository.NewWalletRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		userRepo:    repository.NewUserRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		settings:    settings,
	}
}

type PanelOrderResult struct {
	TxnID      string          `json:"txn_id"`
	Target     string          `json:"target"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// PlaceOrder debits quantity times the current unit price from the caller's
// wallet and books the order as a ledger debit.
func (s *PanelService) PlaceOrder(ctx context.Context, username, target string, quantity int) (*PanelOrderResult, error) {
	if target == "" {
		return nil, ErrTargetRequired
	}
	if quantity < 1 {
		return nil, ErrQuantityTooSmall
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.CanTransact() {
		return nil, ErrAccountFrozen
	}

	settings, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	total := orderCost(settings.InstantPanelPrice, quantity)

	walletLock := lock.NewWalletLock(s.redisClient, user.Username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(total) {
		return nil, repository.ErrInsufficientFunds
	}

	txnID := "SERVICE_" + idgen.GenerateTransactionNo()
	newBalance := wallet.Balance.Sub(total)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Deduct(ctx, tx, user.Username, total, wallet.Version); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         txnID,
			Username:      user.Username,
			Type:          model.EntryTypeDebit,
			Amount:        total,
			Note:          fmt.Sprintf("Instant Panel Service: %d units for %s", quantity, target),
			BalanceBefore: wallet.Balance,
			BalanceAfter:  newBalance,
		}); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"event":    "panel_order",
			"username": user.Username,
			"target":   target,
			"quantity": quantity,
			"total":    total.StringFixed(2),
			"txn_id":   txnID,
			"at":       time.Now().Format(time.RFC3339),
		})
		return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
			MessageKey: txnID,
			Topic:      s.cfg.Kafka.Topic.WalletEvents,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("panel order placed",
		"username", user.Username, "target", target,
		"quantity", quantity, "total", total.StringFixed(2), "txnID", txnID)

	return &PanelOrderResult{
		TxnID:      txnID,
		Target:     target,
		Quantity:   quantity,
		UnitPrice:  settings.InstantPanelPrice,
		Total:      total,
		NewBalance: newBalance,
	}, nil
}

func orderCost(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
