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
	"nextearnx/internal/verify"
	"nextearnx/pkg/idgen"
	"nextearnx/pkg/logger"
)

var (
	ErrAccountFrozen     = errors.New("account is frozen or banned")
	ErrDepositTooSmall   = errors.New("deposit below minimum")
	ErrPaymentRejected   = errors.New("payment could not be verified")
	ErrAmountNotPositive = errors.New("amount must be positive")
)

type WalletService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	walletRepo  *repository.WalletRepository
	ledgerRepo  *repository.LedgerRepository
	userRepo    *repository.UserRepository
	outboxRepo  *repository.OutboxRepository
	settings    *SettingsService
	verifier    verify.PaymentVerifier
}

func NewWalletService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, settings *SettingsService, verifier verify.PaymentVerifier) *WalletService {
	return &WalletService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		walletRepo:  repository.NewWalletRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		userRepo:    repository.NewUserRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		settings:    settings,
		verifier:    verifier,
	}
}

// GetBalance returns the principal's balance, 0.00 when no wallet exists.
func (s *WalletService) GetBalance(ctx context.Context, username string) (decimal.Decimal, error) {
	wallet, err := s.walletRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *WalletService) GetHistory(ctx context.Context, username string, page, pageSize int) ([]*model.LedgerEntry, int64, error) {
	return s.ledgerRepo.ListByUsername(ctx, username, page, pageSize)
}

type DepositResult struct {
	TxnID      string          `json:"txn_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// Deposit credits the wallet after the payment verifier accepts the submitted
// transaction id. Minimum amount comes from global settings.
func (s *WalletService) Deposit(ctx context.Context, username string, amount decimal.Decimal, txnID string) (*DepositResult, error) {
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
	if amount.LessThan(settings.MinDeposit) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrDepositTooSmall, settings.MinDeposit.StringFixed(2))
	}

	ok, err := s.verifier.Verify(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	if !ok {
		return nil, ErrPaymentRejected
	}

	walletLock := lock.NewWalletLock(s.redisClient, user.Username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, user.Username)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(amount)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Increase(ctx, tx, user.Username, amount); err != nil {
			return err
		}

		entry := &model.LedgerEntry{
			TxnID:         "DEPOSIT_" + txnID,
			Username:      user.Username,
			Type:          model.EntryTypeCredit,
			Amount:        amount,
			Note:          "Wallet Deposit via UPI",
			BalanceBefore: wallet.Balance,
			BalanceAfter:  newBalance,
		}
		if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, s.cfg.Kafka.Topic.WalletEvents, txnID, map[string]interface{}{
			"event":    "deposit",
			"username": user.Username,
			"amount":   amount.StringFixed(2),
			"txn_id":   txnID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("deposit settled", "username", user.Username, "amount", amount.StringFixed(2), "txnID", txnID)

	return &DepositResult{TxnID: txnID, Amount: amount, NewBalance: newBalance}, nil
}

// Credit is the admin-facing manual credit: no validation beyond a positive
// amount, writes through the same wallet and ledger as everything else.
func (s *WalletService) Credit(ctx context.Context, username string, amount decimal.Decimal, txnID, note string) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}

	walletLock := lock.NewWalletLock(s.redisClient, username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, username)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Increase(ctx, tx, username, amount); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         txnID,
			Username:      username,
			Type:          model.EntryTypeCredit,
			Amount:        amount,
			Note:          note,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Add(amount),
		}); err != nil {
			return err
		}
		return s.emitEvent(ctx, tx, s.cfg.Kafka.Topic.WalletEvents, txnID, map[string]interface{}{
			"event":    "admin_credit",
			"username": username,
			"amount":   amount.StringFixed(2),
			"txn_id":   txnID,
		})
	})
}

// Debit is the admin-facing manual debit; fails when the balance does not
// cover the amount.
func (s *WalletService) Debit(ctx context.Context, username string, amount decimal.Decimal, txnID, note string) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}

	walletLock := lock.NewWalletLock(s.redisClient, username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, username)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Deduct(ctx, tx, username, amount, wallet.Version); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         txnID,
			Username:      username,
			Type:          model.EntryTypeDebit,
			Amount:        amount,
			Note:          note,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Sub(amount),
		}); err != nil {
			return err
		}
		return s.emitEvent(ctx, tx, s.cfg.Kafka.Topic.WalletEvents, txnID, map[string]interface{}{
			"event":    "admin_debit",
			"username": username,
			"amount":   amount.StringFixed(2),
			"txn_id":   txnID,
		})
	})
}

// emitEvent writes a notification row into the outbox inside the caller's
// transaction; the sender job publishes it to kafka afterwards.
func (s *WalletService) emitEvent(ctx context.Context, tx *gorm.DB, topic, key string, payload map[string]interface{}) error {
	payload["at"] = time.Now().Format(time.RFC3339)
	payloadBytes, _ := json.Marshal(payload)
	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	})
}

// NewAdjustmentTxnID builds the ADMIN_<TYPE>_<id> ledger ids the audit view
// keys on.
func NewAdjustmentTxnID(entryType string) string {
	return fmt.Sprintf("ADMIN_%s_%d", map[string]string{
		model.EntryTypeCredit: "CREDIT",
		model.EntryTypeDebit:  "DEBIT",
	}[entryType], idgen.NextID())
}
