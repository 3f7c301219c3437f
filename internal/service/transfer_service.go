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
	ErrTransferTooSmall  = errors.New("transfer below minimum")
	ErrTransferTooLarge  = errors.New("transfer exceeds per-transfer limit")
	ErrDailyCapExceeded  = errors.New("daily transfer limit reached")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrRecipientNotFound = errors.New("no user with that mobile number")
)

type TransferService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	walletRepo   *repository.WalletRepository
	ledgerRepo   *repository.LedgerRepository
	userRepo     *repository.UserRepository
	transferRepo *repository.TransferRepository
	outboxRepo   *repository.OutboxRepository
}

func NewTransferService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *TransferService {
	return &TransferService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		walletRepo:   repository.NewWalletRepository(db),
		ledgerRepo:   repository.NewLedgerRepository(db),
		userRepo:     repository.NewUserRepository(db),
		transferRepo: repository.NewTransferRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

type TransferResult struct {
	TxnID     string          `json:"txn_id"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transfer moves amount from sender to the user holding mobile. Both wallet
// writes, both ledger entries and the daily-cap bump commit in one
// transaction. The daily cap counts calendar days in server time.
func (s *TransferService) Transfer(ctx context.Context, sender string, mobile string, amount decimal.Decimal) (*TransferResult, error) {
	minTransfer := decimal.NewFromFloat(s.cfg.Business.MinTransfer)
	maxDaily := decimal.NewFromFloat(s.cfg.Business.MaxDailyTransfer)

	if amount.LessThan(minTransfer) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrTransferTooSmall, minTransfer.StringFixed(2))
	}
	if amount.GreaterThan(maxDaily) {
		return nil, fmt.Errorf("%w: maximum is %s", ErrTransferTooLarge, maxDaily.StringFixed(2))
	}

	senderUser, err := s.userRepo.GetByUsername(ctx, sender)
	if err != nil {
		return nil, err
	}
	if !senderUser.CanTransact() {
		return nil, ErrAccountFrozen
	}
	if senderUser.Mobile == mobile {
		return nil, ErrSelfTransfer
	}

	recipient, err := s.userRepo.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if recipient.Username == senderUser.Username {
		return nil, ErrSelfTransfer
	}

	walletLock := lock.NewWalletLock(s.redisClient, senderUser.Username)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	// The day total is read under the sender's wallet lock; the cap check
	// and the AddToDay bump serialize per sender.
	day := time.Now().Format("2006-01-02")
	sentToday, err := s.transferRepo.DayTotal(ctx, senderUser.Username, day)
	if err != nil {
		return nil, err
	}
	if !dailyCapAllows(sentToday, amount, maxDaily) {
		return nil, fmt.Errorf("%w: %s of %s already sent today",
			ErrDailyCapExceeded, sentToday.StringFixed(2), maxDaily.StringFixed(2))
	}

	senderWallet, err := s.walletRepo.GetOrCreate(ctx, senderUser.Username)
	if err != nil {
		return nil, err
	}
	if senderWallet.Balance.LessThan(amount) {
		return nil, repository.ErrInsufficientFunds
	}

	recipientWallet, err := s.walletRepo.GetOrCreate(ctx, recipient.Username)
	if err != nil {
		return nil, err
	}

	txnID := fmt.Sprintf("%d", idgen.NextID())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Deduct(ctx, tx, senderUser.Username, amount, senderWallet.Version); err != nil {
			return err
		}
		if err := s.walletRepo.Increase(ctx, tx, recipient.Username, amount); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         "TRANSFER_SENT_" + txnID,
			Username:      senderUser.Username,
			Type:          model.EntryTypeDebit,
			Amount:        amount,
			Note:          "Transfer to " + recipient.Username,
			BalanceBefore: senderWallet.Balance,
			BalanceAfter:  senderWallet.Balance.Sub(amount),
		}); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         "TRANSFER_RECEIVED_" + txnID,
			Username:      recipient.Username,
			Type:          model.EntryTypeCredit,
			Amount:        amount,
			Note:          "Transfer from " + senderUser.Username,
			BalanceBefore: recipientWallet.Balance,
			BalanceAfter:  recipientWallet.Balance.Add(amount),
		}); err != nil {
			return err
		}
		if err := s.transferRepo.AddToDay(ctx, tx, senderUser.Username, day, amount); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"event":  "transfer",
			"from":   senderUser.Username,
			"to":     recipient.Username,
			"amount": amount.StringFixed(2),
			"txn_id": txnID,
			"at":     time.Now().Format(time.RFC3339),
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

	logger.Infow("transfer settled",
		"from", senderUser.Username, "to", recipient.Username,
		"amount", amount.StringFixed(2), "txnID", txnID)

	return &TransferResult{TxnID: txnID, Recipient: recipient.Username, Amount: amount}, nil
}

// dailyCapAllows reports whether a transfer of amount still fits under the
// daily cap given what the sender has already sent today.
func dailyCapAllows(sentToday, amount, cap decimal.Decimal) bool {
	return !sentToday.Add(amount).GreaterThan(cap)
}

type BulkTransferItem struct {
	Mobile string          `json:"mobile"`
	TxnID  string          `json:"txn_id,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Error  string          `json:"error,omitempty"`
}

// BulkTransfer sends the same amount to each mobile in turn. Every recipient
// settles independently so one bad number does not void the batch; the
// per-recipient outcome is reported back.
func (s *TransferService) BulkTransfer(ctx context.Context, sender string, mobiles []string, amount decimal.Decimal) []BulkTransferItem {
	results := make([]BulkTransferItem, 0, len(mobiles))
	for _, mobile := range mobiles {
		item := BulkTransferItem{Mobile: mobile, Amount: amount}
		result, err := s.Transfer(ctx, sender, mobile, amount)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.TxnID = result.TxnID
		}
		results = append(results, item)
	}
	return results
}
