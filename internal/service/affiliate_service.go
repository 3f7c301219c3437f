package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/pkg/idgen"
	"nextearnx/pkg/logger"
)

var (
	ErrWithdrawalTooSmall = errors.New("withdrawal below minimum")
	ErrUPIRequired        = errors.New("upi address is required")
)

type AffiliateService struct {
	db            *gorm.DB
	cfg           *config.Config
	affiliateRepo *repository.AffiliateRepository
	ledgerRepo    *repository.LedgerRepository
}

func NewAffiliateService(db *gorm.DB, cfg *config.Config) *AffiliateService {
	return &AffiliateService{
		db:            db,
		cfg:           cfg,
		affiliateRepo: repository.NewAffiliateRepository(db),
		ledgerRepo:    repository.NewLedgerRepository(db),
	}
}

func (s *AffiliateService) Stats(ctx context.Context, username string) (*model.AffiliateAccount, error) {
	return s.affiliateRepo.GetOrCreate(ctx, username)
}

type WithdrawalResult struct {
	TxnID     string          `json:"txn_id"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Withdraw books a payout request against the affiliate earnings. The ledger
// entry marks the request; actual payout runs outside the system.
func (s *AffiliateService) Withdraw(ctx context.Context, username string, amount decimal.Decimal, upi string) (*WithdrawalResult, error) {
	minWithdrawal := decimal.NewFromFloat(s.cfg.Business.MinWithdrawal)
	if amount.LessThan(minWithdrawal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrWithdrawalTooSmall, minWithdrawal.StringFixed(2))
	}
	if strings.TrimSpace(upi) == "" {
		return nil, ErrUPIRequired
	}

	account, err := s.affiliateRepo.GetOrCreate(ctx, username)
	if err != nil {
		return nil, err
	}
	if account.Earnings.LessThan(amount) {
		return nil, repository.ErrInsufficientEarnings
	}

	txnID := fmt.Sprintf("AFFILIATE_WITHDRAW_%d", idgen.NextID())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.affiliateRepo.DeductEarnings(ctx, tx, username, amount); err != nil {
			return err
		}
		return s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:    txnID,
			Username: username,
			Type:     model.EntryTypeDebit,
			Amount:   amount,
			Note:     "Affiliate payout request to " + upi,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("affiliate withdrawal requested",
		"username", username, "amount", amount.StringFixed(2), "upi", upi)

	return &WithdrawalResult{
		TxnID:     txnID,
		Amount:    amount,
		Remaining: account.Earnings.Sub(amount),
	}, nil
}
