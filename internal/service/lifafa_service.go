package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/infrastructure/lock"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/pkg/idgen"
	"nextearnx/pkg/logger"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrPerClaimTooSmall = errors.New("per-claim amount must be at least 0.01")
	ErrCountTooSmall    = errors.New("claim count must be at least 2")
	ErrTotalTooSmall    = errors.New("total amount below minimum")
	ErrNotCreator       = errors.New("lifafa belongs to another user")
	ErrLifafaNotOpen    = errors.New("lifafa is no longer open")
)

// RequirementsNotMetError reports a rejected claim together with the verdict
// of every gate, so the caller can show which gate blocked it.
type RequirementsNotMetError struct {
	Eligibility *Eligibility
}

func (e *RequirementsNotMetError) Error() string { return "claim requirements not met" }

type LifafaService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	lifafaRepo   *repository.LifafaRepository
	walletRepo   *repository.WalletRepository
	ledgerRepo   *repository.LedgerRepository
	userRepo     *repository.UserRepository
	outboxRepo   *repository.OutboxRepository
	settings     *SettingsService
	requirements *RequirementService
}

func NewLifafaService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, settings *SettingsService, requirements *RequirementService) *LifafaService {
	return &LifafaService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		lifafaRepo:   repository.NewLifafaRepository(db),
		walletRepo:   repository.NewWalletRepository(db),
		ledgerRepo:   repository.NewLedgerRepository(db),
		userRepo:     repository.NewUserRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
		settings:     settings,
		requirements: requirements,
	}
}

type CreateLifafaParams struct {
	Title        string          `json:"title"`
	Comment      string          `json:"comment"`
	RedirectLink string          `json:"redirect_link"`
	Type         string          `json:"type"`
	PerClaim     decimal.Decimal `json:"per_claim"`
	Count        int             `json:"count"`
	AccessCode   string          `json:"access_code"`
	SpecialUsers []string        `json:"special_users"`
	Channels     []string        `json:"channels"`
	YouTube      string          `json:"youtube"`
	Referrals    int             `json:"referrals"`
}

// Create validates the params, debits the creator's wallet for the full
// amount and inserts the lifafa, all under the creator's wallet lock.
// Interrupted validation must leave nothing behind, so the debit and the
// insert share one transaction.
func (s *LifafaService) Create(ctx context.Context, username string, params *CreateLifafaParams) (*model.Lifafa, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PerClaim.LessThan(decimal.New(1, -2)) {
		return nil, ErrPerClaimTooSmall
	}
	if params.Count < 2 {
		return nil, ErrCountTooSmall
	}

	total := params.PerClaim.Mul(decimal.NewFromInt(int64(params.Count)))
	minTotal := decimal.NewFromFloat(s.cfg.Business.MinLifafaTotal)
	if total.LessThan(minTotal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrTotalTooSmall, minTotal.StringFixed(2))
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

	lifafa := &model.Lifafa{
		Creator:      user.Username,
		Type:         params.Type,
		Title:        strings.TrimSpace(params.Title),
		Comment:      params.Comment,
		RedirectLink: params.RedirectLink,
		TotalAmount:  total,
		Count:        params.Count,
		PerClaim:     params.PerClaim,
		Status:       model.LifafaStatusOpen,
	}
	if lifafa.Type == "" {
		lifafa.Type = model.LifafaTypeNormal
	}
	if params.AccessCode != "" {
		code := params.AccessCode
		lifafa.AccessCode = &code
	}
	if len(params.SpecialUsers) > 0 {
		specialBytes, err := json.Marshal(params.SpecialUsers)
		if err != nil {
			return nil, err
		}
		lifafa.SpecialUsers = datatypes.JSON(specialBytes)
	}

	// Global channels are snapshotted in at creation so a later settings
	// change never alters the gates of an existing lifafa.
	reqs := model.LifafaRequirements{
		Channels:  append(append([]string{}, settings.TelegramChannels...), params.Channels...),
		YouTube:   params.YouTube,
		Referrals: params.Referrals,
	}
	if len(reqs.Channels) > 0 || reqs.YouTube != "" || reqs.Referrals > 0 {
		reqBytes, err := json.Marshal(reqs)
		if err != nil {
			return nil, err
		}
		lifafa.Requirements = datatypes.JSON(reqBytes)
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
	if wallet.Balance.LessThan(total) {
		return nil, repository.ErrInsufficientFunds
	}

	// The code embeds a millisecond suffix; retry on the rare collision.
	for attempt := 0; attempt < 3; attempt++ {
		lifafa.Code = idgen.GenerateLifafaCode(user.Username)

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.lifafaRepo.Create(ctx, tx, lifafa); err != nil {
				return err
			}
			if err := s.walletRepo.Deduct(ctx, tx, user.Username, total, wallet.Version); err != nil {
				return err
			}
			if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
				TxnID:         "LIFAFA_CREATE_" + lifafa.Code,
				Username:      user.Username,
				Type:          model.EntryTypeDebit,
				Amount:        total,
				Note:          "Created Lifafa " + lifafa.Code,
				BalanceBefore: wallet.Balance,
				BalanceAfter:  wallet.Balance.Sub(total),
			}); err != nil {
				return err
			}
			return s.emitLifafaEvent(ctx, tx, lifafa.Code, "created", user.Username, total)
		})
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	logger.Infow("lifafa created",
		"code", lifafa.Code, "creator", user.Username,
		"total", total.StringFixed(2), "count", lifafa.Count)
	return lifafa, nil
}

// View returns a claimant's view of a lifafa: the row plus the verdict of
// every gate, without settling anything.
func (s *LifafaService) View(ctx context.Context, code, username, submittedCode string) (*model.Lifafa, *Eligibility, error) {
	lifafa, err := s.lifafaRepo.GetVisibleByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	eligibility, err := s.requirements.Evaluate(ctx, lifafa, user, submittedCode)
	if err != nil {
		return nil, nil, err
	}
	return lifafa, eligibility, nil
}

type ClaimResult struct {
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Redirect   string          `json:"redirect,omitempty"`
}

// Claim settles one slot for username. The lifafa lock serializes claims per
// code; the guarded slot bump in AddClaim backstops it. The lifafa is closed
// in the same transaction when the last slot goes.
func (s *LifafaService) Claim(ctx context.Context, code, username, submittedCode string) (*ClaimResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.CanTransact() {
		return nil, ErrAccountFrozen
	}

	lifafaLock := lock.NewLifafaLock(s.redisClient, code)
	if err := lifafaLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer lifafaLock.Unlock(ctx)

	lifafa, err := s.lifafaRepo.GetVisibleByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if lifafa.Status != model.LifafaStatusOpen {
		return nil, ErrLifafaNotOpen
	}
	if lifafa.IsFull() {
		return nil, repository.ErrLifafaFull
	}

	eligibility, err := s.requirements.Evaluate(ctx, lifafa, user, submittedCode)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanClaim {
		return nil, &RequirementsNotMetError{Eligibility: eligibility}
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

	lastSlot := lifafa.ClaimedCount+1 >= lifafa.Count

	// One ledger id per settled claim; claims of the same lifafa are distinct
	// transactions and must survive the audit view's de-duplication.
	claimTxnID := fmt.Sprintf("LIFAFA_CLAIM_%s_%d", lifafa.Code, idgen.NextID())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lifafaRepo.AddClaim(ctx, tx, &model.LifafaClaim{
			LifafaCode: lifafa.Code,
			Username:   user.Username,
			Amount:     lifafa.PerClaim,
		}); err != nil {
			return err
		}
		if err := s.walletRepo.Increase(ctx, tx, user.Username, lifafa.PerClaim); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
			TxnID:         claimTxnID,
			Username:      user.Username,
			Type:          model.EntryTypeCredit,
			Amount:        lifafa.PerClaim,
			Note:          "Claimed Lifafa " + lifafa.Code,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Add(lifafa.PerClaim),
		}); err != nil {
			return err
		}
		if lastSlot {
			if err := s.lifafaRepo.UpdateStatus(ctx, tx, lifafa.Code, model.LifafaStatusOpen, model.LifafaStatusClosed); err != nil {
				return err
			}
		}
		return s.emitLifafaEvent(ctx, tx, lifafa.Code, "claimed", user.Username, lifafa.PerClaim)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("lifafa claimed", "code", lifafa.Code, "username", user.Username, "amount", lifafa.PerClaim.StringFixed(2))

	return &ClaimResult{
		Code:       lifafa.Code,
		Amount:     lifafa.PerClaim,
		NewBalance: wallet.Balance.Add(lifafa.PerClaim),
		Redirect:   lifafa.RedirectLink,
	}, nil
}

type RefundResult struct {
	Code     string          `json:"code"`
	Refunded decimal.Decimal `json:"refunded"`
}

// Refund closes an open lifafa and returns the unclaimed remainder to its
// creator. Refunded lifafas stay in storage but disappear from claim lookups.
func (s *LifafaService) Refund(ctx context.Context, code, username string) (*RefundResult, error) {
	lifafaLock := lock.NewLifafaLock(s.redisClient, code)
	if err := lifafaLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer lifafaLock.Unlock(ctx)

	lifafa, err := s.lifafaRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(lifafa.Creator, username) {
		return nil, ErrNotCreator
	}
	if lifafa.Status != model.LifafaStatusOpen {
		return nil, ErrLifafaNotOpen
	}

	remaining := lifafa.RemainingAmount()

	walletLock := lock.NewWalletLock(s.redisClient, lifafa.Creator)
	if err := walletLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("system busy, retry later: %w", err)
	}
	defer walletLock.Unlock(ctx)

	wallet, err := s.walletRepo.GetOrCreate(ctx, lifafa.Creator)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lifafaRepo.UpdateStatus(ctx, tx, lifafa.Code, model.LifafaStatusOpen, model.LifafaStatusRefunded); err != nil {
			return err
		}
		if remaining.IsPositive() {
			if err := s.walletRepo.Increase(ctx, tx, lifafa.Creator, remaining); err != nil {
				return err
			}
			if err := s.ledgerRepo.Create(ctx, tx, &model.LedgerEntry{
				TxnID:         "LIFAFA_REFUND_" + lifafa.Code,
				Username:      lifafa.Creator,
				Type:          model.EntryTypeCredit,
				Amount:        remaining,
				Note:          "Refund of Lifafa " + lifafa.Code,
				BalanceBefore: wallet.Balance,
				BalanceAfter:  wallet.Balance.Add(remaining),
			}); err != nil {
				return err
			}
		}
		return s.emitLifafaEvent(ctx, tx, lifafa.Code, "refunded", lifafa.Creator, remaining)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("lifafa refunded", "code", lifafa.Code, "creator", lifafa.Creator, "refunded", remaining.StringFixed(2))
	return &RefundResult{Code: lifafa.Code, Refunded: remaining}, nil
}

// RefundAll refunds every open lifafa the user created, one at a time so a
// single failure does not abort the rest.
func (s *LifafaService) RefundAll(ctx context.Context, username string) ([]*RefundResult, error) {
	open, err := s.lifafaRepo.ListOpenByCreator(ctx, username)
	if err != nil {
		return nil, err
	}

	results := make([]*RefundResult, 0, len(open))
	for _, lifafa := range open {
		result, err := s.Refund(ctx, lifafa.Code, username)
		if err != nil {
			logger.Errorw("refund failed during refund-all", "code", lifafa.Code, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// ListMine returns the user's lifafas, claim rows included for open ones.
func (s *LifafaService) ListMine(ctx context.Context, username string) ([]*model.Lifafa, error) {
	return s.lifafaRepo.ListByCreator(ctx, username)
}

func (s *LifafaService) ListClaims(ctx context.Context, code, username string) ([]*model.LifafaClaim, error) {
	lifafa, err := s.lifafaRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(lifafa.Creator, username) {
		return nil, ErrNotCreator
	}
	return s.lifafaRepo.ListClaims(ctx, code)
}

// SpecialUserCheck reports which of the caller's open lifafas reserve a slot
// for the given mobile number.
func (s *LifafaService) SpecialUserCheck(ctx context.Context, username, mobile string) ([]string, error) {
	open, err := s.lifafaRepo.ListOpenByCreator(ctx, username)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, lifafa := range open {
		special, err := lifafa.GetSpecialUsers()
		if err != nil {
			return nil, err
		}
		for _, m := range special {
			if m == mobile {
				codes = append(codes, lifafa.Code)
				break
			}
		}
	}
	return codes, nil
}

func (s *LifafaService) emitLifafaEvent(ctx context.Context, tx *gorm.DB, code, event, username string, amount decimal.Decimal) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":    event,
		"code":     code,
		"username": username,
		"amount":   amount.StringFixed(2),
		"at":       time.Now().Format(time.RFC3339),
	})
	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: code,
		Topic:      s.cfg.Kafka.Topic.LifafaEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}
