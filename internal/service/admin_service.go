package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
	ErrAdminBadCredentials = errors.New("wrong admin credentials")
	ErrAdminSessionExpired = errors.New("admin session expired")
	ErrUnknownStatus       = errors.New("unknown user status")
	ErrUnknownAction       = errors.New("unknown adjustment action")
)

type AdminService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	userRepo    *repository.UserRepository
	ledgerRepo  *repository.LedgerRepository
	lifafaRepo  *repository.LifafaRepository
	wallet      *WalletService
	otp         *OTPService
}

func NewAdminService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, wallet *WalletService, otp *OTPService) *AdminService {
	return &AdminService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		lifafaRepo:  repository.NewLifafaRepository(db),
		wallet:      wallet,
		otp:         otp,
	}
}

func adminSessionKey(token string) string {
	return "admin:session:" + token
}

// Login checks the configured console credentials and opens an admin session.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, error) {
	if username != s.cfg.Admin.Username || password != s.cfg.Admin.Password {
		return "", ErrAdminBadCredentials
	}
	token := uuid.NewString()
	if err := s.redisClient.Set(ctx, adminSessionKey(token), username, s.cfg.Business.SessionTTL).Err(); err != nil {
		return "", err
	}
	logger.Infow("admin logged in")
	return token, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	return s.redisClient.Del(ctx, adminSessionKey(token)).Err()
}

// CheckToken validates an admin session token. Used by the admin auth
// middleware.
func (s *AdminService) CheckToken(ctx context.Context, token string) error {
	err := s.redisClient.Get(ctx, adminSessionKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return ErrAdminSessionExpired
	}
	return err
}

func (s *AdminService) ListUsers(ctx context.Context, query string) ([]*model.User, error) {
	return s.userRepo.Search(ctx, query)
}

type AdminUpdateUserParams struct {
	Password   string     `json:"password"`
	Status     string     `json:"status"`
	Plan       *string    `json:"plan"`
	PlanExpiry *time.Time `json:"plan_expiry"`
}

// UpdateUser applies the console's user edits. Empty fields are left alone;
// Plan pointing at an empty string clears the plan.
func (s *AdminService) UpdateUser(ctx context.Context, username string, params *AdminUpdateUserParams) error {
	updates := map[string]interface{}{}
	if params.Password != "" {
		if len(params.Password) < 6 {
			return ErrPasswordTooShort
		}
		updates["password"] = params.Password
	}
	if params.Status != "" {
		switch params.Status {
		case model.UserStatusActive, model.UserStatusFrozen, model.UserStatusBanned:
			updates["status"] = params.Status
		default:
			return ErrUnknownStatus
		}
	}
	if params.Plan != nil {
		if *params.Plan == "" {
			updates["plan"] = nil
			updates["plan_expiry"] = nil
		} else {
			if _, known := model.PlanDays[*params.Plan]; !known {
				return ErrUnknownPlan
			}
			updates["plan"] = *params.Plan
			updates["plan_expiry"] = params.PlanExpiry
		}
	}
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update")
	}
	if err := s.userRepo.Update(ctx, s.db, username, updates); err != nil {
		return err
	}
	logger.Infow("admin updated user", "username", username)
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}
	logger.Warnw("admin deleted user", "username", username)
	return nil
}

// AdjustBalance is the console's manual credit/debit.
func (s *AdminService) AdjustBalance(ctx context.Context, username, action string, amount decimal.Decimal, note string) error {
	if note == "" {
		note = "Admin adjustment"
	}
	switch action {
	case "credit":
		return s.wallet.Credit(ctx, username, amount, NewAdjustmentTxnID(model.EntryTypeCredit), note)
	case "debit":
		return s.wallet.Debit(ctx, username, amount, NewAdjustmentTxnID(model.EntryTypeDebit), note)
	default:
		return ErrUnknownAction
	}
}

// RequestSettingsOTP issues the code that guards settings updates. It is
// returned to the requesting session, never stored elsewhere.
func (s *AdminService) RequestSettingsOTP(ctx context.Context) (string, error) {
	return s.otp.Generate(ctx, OTPScopeSettings, "console", s.cfg.Business.SettingsOTPTTL)
}

// VerifySettingsOTP burns the settings code; callers update settings only
// after this succeeds.
func (s *AdminService) VerifySettingsOTP(ctx context.Context, code string) error {
	return s.otp.Verify(ctx, OTPScopeSettings, "console", code)
}

// DedupEntries collapses ledger rows that agree on transaction id, type and
// amount, keeping the first occurrence. The console's audit view merges every
// principal's history, where a transfer shows up once per side under
// different ids but a replayed event shows up twice under the same one.
func DedupEntries(entries []*model.LedgerEntry) []*model.LedgerEntry {
	type key struct {
		txnID  string
		typ    string
		amount string
	}
	seen := make(map[key]struct{}, len(entries))
	out := make([]*model.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		k := key{entry.TxnID, entry.Type, entry.Amount.StringFixed(2)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// Audit returns the merged, de-duplicated ledger, newest first, optionally
// filtered by entry type and a free-text query over id, note and username.
func (s *AdminService) Audit(ctx context.Context, typeFilter, query string) ([]*model.LedgerEntry, error) {
	entries, err := s.ledgerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	entries = DedupEntries(entries)

	if typeFilter == "" && query == "" {
		return entries, nil
	}

	q := strings.ToLower(query)
	filtered := make([]*model.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if typeFilter != "" && entry.Type != typeFilter {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(entry.TxnID), q) &&
			!strings.Contains(strings.ToLower(entry.Note), q) &&
			!strings.Contains(strings.ToLower(entry.Username), q) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

type DashboardStats struct {
	Users         int64           `json:"users"`
	OpenLifafas   int64           `json:"open_lifafas"`
	TotalDeposits decimal.Decimal `json:"total_deposits"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	openLifafas, err := s.lifafaRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	deposits, err := s.ledgerRepo.SumDeposits(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{Users: users, OpenLifafas: openLifafas, TotalDeposits: deposits}, nil
}
