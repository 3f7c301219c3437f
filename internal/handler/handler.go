package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/internal/service"
	"nextearnx/internal/verify"
	"nextearnx/pkg/response"
)

// Handler bundles every service the HTTP surface needs.
type Handler struct {
	userService         *service.UserService
	walletService       *service.WalletService
	transferService     *service.TransferService
	lifafaService       *service.LifafaService
	subscriptionService *service.SubscriptionService
	affiliateService    *service.AffiliateService
	settingsService     *service.SettingsService
	panelService        *service.PanelService
	banService          *service.BanService
	adminService        *service.AdminService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	otpService := service.NewOTPService(rdb)
	settingsService := service.NewSettingsService(db, cfg)
	requirementService := service.NewRequirementService(db, verify.NewStubChannelOracle())
	walletService := service.NewWalletService(db, rdb, cfg, settingsService, verify.NewFormatPaymentVerifier())

	return &Handler{
		userService:         service.NewUserService(db, rdb, cfg, otpService),
		walletService:       walletService,
		transferService:     service.NewTransferService(db, rdb, cfg),
		lifafaService:       service.NewLifafaService(db, rdb, cfg, settingsService, requirementService),
		subscriptionService: service.NewSubscriptionService(db, rdb, cfg, settingsService),
		affiliateService:    service.NewAffiliateService(db, cfg),
		settingsService:     settingsService,
		panelService:        service.NewPanelService(db, rdb, cfg, settingsService),
		banService:          service.NewBanService(db),
		adminService:        service.NewAdminService(db, rdb, cfg, walletService, otpService),
	}
}

// writeServiceError translates a service error into the response envelope's
// business code. Unrecognized errors fall through as server errors.
func writeServiceError(c *gin.Context, err error) {
	var unmet *service.RequirementsNotMetError
	if errors.As(err, &unmet) {
		c.JSON(200, response.Response{
			Code:    response.CodeRequirementsUnmet,
			Message: unmet.Error(),
			Data:    unmet.Eligibility,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrLifafaNotFound):
		response.BusinessError(c, response.CodeLifafaNotFound, err.Error())
	case errors.Is(err, service.ErrLifafaNotOpen), errors.Is(err, repository.ErrLifafaFull):
		response.BusinessError(c, response.CodeLifafaClosed, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, service.ErrRecipientNotFound):
		response.BusinessError(c, response.CodeUserNotFound, err.Error())
	case errors.Is(err, service.ErrTransferTooSmall),
		errors.Is(err, service.ErrTransferTooLarge),
		errors.Is(err, service.ErrDailyCapExceeded),
		errors.Is(err, service.ErrSelfTransfer):
		response.BusinessError(c, response.CodeTransferLimit, err.Error())
	case errors.Is(err, service.ErrOTPExpired), errors.Is(err, service.ErrOTPInvalid):
		response.BusinessError(c, response.CodeInvalidOTP, err.Error())
	case errors.Is(err, service.ErrFreeTrialUsed):
		response.BusinessError(c, response.CodeFreeTrialUsed, err.Error())
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrMobileTaken):
		response.BusinessError(c, response.CodeDuplicateUser, err.Error())
	case errors.Is(err, service.ErrPaymentRejected), errors.Is(err, service.ErrDepositTooSmall):
		response.BusinessError(c, response.CodePaymentRejected, err.Error())
	case errors.Is(err, service.ErrWithdrawalTooSmall),
		errors.Is(err, repository.ErrInsufficientEarnings),
		errors.Is(err, service.ErrUPIRequired):
		response.BusinessError(c, response.CodeWithdrawalRejected, err.Error())
	case errors.Is(err, service.ErrUsernameInvalid),
		errors.Is(err, service.ErrEmailInvalid),
		errors.Is(err, service.ErrMobileInvalid),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrMobileUnverified),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrPerClaimTooSmall),
		errors.Is(err, service.ErrCountTooSmall),
		errors.Is(err, service.ErrTotalTooSmall),
		errors.Is(err, service.ErrUnknownPlan),
		errors.Is(err, service.ErrTargetRequired),
		errors.Is(err, service.ErrQuantityTooSmall),
		errors.Is(err, service.ErrAmountNotPositive):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrBadCredentials),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrAccountFrozen),
		errors.Is(err, service.ErrNotCreator):
		response.Unauthorized(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// currentUser returns the user the auth middleware resolved.
func currentUser(c *gin.Context) *model.User {
	return c.MustGet(ctxUserKey).(*model.User)
}

// ============================================================
// Auth
// ============================================================

// RequestOTP issues a signup code for a mobile number.
// POST /api/v1/auth/otp/request
func (h *Handler) RequestOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	code, err := h.userService.RequestSignupOTP(c.Request.Context(), req.Mobile)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// The code is returned directly; SMS delivery is not part of this
	// service.
	response.Success(c, gin.H{"otp": code})
}

// VerifyOTP confirms a signup code.
// POST /api/v1/auth/otp/verify
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.userService.VerifySignupOTP(c.Request.Context(), req.Mobile, req.Code); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"verified": true})
}

// Signup registers a new user.
// POST /api/v1/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req service.SignupParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// Login opens a session.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	token, user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user": user})
}

// Logout closes the session.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}

// ============================================================
// Profile
// ============================================================

// GetProfile returns the logged-in user.
// GET /api/v1/profile
func (h *Handler) GetProfile(c *gin.Context) {
	response.Success(c, currentUser(c))
}

// UpdateProfile edits fullname and/or password.
// PUT /api/v1/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.userService.UpdateProfile(c.Request.Context(), currentUser(c).Username, &req); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "profile updated"})
}

// ============================================================
// Wallet
// ============================================================

// GetBalance returns the wallet balance.
// GET /api/v1/wallet/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.walletService.GetBalance(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// GetHistory lists ledger entries, newest first.
// GET /api/v1/wallet/history?page=1&page_size=10
func (h *Handler) GetHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	entries, total, err := h.walletService.GetHistory(c.Request.Context(), currentUser(c).Username, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Deposit credits the wallet against a UPI transaction id.
// POST /api/v1/wallet/deposit
func (h *Handler) Deposit(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
		TxnID  string          `json:"txn_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.walletService.Deposit(c.Request.Context(), currentUser(c).Username, req.Amount, req.TxnID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ============================================================
// Transfers
// ============================================================

// Transfer sends money to another user by mobile number.
// POST /api/v1/transfer/send
func (h *Handler) Transfer(c *gin.Context) {
	var req struct {
		Mobile string          `json:"mobile" binding:"required"`
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.transferService.Transfer(c.Request.Context(), currentUser(c).Username, req.Mobile, req.Amount)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// BulkTransfer sends the same amount to many mobiles.
// POST /api/v1/transfer/bulk
func (h *Handler) BulkTransfer(c *gin.Context) {
	var req struct {
		Mobiles []string        `json:"mobiles" binding:"required,min=1"`
		Amount  decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	results := h.transferService.BulkTransfer(c.Request.Context(), currentUser(c).Username, req.Mobiles, req.Amount)
	response.Success(c, gin.H{"results": results})
}

// ============================================================
// Lifafa
// ============================================================

// CreateLifafa funds and publishes a new lifafa.
// POST /api/v1/lifafa/create
func (h *Handler) CreateLifafa(c *gin.Context) {
	var req service.CreateLifafaParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	lifafa, err := h.lifafaService.Create(c.Request.Context(), currentUser(c).Username, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, lifafa)
}

// ViewLifafa shows a lifafa with the caller's gate verdicts.
// GET /api/v1/lifafa/view?code=xxx&access_code=yyy
func (h *Handler) ViewLifafa(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.ParamError(c, "code is required")
		return
	}

	lifafa, eligibility, err := h.lifafaService.View(c.Request.Context(), code, currentUser(c).Username, c.Query("access_code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"lifafa": lifafa, "eligibility": eligibility})
}

// ClaimLifafa settles one claim slot for the caller.
// POST /api/v1/lifafa/claim
func (h *Handler) ClaimLifafa(c *gin.Context) {
	var req struct {
		Code       string `json:"code" binding:"required"`
		AccessCode string `json:"access_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.lifafaService.Claim(c.Request.Context(), req.Code, currentUser(c).Username, req.AccessCode)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// RefundLifafa closes one of the caller's open lifafas and refunds the rest.
// POST /api/v1/lifafa/refund
func (h *Handler) RefundLifafa(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.lifafaService.Refund(c.Request.Context(), req.Code, currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// RefundAllLifafas refunds every open lifafa the caller created.
// POST /api/v1/lifafa/refund-all
func (h *Handler) RefundAllLifafas(c *gin.Context) {
	results, err := h.lifafaService.RefundAll(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"refunded": results})
}

// ListMyLifafas lists the caller's lifafas.
// GET /api/v1/lifafa/mine
func (h *Handler) ListMyLifafas(c *gin.Context) {
	lifafas, err := h.lifafaService.ListMine(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"list": lifafas})
}

// ListLifafaClaims lists settled claims of one of the caller's lifafas.
// GET /api/v1/lifafa/claims?code=xxx
func (h *Handler) ListLifafaClaims(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.ParamError(c, "code is required")
		return
	}

	claims, err := h.lifafaService.ListClaims(c.Request.Context(), code, currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"list": claims})
}

// SpecialUserCheck reports which of the caller's open lifafas reserve a slot
// for a mobile.
// GET /api/v1/lifafa/special-check?mobile=xxx
func (h *Handler) SpecialUserCheck(c *gin.Context) {
	mobile := c.Query("mobile")
	if mobile == "" {
		response.ParamError(c, "mobile is required")
		return
	}

	codes, err := h.lifafaService.SpecialUserCheck(c.Request.Context(), currentUser(c).Username, mobile)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"codes": codes})
}

// ============================================================
// Subscriptions
// ============================================================

// ListPlans returns the plan catalog.
// GET /api/v1/subscription/plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.Plans(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"plans": plans})
}

// CurrentSubscription returns the caller's active plan, if any.
// GET /api/v1/subscription/current
func (h *Handler) CurrentSubscription(c *gin.Context) {
	sub, err := h.subscriptionService.Current(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		if errors.Is(err, repository.ErrNoSubscription) {
			response.Success(c, gin.H{"subscription": nil})
			return
		}
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"subscription": sub})
}

// PurchaseSubscription buys a plan from the wallet.
// POST /api/v1/subscription/purchase
func (h *Handler) PurchaseSubscription(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	sub, err := h.subscriptionService.Purchase(c.Request.Context(), currentUser(c).Username, req.Plan)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, sub)
}

// ============================================================
// Affiliate
// ============================================================

// AffiliateStats returns earnings and referral count.
// GET /api/v1/affiliate/stats
func (h *Handler) AffiliateStats(c *gin.Context) {
	stats, err := h.affiliateService.Stats(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// AffiliateWithdraw books a payout request.
// POST /api/v1/affiliate/withdraw
func (h *Handler) AffiliateWithdraw(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
		UPI    string          `json:"upi" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.affiliateService.Withdraw(c.Request.Context(), currentUser(c).Username, req.Amount, req.UPI)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ============================================================
// Instant Panel
// ============================================================

// PlacePanelOrder buys panel service units from the wallet. The unit price
// comes from global settings and is also exposed via GetPublicSettings.
// POST /api/v1/panel/order
func (h *Handler) PlacePanelOrder(c *gin.Context) {
	var req struct {
		Target   string `json:"target" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.panelService.PlaceOrder(c.Request.Context(), currentUser(c).Username, req.Target, req.Quantity)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ============================================================
// Settings (read side for the panel)
// ============================================================

// GetPublicSettings exposes the fields the panel needs: deposit UPI, minimum
// deposit and plan prices.
// GET /api/v1/settings
func (h *Handler) GetPublicSettings(c *gin.Context) {
	settings, err := h.settingsService.Effective(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, settings)
}
