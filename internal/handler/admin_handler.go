package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"nextearnx/internal/service"
	"nextearnx/pkg/response"
)

// ============================================================
// Admin console
// ============================================================

// AdminLogin opens an admin session against the configured credentials.
// POST /api/v1/admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	token, err := h.adminService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}
	response.Success(c, gin.H{"token": token})
}

// AdminLogout closes the admin session.
// POST /api/v1/admin/logout
func (h *Handler) AdminLogout(c *gin.Context) {
	if err := h.adminService.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}

// AdminDashboard returns headline counts for the console landing page.
// GET /api/v1/admin/dashboard
func (h *Handler) AdminDashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// AdminListUsers lists or searches users.
// GET /api/v1/admin/users?query=xxx
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"list": users})
}

// AdminUpdateUser edits a user's password, status or plan.
// POST /api/v1/admin/user/update
func (h *Handler) AdminUpdateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		service.AdminUpdateUserParams
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.adminService.UpdateUser(c.Request.Context(), req.Username, &req.AdminUpdateUserParams); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user updated"})
}

// AdminDeleteUser removes a user account.
// POST /api/v1/admin/user/delete
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), req.Username); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user deleted"})
}

// AdminAdjustBalance manually credits or debits a wallet.
// POST /api/v1/admin/wallet/adjust
func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	var req struct {
		Username string          `json:"username" binding:"required"`
		Action   string          `json:"action" binding:"required,oneof=credit debit"`
		Amount   decimal.Decimal `json:"amount" binding:"required"`
		Note     string          `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.adminService.AdjustBalance(c.Request.Context(), req.Username, req.Action, req.Amount, req.Note); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "balance adjusted"})
}

// AdminGetSettings returns the effective global settings.
// GET /api/v1/admin/settings
func (h *Handler) AdminGetSettings(c *gin.Context) {
	settings, err := h.settingsService.Effective(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, settings)
}

// AdminRequestSettingsOTP issues the code that guards settings updates.
// POST /api/v1/admin/settings/otp
func (h *Handler) AdminRequestSettingsOTP(c *gin.Context) {
	code, err := h.adminService.RequestSettingsOTP(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"otp": code})
}

// AdminUpdateSettings saves new global settings after the OTP checks out.
// POST /api/v1/admin/settings/update
func (h *Handler) AdminUpdateSettings(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
		service.UpdateSettingsParams
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.adminService.VerifySettingsOTP(c.Request.Context(), req.OTP); err != nil {
		writeServiceError(c, err)
		return
	}
	if err := h.settingsService.Update(c.Request.Context(), &req.UpdateSettingsParams); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "settings updated"})
}

// AdminAudit returns the merged transaction audit.
// GET /api/v1/admin/audit?type=credit&query=xxx
func (h *Handler) AdminAudit(c *gin.Context) {
	entries, err := h.adminService.Audit(c.Request.Context(), c.Query("type"), c.Query("query"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"list": entries, "total": len(entries)})
}

// AdminBan adds every 10-digit number found in the submitted text to the ban
// list.
// POST /api/v1/admin/ban/add
func (h *Handler) AdminBan(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.banService.Ban(c.Request.Context(), req.Text)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// AdminUnban removes one number from the ban list.
// POST /api/v1/admin/ban/remove
func (h *Handler) AdminUnban(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	removed, err := h.banService.Unban(c.Request.Context(), req.Mobile)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

// AdminBanList lists every banned number.
// GET /api/v1/admin/ban/list
func (h *Handler) AdminBanList(c *gin.Context) {
	mobiles, err := h.banService.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"list": mobiles, "total": len(mobiles)})
}
