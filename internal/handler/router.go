package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"nextearnx/internal/config"
)

// SetupRouter wires middleware and routes onto a fresh engine.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/otp/request", h.RequestOTP)
			auth.POST("/otp/verify", h.VerifyOTP)
			auth.POST("/signup", h.Signup)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.AuthMiddleware(), h.Logout)
		}

		user := api.Group("", h.AuthMiddleware())
		{
			user.GET("/profile", h.GetProfile)
			user.PUT("/profile", h.UpdateProfile)
			user.GET("/settings", h.GetPublicSettings)

			wallet := user.Group("/wallet")
			{
				wallet.GET("/balance", h.GetBalance)
				wallet.GET("/history", h.GetHistory)
				wallet.POST("/deposit", h.Deposit)
			}

			transfer := user.Group("/transfer")
			{
				transfer.POST("/send", h.Transfer)
				transfer.POST("/bulk", h.BulkTransfer)
			}

			lifafa := user.Group("/lifafa")
			{
				lifafa.POST("/create", h.CreateLifafa)
				lifafa.GET("/view", h.ViewLifafa)
				lifafa.POST("/claim", h.ClaimLifafa)
				lifafa.POST("/refund", h.RefundLifafa)
				lifafa.POST("/refund-all", h.RefundAllLifafas)
				lifafa.GET("/mine", h.ListMyLifafas)
				lifafa.GET("/claims", h.ListLifafaClaims)
				lifafa.GET("/special-check", h.SpecialUserCheck)
			}

			subscription := user.Group("/subscription")
			{
				subscription.GET("/plans", h.ListPlans)
				subscription.GET("/current", h.CurrentSubscription)
				subscription.POST("/purchase", h.PurchaseSubscription)
			}

			affiliate := user.Group("/affiliate")
			{
				affiliate.GET("/stats", h.AffiliateStats)
				affiliate.POST("/withdraw", h.AffiliateWithdraw)
			}

			panel := user.Group("/panel")
			{
				panel.POST("/order", h.PlacePanelOrder)
			}
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", h.AdminLogin)

			authed := admin.Group("", h.AdminAuthMiddleware())
			{
				authed.POST("/logout", h.AdminLogout)
				authed.GET("/dashboard", h.AdminDashboard)
				authed.GET("/users", h.AdminListUsers)
				authed.POST("/user/update", h.AdminUpdateUser)
				authed.POST("/user/delete", h.AdminDeleteUser)
				authed.POST("/wallet/adjust", h.AdminAdjustBalance)
				authed.GET("/settings", h.AdminGetSettings)
				authed.POST("/settings/otp", h.AdminRequestSettingsOTP)
				authed.POST("/settings/update", h.AdminUpdateSettings)
				authed.GET("/audit", h.AdminAudit)
				authed.POST("/ban/add", h.AdminBan)
				authed.POST("/ban/remove", h.AdminUnban)
				authed.GET("/ban/list", h.AdminBanList)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
