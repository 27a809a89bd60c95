package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fleet-ledger/backend/config"
	"fleet-ledger/backend/internal/api/handler"
	"fleet-ledger/backend/internal/api/middleware"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/pkg/jwt"
	"fleet-ledger/backend/pkg/redis"
)

// 单次票据提交最多携带的附件数，用于放宽 multipart 请求体上限
const maxUploadFiles = 8

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（黑名单与限流降级）
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health"))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitMB<<20, cfg.Upload.MaxFileMB*maxUploadFiles<<20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleSubadmin)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	driverOnly := middleware.RoleAuth(model.RoleDriver)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, middleware.LoginRateRule))
		{
			auth.POST("/admin/login", h.Auth.AdminLogin)
			auth.POST("/driver/login", h.Auth.DriverLogin)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 司机管理
			drivers := authorized.Group("/drivers", staff)
			{
				drivers.POST("", h.User.CreateDriver)
				drivers.GET("", h.User.ListDrivers)
				drivers.GET("/:id", h.User.GetDriver)
				drivers.PUT("/:id/active", h.User.SetDriverActive)
				drivers.GET("/:id/settlements", h.Settlement.ListDriverSettlements)
			}

			// 后台账号
			admins := authorized.Group("/admins", staff)
			{
				admins.GET("/me", h.User.GetCurrentAdmin)
				admins.GET("/me/wallet", h.Wallet.AdminWallet)
				admins.GET("", h.User.ListAdmins)
				admins.POST("", adminOnly, h.User.CreateAdmin)
			}

			// 订单（后台）
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("/import", staff, h.Booking.ImportBookings)
				bookings.GET("", staff, h.Booking.ListBookings)
				bookings.GET("/:id", staff, h.Booking.GetBooking)
				bookings.PUT("/:id/driver", staff, h.Booking.AssignDriver)
				bookings.PUT("/:id/status", staff, h.Booking.UpdateStatus)
				bookings.PUT("/:id/labels", staff, h.Booking.SetLabels)

				// 出车、支出、收款：司机与后台共用（归属校验在 Service 层）
				bookings.GET("/:id/duty", h.Ledger.GetDuty)
				bookings.PUT("/:id/duty", h.Ledger.UpsertDuty)
				bookings.GET("/:id/expense", h.Ledger.GetExpense)
				bookings.PUT("/:id/expense", h.Ledger.UpsertExpense)
				bookings.DELETE("/:id/expense/claim", staff, h.Ledger.ReleaseExpenseClaim)
				bookings.GET("/:id/receiving", h.Ledger.GetReceiving)
				bookings.PUT("/:id/receiving", h.Ledger.UpsertReceiving)
				bookings.DELETE("/:id/receiving/claim", staff, h.Ledger.ReleaseReceivingClaim)

				// 结算
				bookings.GET("/:id/settlement/preview", staff, h.Settlement.Preview)
				bookings.POST("/:id/settlement", staff, h.Settlement.Process)
				bookings.POST("/:id/settlement/transfer", staff, h.Settlement.RecordTransfer)
				bookings.POST("/:id/settlement/reverse", adminOnly, h.Settlement.Reverse)
			}

			authorized.GET("/settlements/pending", staff, h.Settlement.ListPending)

			// 钱包
			wallets := authorized.Group("/wallets", staff)
			{
				wallets.POST("/transfer", h.Wallet.Transfer)
				wallets.POST("/collect", h.Wallet.CollectFromDriver)
				wallets.GET("/:kind/:id", h.Wallet.GetWallet)
				wallets.GET("/:kind/:id/transactions", h.Wallet.ListTransactions)
				wallets.POST("/:kind/:id/credit", h.Wallet.Credit)
				wallets.POST("/:kind/:id/debit", h.Wallet.Debit)
			}

			// 标签
			labels := authorized.Group("/labels", staff)
			{
				labels.GET("", h.Label.List)
				labels.POST("", h.Label.Create)
				labels.PUT("/:id", h.Label.Update)
				labels.DELETE("/:id", h.Label.Delete)
			}

			// 导出
			exports := authorized.Group("/exports", staff)
			{
				exports.GET("/wallets/:kind/:id", h.Export.ExportWalletStatement)
				exports.GET("/bookings/:id/settlement", h.Export.SettlementStatement)
			}

			// 司机自助
			me := authorized.Group("/me", driverOnly)
			{
				me.GET("", h.User.GetCurrentDriver)
				me.GET("/bookings", h.Booking.MyBookings)
				me.GET("/bookings/:id/settlement", h.Settlement.MyBookingSettlement)
				me.GET("/settlements", h.Settlement.MySettlements)
				me.GET("/wallet", h.Wallet.MyWallet)
				me.GET("/wallet/transactions", h.Wallet.MyTransactions)
				me.GET("/wallet/export", h.Export.ExportMyWalletStatement)
			}
		}
	}

	return r
}
