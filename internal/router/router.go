package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/printroll-next/internal/authz"
	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	adminhandlers "github.com/printroll-next/internal/http/handlers/admin"
	publichandlers "github.com/printroll-next/internal/http/handlers/public"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMetricsPath = "/metrics"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RuleFromConfig(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit, "error.login_rate_limited")
	adminLoginRule := RuleFromConfig(fmt.Sprintf("%s:rate:admin_login", redisPrefix), cfg.Security.LoginRateLimit, "error.login_rate_limited")
	quoteRule := RuleFromConfig(fmt.Sprintf("%s:rate:quote", redisPrefix), cfg.Security.QuoteRateLimit, "error.quote_rate_limited")

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = defaultMetricsPath
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.GET("/products/:slug/price", publicHandler.GetProductPrice)
			public.POST("/quotes",
				OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserRepo),
				RateLimitMiddleware(redisClient, quoteRule, KeyByIPAndJSONField("customer_email")),
				publicHandler.CreateQuote,
			)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.GET("/me/quotes", publicHandler.ListMyQuotes)
			user.GET("/me/quotes/:id", publicHandler.GetMyQuote)
			user.GET("/me/vouchers", publicHandler.ListMyVouchers)
			user.GET("/me/loyalty", publicHandler.GetLoyaltySummary)
			user.GET("/me/loyalty/transactions", publicHandler.ListLoyaltyTransactions)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.UpsertCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			user.POST("/checkout/preview", publicHandler.PreviewCheckout)
			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetOrderByOrderNo)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/payment-link", publicHandler.CreateOrderPaymentLink)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)

				// 商品与价格区间
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)
				authorized.PUT("/products/:id/ranges", adminHandler.ReplaceProductRanges)

				// 报价单
				authorized.GET("/quotes", adminHandler.AdminListQuotes)
				authorized.GET("/quotes/counts", adminHandler.AdminQuoteCounts)
				authorized.GET("/quotes/:id", adminHandler.AdminGetQuote)
				authorized.POST("/quotes/:id/quote", adminHandler.AdminPriceQuote)
				authorized.POST("/quotes/:id/generate_payment_link", adminHandler.AdminGenerateQuotePaymentLink)
				authorized.POST("/quotes/:id/set_manual_payment", adminHandler.AdminSetQuoteManualPayment)
				authorized.POST("/quotes/:id/mark_paid", adminHandler.AdminMarkQuotePaid)
				authorized.POST("/quotes/:id/sync_payment", adminHandler.AdminSyncQuotePayment)
				authorized.POST("/quotes/:id/cancel", adminHandler.AdminCancelQuote)
				authorized.POST("/quotes/:id/expire", adminHandler.AdminExpireQuote)
				authorized.POST("/quotes/:id/convert_to_order", adminHandler.AdminConvertQuote)

				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id", adminHandler.AdminUpdateOrderStatus)
				authorized.POST("/orders/:id/mark_paid", adminHandler.AdminMarkOrderPaid)
				authorized.POST("/orders/:id/sync_payment", adminHandler.AdminSyncOrderPayment)
				authorized.PUT("/orders/:id/shipping", adminHandler.AdminUpdateOrderShipping)

				// 优惠凭证
				authorized.GET("/vouchers", adminHandler.AdminListVouchers)
				authorized.POST("/vouchers", adminHandler.AdminGrantVoucher)
				authorized.GET("/vouchers/:id", adminHandler.AdminGetVoucher)
				authorized.PATCH("/vouchers/:id", adminHandler.AdminSetVoucherActive)
				authorized.GET("/vouchers/:id/redemptions", adminHandler.AdminListVoucherRedemptions)

				// 优惠券
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.GET("/coupons", adminHandler.GetAdminCoupons)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
				authorized.PATCH("/coupons/:id", adminHandler.SetCouponActive)
				authorized.GET("/coupons/:id/usages", adminHandler.GetCouponUsages)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.GET("/users/:id/points", adminHandler.GetAdminUserPoints)

				// 设置管理
				authorized.GET("/settings", adminHandler.ListSettings)
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)
				authorized.POST("/settings/smtp/test", adminHandler.TestSMTPSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "db": "ok", "redis": "disabled"}
		code := http.StatusOK
		if !databaseReachable(c) {
			status["status"], status["db"] = "degraded", "down"
			code = http.StatusServiceUnavailable
		}
		if cache.Enabled() {
			status["redis"] = "ok"
			if err := cache.Ping(c.Request.Context()); err != nil {
				status["status"], status["redis"] = "degraded", "down"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") || item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}

func databaseReachable(c *gin.Context) bool {
	if models.DB == nil {
		return false
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(c.Request.Context()) == nil
}
