package provider

import (
	"github.com/printroll-next/internal/authz"
	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/queue"
	"github.com/printroll-next/internal/repository"
	"github.com/printroll-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Clock       clock.Clock

	// Repositories
	AdminRepo     repository.AdminRepository
	UserRepo      repository.UserRepository
	ProductRepo   repository.ProductRepository
	QuoteRepo     repository.QuoteRepository
	VoucherRepo   repository.VoucherRepository
	LoyaltyRepo   repository.LoyaltyRepository
	OrderRepo     repository.OrderRepository
	CartRepo      repository.CartRepository
	CouponRepo    repository.CouponRepository
	CouponUsage   repository.CouponUsageRepository
	SettingRepo   repository.SettingRepository
	DashboardRepo repository.DashboardRepository

	// Services
	ConfigProvider      *service.ConfigProvider
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	EmailService        *service.EmailService
	NotificationService *service.NotificationService
	PaymentGateway      service.PaymentGateway
	SettingService      *service.SettingService
	ProductService      *service.ProductService
	VoucherService      *service.VoucherService
	LoyaltyService      *service.LoyaltyService
	QuoteService        *service.QuoteService
	CouponService       *service.CouponService
	CouponAdminService  *service.CouponAdminService
	CartService         *service.CartService
	OrderService        *service.OrderService
	CheckoutService     *service.CheckoutService
	DashboardService    *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Clock:       clock.Real{},
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.QuoteRepo = repository.NewQuoteRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.LoyaltyRepo = repository.NewLoyaltyRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsage = repository.NewCouponUsageRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	// 多实例部署时运行时设置走 Redis 共享缓存，否则使用进程内缓存
	var settingsCache service.ConfigCache = service.NewMemoryConfigCache(c.Clock)
	if cache.Enabled() {
		settingsCache = service.RedisConfigCache{}
	}
	c.ConfigProvider = service.NewConfigProvider(c.SettingRepo, settingsCache, c.Config)

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.Clock)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.Clock)
	c.EmailService = service.NewEmailService(c.ConfigProvider)
	c.NotificationService = service.NewNotificationService(c.QueueClient, c.EmailService, c.OrderRepo, c.QuoteRepo, c.UserRepo, c.ConfigProvider)
	c.PaymentGateway = service.NewStripeGateway(c.ConfigProvider)
	c.SettingService = service.NewSettingService(c.SettingRepo, c.ConfigProvider, c.Config)
	c.ProductService = service.NewProductService(c.ProductRepo, c.ConfigProvider, c.Clock)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.UserRepo, c.Clock)
	c.LoyaltyService = service.NewLoyaltyService(c.UserRepo, c.LoyaltyRepo, c.ConfigProvider)
	c.QuoteService = service.NewQuoteService(
		c.QuoteRepo,
		c.OrderRepo,
		c.ProductRepo,
		c.VoucherService,
		c.LoyaltyService,
		c.ConfigProvider,
		c.PaymentGateway,
		c.NotificationService,
		c.Config.Quote,
		c.Clock,
	)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsage, c.Clock)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CouponUsage)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.ConfigProvider, c.Clock)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CouponService, c.LoyaltyService, c.ConfigProvider, c.PaymentGateway, c.NotificationService, c.Clock)
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.OrderRepo,
		c.ProductRepo,
		c.UserRepo,
		c.CouponService,
		c.VoucherService,
		c.LoyaltyService,
		c.OrderService,
		c.ConfigProvider,
		c.NotificationService,
		c.Clock,
	)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.ConfigProvider, c.Clock)
}
