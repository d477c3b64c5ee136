package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type checkoutTestEnv struct {
	checkout *CheckoutService
	orders   *OrderService
	cart     *CartService
	coupons  *CouponService
	db       *gorm.DB
	clock    *clock.FakeClock
	notifier *recordingNotifier
	gateway  *fakeGateway
	product  *models.Product
}

func setupCheckoutTest(t *testing.T) *checkoutTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	models.DB = db

	fake := clock.NewFakeClock(time.Date(2026, 4, 7, 12, 0, 0, 0, time.UTC))
	cfg := &config.Config{Pricing: config.PricingConfig{
		Currency:              "EUR",
		TaxRate:               0.21,
		FreeShippingThreshold: 100,
		ShippingBaseCost:      6,
		ExpressShippingCost:   12,
		PointsPerCurrencyUnit: 1,
	}}
	settings := NewConfigProvider(repository.NewSettingRepository(db), nil, cfg)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	coupons := NewCouponService(repository.NewCouponRepository(db), repository.NewCouponUsageRepository(db), fake)
	vouchers := NewVoucherService(repository.NewVoucherRepository(db), userRepo, fake)
	loyalty := NewLoyaltyService(userRepo, repository.NewLoyaltyRepository(db), settings)
	notifier := &recordingNotifier{}
	gateway := &fakeGateway{link: &PaymentLink{URL: "https://pay.example.com/cs_order_1", Reference: "cs_order_1"}}

	orders := NewOrderService(orderRepo, coupons, loyalty, settings, gateway, notifier, fake)
	checkout := NewCheckoutService(cartRepo, orderRepo, productRepo, userRepo, coupons, vouchers, loyalty, orders, settings, notifier, fake)
	cart := NewCartService(cartRepo, productRepo, settings, fake)

	product := seedDiscountedProduct(t, db)
	return &checkoutTestEnv{
		checkout: checkout,
		orders:   orders,
		cart:     cart,
		coupons:  coupons,
		db:       db,
		clock:    fake,
		notifier: notifier,
		gateway:  gateway,
		product:  product,
	}
}

// seedDiscountedProduct 1-9 米 15/米；10 米以上 12/米并展示 10% 阶梯折扣
func seedDiscountedProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{Slug: "uv-dtf", Name: "UV DTF", Unit: "meter", IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	rows := []models.PriceRange{
		{
			ProductID: product.ID,
			FromQty:   decimal.NewFromInt(1),
			ToQty:     decimal.NewNullDecimal(decimal.RequireFromString("9.99")),
			Price:     models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		},
		{
			ProductID:   product.ID,
			FromQty:     decimal.NewFromInt(10),
			Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(12)),
			DiscountPct: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("create price range failed: %v", err)
		}
	}
	return product
}

func addToCart(t *testing.T, env *checkoutTestEnv, userID uint, meters string, layout bool) {
	t.Helper()
	if err := env.cart.UpsertItem(UpsertCartItemInput{
		UserID:        userID,
		ProductID:     env.product.ID,
		Meters:        decimal.RequireFromString(meters),
		NeedsLayout:   layout,
		DesignFileURL: "https://files.example.com/design.pdf",
	}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon models.Coupon) *models.Coupon {
	t.Helper()
	coupon.IsActive = true
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func checkoutInput(userID uint) CheckoutInput {
	return CheckoutInput{
		UserID:          userID,
		CustomerName:    "Marta Gil",
		ShippingAddress: "Calle Mayor 1",
		ShippingCity:    "Valencia",
		ShippingPostal:  "46001",
		ShippingMethod:  constants.ShippingMethodStandard,
		PaymentMethod:   constants.PaymentMethodBizum,
	}
}

func TestCartListPricesLines(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "cart@example.com", "0", constants.LoyaltyTierBronze)
	addToCart(t, env, user.ID, "10", true)

	lines, err := env.cart.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	line := lines[0]
	if line.UnitPrice.String() != "12.00" || line.Subtotal.String() != "120.00" || line.DiscountAmount.String() != "12.00" {
		t.Fatalf("unexpected line pricing: %+v", line)
	}
	if line.ExtrasAmount.String() != "10.00" || line.LineTotal.String() != "118.00" || line.Currency != "EUR" {
		t.Fatalf("unexpected line totals: %+v", line)
	}

	addToCart(t, env, user.ID, "3", false)
	lines, err = env.cart.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 1 || !lines[0].Meters.Equal(decimal.NewFromInt(3)) || lines[0].LineTotal.String() != "45.00" {
		t.Fatalf("upsert should replace the line: %+v", lines)
	}

	if err := env.cart.UpsertItem(UpsertCartItemInput{UserID: user.ID, ProductID: env.product.ID}); !errors.Is(err, ErrCartItemInvalid) {
		t.Fatalf("zero meters should be rejected, got %v", err)
	}
}

func TestCheckoutNetsRangeDiscountAndCoupon(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "coupon@example.com", "0", constants.LoyaltyTierBronze)
	coupon := seedCoupon(t, env.db, models.Coupon{
		Code:  "SPRING10",
		Type:  constants.CouponTypePercent,
		Value: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	addToCart(t, env, user.ID, "10", true)

	input := checkoutInput(user.ID)
	input.CouponCode = "spring10"
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 120 - 12 阶梯折扣 + 10 排版 = 118；优惠券 11.80 → 106.20；满 100 免运费；税 22.30
	if order.Subtotal.String() != "130.00" || order.DiscountAmount.String() != "23.80" {
		t.Fatalf("unexpected subtotal/discount: %s %s", order.Subtotal, order.DiscountAmount)
	}
	if order.TaxAmount.String() != "22.30" || order.ShippingCost.String() != "0.00" || order.TotalAmount.String() != "128.50" {
		t.Fatalf("unexpected tax/shipping/total: %s %s %s", order.TaxAmount, order.ShippingCost, order.TotalAmount)
	}
	if order.Status != constants.OrderStatusPendingPayment || order.PaymentStatus != constants.OrderPaymentStatusPending {
		t.Fatalf("unexpected status: %s %s", order.Status, order.PaymentStatus)
	}
	if order.CouponID == nil || *order.CouponID != coupon.ID {
		t.Fatalf("coupon should be recorded on order")
	}
	if env.gateway.calls != 0 {
		t.Fatalf("bizum checkout must not create payment links")
	}

	var storedCoupon models.Coupon
	if err := env.db.First(&storedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if storedCoupon.UsedCount != 1 {
		t.Fatalf("coupon used count want 1 got %d", storedCoupon.UsedCount)
	}
	var usage models.CouponUsage
	if err := env.db.Where("order_id = ?", order.ID).First(&usage).Error; err != nil {
		t.Fatalf("coupon usage missing: %v", err)
	}
	if usage.DiscountAmount.String() != "11.80" {
		t.Fatalf("unexpected usage discount: %s", usage.DiscountAmount)
	}

	var cartCount int64
	env.db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount)
	if cartCount != 0 {
		t.Fatalf("cart should be cleared, got %d items", cartCount)
	}
	var items []models.OrderItem
	if err := env.db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		t.Fatalf("load items failed: %v", err)
	}
	if len(items) != 1 || items[0].TotalPrice.String() != "108.00" || items[0].ExtrasJSON["design_file_url"] == nil {
		t.Fatalf("unexpected order items: %+v", items)
	}
}

func TestCheckoutFullyCoveredByVoucher(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "voucher@example.com", "0", constants.LoyaltyTierBronze)
	voucher := seedMetersVoucher(t, env.db, user.ID, "VCHK", "10", 1)
	addToCart(t, env, user.ID, "6", true)

	input := checkoutInput(user.ID)
	input.VoucherID = voucher.ID
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusConfirmed || order.PaymentMethod != constants.PaymentMethodVoucher {
		t.Fatalf("fully covered order should be confirmed via voucher: %s %s", order.Status, order.PaymentMethod)
	}
	if !order.TotalAmount.IsZero() || !order.ExtrasAmount.IsZero() || order.PaidAt == nil {
		t.Fatalf("unexpected amounts: total=%s extras=%s", order.TotalAmount, order.ExtrasAmount)
	}

	var stored models.Voucher
	if err := env.db.First(&stored, voucher.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if !stored.RemainingMeters.Equal(decimal.NewFromInt(4)) || stored.RemainingShipments != 0 {
		t.Fatalf("unexpected voucher balance: %s %d", stored.RemainingMeters, stored.RemainingShipments)
	}
	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 0 || !reloaded.TotalSpent.IsZero() {
		t.Fatalf("voucher settlement must not accrue: %d %s", reloaded.LoyaltyPoints, reloaded.TotalSpent)
	}
	if len(env.notifier.orders) != 1 || env.notifier.orders[0] != order.ID {
		t.Fatalf("confirmation expected for order %d, got %v", order.ID, env.notifier.orders)
	}
}

func TestCheckoutRedeemsPointsAndCreatesPaymentLink(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "points@example.com", "0", constants.LoyaltyTierBronze)
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("loyalty_points", 200).Error; err != nil {
		t.Fatalf("seed points failed: %v", err)
	}
	addToCart(t, env, user.ID, "4", false)

	input := checkoutInput(user.ID)
	input.PointsToRedeem = 200
	input.PaymentMethod = constants.PaymentMethodCard
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// 60 - 10 积分抵扣 = 50；运费 6；税 10.50
	if order.PointsRedeemed != 200 || order.TotalAmount.String() != "66.50" || order.ShippingCost.String() != "6.00" {
		t.Fatalf("unexpected order: points=%d total=%s shipping=%s", order.PointsRedeemed, order.TotalAmount, order.ShippingCost)
	}
	if order.PaymentLinkURL != "https://pay.example.com/cs_order_1" || order.PaymentReference != "cs_order_1" {
		t.Fatalf("payment link should be attached: %+v", order)
	}
	if env.gateway.last.Reference != order.OrderNo || env.gateway.last.Amount.String() != "66.5" {
		t.Fatalf("unexpected gateway input: %+v", env.gateway.last)
	}

	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 0 {
		t.Fatalf("points should be spent, got %d", reloaded.LoyaltyPoints)
	}
}

func TestCheckoutCapsPointsAtSubtotal(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "cap@example.com", "0", constants.LoyaltyTierBronze)
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("loyalty_points", 5000).Error; err != nil {
		t.Fatalf("seed points failed: %v", err)
	}
	addToCart(t, env, user.ID, "4", false)

	input := checkoutInput(user.ID)
	input.ShippingMethod = constants.ShippingMethodPickup
	input.PointsToRedeem = 5000
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.PointsRedeemed != 1200 || !order.TotalAmount.IsZero() {
		t.Fatalf("points should cap at 60.00: points=%d total=%s", order.PointsRedeemed, order.TotalAmount)
	}
	if order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("zero total order should be confirmed, got %s", order.Status)
	}
	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 3800 {
		t.Fatalf("points want 3800 got %d", reloaded.LoyaltyPoints)
	}
}

func TestCheckoutRejections(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "reject@example.com", "0", constants.LoyaltyTierBronze)

	if _, err := env.checkout.Checkout(context.Background(), checkoutInput(user.ID)); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected empty cart, got %v", err)
	}

	addToCart(t, env, user.ID, "2", false)
	seedCoupon(t, env.db, models.Coupon{
		Code:       "ONCE",
		Type:       constants.CouponTypeFixed,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		UsageLimit: 1,
		UsedCount:  1,
	})
	input := checkoutInput(user.ID)
	input.CouponCode = "ONCE"
	if _, err := env.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected usage limit, got %v", err)
	}

	input = checkoutInput(user.ID)
	input.TaxExempt = true
	if _, err := env.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrCheckoutInvalidData) {
		t.Fatalf("tax exempt without tax id should fail, got %v", err)
	}

	input = checkoutInput(user.ID)
	input.PointsToRedeem = 10
	if _, err := env.checkout.Checkout(context.Background(), input); !errors.Is(err, ErrPointsInsufficient) {
		t.Fatalf("expected insufficient points, got %v", err)
	}

	var orderCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("rejected checkouts must not create orders, got %d", orderCount)
	}
}
