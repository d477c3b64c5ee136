package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
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

type recordingNotifier struct {
	mu     sync.Mutex
	orders []uint
	quotes []uint
}

func (n *recordingNotifier) SendOrderConfirmation(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.ID)
}

func (n *recordingNotifier) SendQuoteReady(quote *models.Quote) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quotes = append(n.quotes, quote.ID)
}

type fakeGateway struct {
	link   *PaymentLink
	err    error
	status PaymentStatus
	calls  int
	last   PaymentLinkInput
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error) {
	g.calls++
	g.last = input
	if g.err != nil {
		return nil, g.err
	}
	return g.link, nil
}

func (g *fakeGateway) GetPaymentStatus(ctx context.Context, reference string) (PaymentStatus, error) {
	if g.err != nil {
		return PaymentStatus{}, g.err
	}
	return g.status, nil
}

var seededQuoteSeq int64

type quoteTestEnv struct {
	svc      *QuoteService
	db       *gorm.DB
	clock    *clock.FakeClock
	notifier *recordingNotifier
	gateway  *fakeGateway
}

func setupQuoteServiceTest(t *testing.T) *quoteTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:quote_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
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
	vouchers := NewVoucherService(repository.NewVoucherRepository(db), userRepo, fake)
	loyalty := NewLoyaltyService(userRepo, repository.NewLoyaltyRepository(db), settings)
	notifier := &recordingNotifier{}
	gateway := &fakeGateway{link: &PaymentLink{URL: "https://pay.example.com/cs_test_1", Reference: "cs_test_1"}}

	svc := NewQuoteService(
		repository.NewQuoteRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		vouchers,
		loyalty,
		settings,
		gateway,
		notifier,
		config.QuoteConfig{},
		fake,
	)
	seedPrintProduct(t, db)
	return &quoteTestEnv{svc: svc, db: db, clock: fake, notifier: notifier, gateway: gateway}
}

func seedPrintProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:           "dtf-film",
		Name:           "DTF film",
		Unit:           "meter",
		IsPrintProduct: true,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	bands := []struct {
		from, to string
		price    string
	}{
		{"1", "4", "15"},
		{"5", "24", "12"},
		{"25", "49", "10"},
		{"50", "", "9"},
	}
	for _, band := range bands {
		row := models.PriceRange{
			ProductID: product.ID,
			FromQty:   decimal.RequireFromString(band.from),
			Price:     models.NewMoneyFromDecimal(decimal.RequireFromString(band.price)),
		}
		if band.to != "" {
			row.ToQty = decimal.NewNullDecimal(decimal.RequireFromString(band.to))
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("create price range failed: %v", err)
		}
	}
	return product
}

func seedLoyaltyUser(t *testing.T, db *gorm.DB, email string, totalSpent string, tier string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		TotalSpent:   models.NewMoneyFromDecimal(decimal.RequireFromString(totalSpent)),
		LoyaltyTier:  tier,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedMetersVoucher(t *testing.T, db *gorm.DB, userID uint, code string, meters string, shipments int) *models.Voucher {
	t.Helper()
	m := decimal.RequireFromString(meters)
	voucher := &models.Voucher{
		Code:               code,
		Type:               constants.VoucherTypeMeters,
		UserID:             userID,
		InitialMeters:      m,
		RemainingMeters:    m,
		InitialShipments:   shipments,
		RemainingShipments: shipments,
		IsActive:           true,
	}
	if err := db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func createQuoteForTest(t *testing.T, env *quoteTestEnv, userID uint) *models.Quote {
	t.Helper()
	quote, err := env.svc.Create(context.Background(), CreateQuoteInput{
		UserID:          userID,
		CustomerName:    "Lucía Pérez",
		CustomerEmail:   "Lucia@Example.com",
		ShippingAddress: "Calle Mayor 1",
		ShippingCity:    "Madrid",
		ShippingPostal:  "28013",
		Description:     "Camisetas evento",
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	return quote
}

// seedPaidQuote 直接写入已支付报价单，金额由调用方指定
func seedPaidQuote(t *testing.T, env *quoteTestEnv, userID uint, meters, total string) *models.Quote {
	t.Helper()
	now := env.clock.Now()
	totalMoney := models.NewMoneyFromDecimal(decimal.RequireFromString(total))
	pricePerMeter := models.NewMoneyFromDecimal(decimal.NewFromInt(12))
	zero := models.ZeroMoney()
	quote := &models.Quote{
		QuoteNumber:     fmt.Sprintf("S-2026-%04d", atomic.AddInt64(&seededQuoteSeq, 1)),
		Status:          constants.QuoteStatusPaid,
		UserID:          optionalID(userID),
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		EstimatedMeters: decimal.NewNullDecimal(decimal.RequireFromString(meters)),
		PricePerMeter:   &pricePerMeter,
		Subtotal:        &totalMoney,
		TaxAmount:       &zero,
		ShippingCost:    &zero,
		EstimatedTotal:  &totalMoney,
		PaymentMethod:   constants.PaymentMethodBizum,
		PaidAt:          &now,
		ExpiresAt:       now.AddDate(0, 0, 15),
	}
	if err := env.db.Create(quote).Error; err != nil {
		t.Fatalf("create paid quote failed: %v", err)
	}
	return quote
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func TestQuoteCreateAssignsSequentialNumbers(t *testing.T) {
	env := setupQuoteServiceTest(t)
	first := createQuoteForTest(t, env, 0)
	second := createQuoteForTest(t, env, 0)

	if first.QuoteNumber != "Q-2026-0001" || second.QuoteNumber != "Q-2026-0002" {
		t.Fatalf("unexpected quote numbers: %s %s", first.QuoteNumber, second.QuoteNumber)
	}
	if first.Status != constants.QuoteStatusPendingReview {
		t.Fatalf("unexpected status: %s", first.Status)
	}
	if first.CustomerEmail != "lucia@example.com" {
		t.Fatalf("email should be normalized, got %s", first.CustomerEmail)
	}
	want := env.clock.Now().AddDate(0, 0, 15)
	if !first.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at want %s got %s", want, first.ExpiresAt)
	}
}

func TestQuoteCreateValidation(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, CreateQuoteInput{CustomerName: "A", CustomerEmail: "not-an-email"}); !errors.Is(err, ErrQuoteInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err := env.svc.Create(ctx, CreateQuoteInput{
		CustomerName:  "Empresa",
		CustomerEmail: "compras@empresa.es",
		TaxExempt:     true,
		CompanyName:   "Empresa SL",
	})
	if !errors.Is(err, ErrQuoteTaxIDRequired) {
		t.Fatalf("expected tax id required, got %v", err)
	}
}

func TestQuotePricingWithFixedShipping(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)
	shipping := decimal.NewFromInt(6)

	priced, order, err := env.svc.Quote(context.Background(), quote.ID, PriceQuoteInput{
		Meters:       decimal.NewFromInt(5),
		ShippingCost: &shipping,
	}, AdminActor(1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if order != nil {
		t.Fatalf("no order expected without voucher")
	}
	if priced.Status != constants.QuoteStatusQuoted {
		t.Fatalf("unexpected status: %s", priced.Status)
	}
	checks := map[string]struct {
		got  *models.Money
		want string
	}{
		"price_per_meter": {priced.PricePerMeter, "12.00"},
		"subtotal":        {priced.Subtotal, "60.00"},
		"tax":             {priced.TaxAmount, "12.60"},
		"shipping":        {priced.ShippingCost, "6.00"},
		"total":           {priced.EstimatedTotal, "78.60"},
	}
	for name, c := range checks {
		if c.got == nil || c.got.String() != c.want {
			t.Fatalf("%s want %s got %v", name, c.want, c.got)
		}
	}
	if len(env.notifier.quotes) != 1 {
		t.Fatalf("quote ready notification expected, got %d", len(env.notifier.quotes))
	}
}

func TestQuotePricingWaivesShippingAboveThreshold(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)

	priced, _, err := env.svc.Quote(context.Background(), quote.ID, PriceQuoteInput{
		Meters:      decimal.NewFromInt(10),
		NeedsLayout: true,
	}, AdminActor(1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	// 10 × 12 + 排版 10 = 130
	if priced.Subtotal.String() != "130.00" || priced.ShippingCost.String() != "0.00" {
		t.Fatalf("unexpected subtotal/shipping: %s %s", priced.Subtotal, priced.ShippingCost)
	}
	if priced.ExtrasAmount.String() != "10.00" {
		t.Fatalf("unexpected extras: %s", priced.ExtrasAmount)
	}
	if priced.EstimatedTotal.String() != "157.30" {
		t.Fatalf("unexpected total: %s", priced.EstimatedTotal)
	}
}

func TestQuoteVoucherFullCoverageFastPath(t *testing.T) {
	env := setupQuoteServiceTest(t)
	user := seedLoyaltyUser(t, env.db, "vip@example.com", "120", constants.LoyaltyTierBronze)
	voucher := seedMetersVoucher(t, env.db, user.ID, "VFULL", "10", 0)
	quote := createQuoteForTest(t, env, user.ID)

	priced, order, err := env.svc.Quote(context.Background(), quote.ID, PriceQuoteInput{
		Meters:     decimal.NewFromInt(6),
		UseVoucher: true,
		VoucherID:  voucher.ID,
	}, AdminActor(1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if order == nil {
		t.Fatalf("fast path should create an order")
	}
	if priced.Status != constants.QuoteStatusConverted || priced.OrderID == nil || *priced.OrderID != order.ID {
		t.Fatalf("quote should be converted and linked: %+v", priced)
	}
	if !order.TotalAmount.IsZero() || order.PaymentMethod != constants.PaymentMethodVoucher {
		t.Fatalf("voucher order should be free: total=%s method=%s", order.TotalAmount, order.PaymentMethod)
	}

	var stored models.Voucher
	if err := env.db.First(&stored, voucher.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if !stored.RemainingMeters.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("remaining meters want 4 got %s", stored.RemainingMeters)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("usage count want 1 got %d", stored.UsageCount)
	}

	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.TotalSpent.String() != "120.00" || reloaded.LoyaltyPoints != 0 {
		t.Fatalf("voucher settlement must not accrue: spent=%s points=%d", reloaded.TotalSpent, reloaded.LoyaltyPoints)
	}
	if len(env.notifier.orders) != 1 || len(env.notifier.quotes) != 0 {
		t.Fatalf("unexpected notifications: orders=%v quotes=%v", env.notifier.orders, env.notifier.quotes)
	}

	var redemptions []models.VoucherRedemption
	if err := env.db.Where("voucher_id = ?", voucher.ID).Find(&redemptions).Error; err != nil {
		t.Fatalf("list redemptions failed: %v", err)
	}
	if len(redemptions) != 1 || redemptions[0].OrderID == nil || *redemptions[0].OrderID != order.ID {
		t.Fatalf("unexpected redemptions: %+v", redemptions)
	}
}

func TestQuoteVoucherPartialCoverage(t *testing.T) {
	env := setupQuoteServiceTest(t)
	user := seedLoyaltyUser(t, env.db, "partial@example.com", "0", constants.LoyaltyTierBronze)
	voucher := seedMetersVoucher(t, env.db, user.ID, "VPART", "3", 0)
	quote := createQuoteForTest(t, env, user.ID)
	ctx := context.Background()

	priced, order, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{
		Meters:     decimal.NewFromInt(6),
		UseVoucher: true,
		VoucherID:  voucher.ID,
	}, AdminActor(1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if order != nil {
		t.Fatalf("partial coverage must not take the fast path")
	}
	// 3 米按 15/米计价：45 + 税 9.45 + 运费 6
	if priced.Subtotal.String() != "45.00" || priced.EstimatedTotal.String() != "60.45" {
		t.Fatalf("unexpected partial pricing: subtotal=%s total=%s", priced.Subtotal, priced.EstimatedTotal)
	}
	if !priced.MetersFromVoucher.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("meters from voucher want 3 got %s", priced.MetersFromVoucher)
	}

	held := reloadVoucher(t, env.db, voucher.ID)
	if !held.RemainingMeters.IsZero() || held.IsActive {
		t.Fatalf("voucher should be debited when the quote is priced: remaining=%s active=%v", held.RemainingMeters, held.IsActive)
	}
	hold := quoteRedemptions(t, env.db, voucher.ID)
	if len(hold) != 1 || hold[0].QuoteID == nil || *hold[0].QuoteID != quote.ID || hold[0].OrderID != nil {
		t.Fatalf("expected one open hold for the quote, got %+v", hold)
	}

	if _, err := env.svc.MarkPaid(ctx, quote.ID, "BZ-1", AdminActor(1)); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	converted, err := env.svc.ConvertToOrder(ctx, quote.ID, AdminActor(1))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if converted.TotalAmount.String() != "60.45" {
		t.Fatalf("unexpected order total: %s", converted.TotalAmount)
	}
	if converted.PointsEarned != 60 {
		t.Fatalf("points earned want 60 got %d", converted.PointsEarned)
	}

	debited := reloadVoucher(t, env.db, voucher.ID)
	if !debited.RemainingMeters.IsZero() || debited.IsActive || debited.UsageCount != 1 {
		t.Fatalf("voucher should be exhausted once: remaining=%s active=%v usage=%d", debited.RemainingMeters, debited.IsActive, debited.UsageCount)
	}
	settled := quoteRedemptions(t, env.db, voucher.ID)
	if len(settled) != 1 || settled[0].OrderID == nil || *settled[0].OrderID != converted.ID {
		t.Fatalf("hold should be attached to the order, got %+v", settled)
	}
}

func reloadVoucher(t *testing.T, db *gorm.DB, id uint) models.Voucher {
	t.Helper()
	var voucher models.Voucher
	if err := db.First(&voucher, id).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	return voucher
}

func quoteRedemptions(t *testing.T, db *gorm.DB, voucherID uint) []models.VoucherRedemption {
	t.Helper()
	var rows []models.VoucherRedemption
	if err := db.Where("voucher_id = ?", voucherID).Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("list redemptions failed: %v", err)
	}
	return rows
}

func pricePartialVoucherQuote(t *testing.T, env *quoteTestEnv, email, code string) (*models.Quote, *models.Voucher) {
	t.Helper()
	user := seedLoyaltyUser(t, env.db, email, "0", constants.LoyaltyTierBronze)
	voucher := seedMetersVoucher(t, env.db, user.ID, code, "3", 0)
	quote := createQuoteForTest(t, env, user.ID)
	if _, _, err := env.svc.Quote(context.Background(), quote.ID, PriceQuoteInput{
		Meters:     decimal.NewFromInt(6),
		UseVoucher: true,
		VoucherID:  voucher.ID,
	}, AdminActor(1)); err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	return quote, voucher
}

func TestQuoteVoucherHoldSurvivesOtherSpend(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()
	quote, voucher := pricePartialVoucherQuote(t, env, "drain@example.com", "VDRAIN")

	// 另一笔结算试图花掉同一凭证
	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.svc.vouchers.RedeemInTx(tx, voucher.ID, decimal.NewFromInt(3), 0, RedemptionRef{Source: "checkout"})
		return err
	})
	if !errors.Is(err, ErrVoucherInactive) && !errors.Is(err, ErrVoucherInsufficient) {
		t.Fatalf("held meters must not be spent twice, got %v", err)
	}

	if _, err := env.svc.MarkPaid(ctx, quote.ID, "BZ-9", AdminActor(1)); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	order, err := env.svc.ConvertToOrder(ctx, quote.ID, AdminActor(1))
	if err != nil {
		t.Fatalf("paid quote with held voucher must convert, got %v", err)
	}
	if order.TotalAmount.String() != "60.45" {
		t.Fatalf("unexpected order total: %s", order.TotalAmount)
	}
	reloaded, _ := env.svc.Get(quote.ID)
	if reloaded.Status != constants.QuoteStatusConverted || reloaded.OrderID == nil {
		t.Fatalf("quote should be converted: %+v", reloaded)
	}
	if rows := quoteRedemptions(t, env.db, voucher.ID); len(rows) != 1 {
		t.Fatalf("conversion must not debit again, got %d redemptions", len(rows))
	}
}

func TestQuoteCancelReleasesVoucherHold(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote, voucher := pricePartialVoucherQuote(t, env, "cancel@example.com", "VCANCEL")

	if _, err := env.svc.Cancel(context.Background(), quote.ID, "cliente desiste", AdminActor(1)); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	restored := reloadVoucher(t, env.db, voucher.ID)
	if !restored.RemainingMeters.Equal(decimal.NewFromInt(3)) || !restored.IsActive || restored.UsageCount != 0 {
		t.Fatalf("cancel should restore the voucher: remaining=%s active=%v usage=%d", restored.RemainingMeters, restored.IsActive, restored.UsageCount)
	}
	rows := quoteRedemptions(t, env.db, voucher.ID)
	if len(rows) != 1 || rows[0].ReleasedAt == nil || rows[0].OrderID != nil {
		t.Fatalf("hold should be marked released: %+v", rows)
	}
}

func TestQuoteRepriceReplacesVoucherHold(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()
	quote, voucher := pricePartialVoucherQuote(t, env, "reprice@example.com", "VREPRICE")

	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{
		Meters:     decimal.NewFromInt(8),
		UseVoucher: true,
		VoucherID:  voucher.ID,
	}, AdminActor(1)); err != nil {
		t.Fatalf("reprice with voucher failed: %v", err)
	}
	if held := reloadVoucher(t, env.db, voucher.ID); !held.RemainingMeters.IsZero() {
		t.Fatalf("reprice should hold the full balance again, remaining=%s", held.RemainingMeters)
	}

	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{Meters: decimal.NewFromInt(8)}, AdminActor(1)); err != nil {
		t.Fatalf("reprice without voucher failed: %v", err)
	}
	restored := reloadVoucher(t, env.db, voucher.ID)
	if !restored.RemainingMeters.Equal(decimal.NewFromInt(3)) || !restored.IsActive {
		t.Fatalf("dropping the voucher should restore it: remaining=%s active=%v", restored.RemainingMeters, restored.IsActive)
	}
	open := 0
	for _, row := range quoteRedemptions(t, env.db, voucher.ID) {
		if row.ReleasedAt == nil {
			open++
		}
	}
	if open != 0 {
		t.Fatalf("no hold should remain open, got %d", open)
	}
}

func TestQuoteVoucherOwnership(t *testing.T) {
	env := setupQuoteServiceTest(t)
	owner := seedLoyaltyUser(t, env.db, "owner@example.com", "0", constants.LoyaltyTierBronze)
	voucher := seedMetersVoucher(t, env.db, owner.ID, "VOWN", "10", 0)
	guestQuote := createQuoteForTest(t, env, 0)

	_, _, err := env.svc.Quote(context.Background(), guestQuote.ID, PriceQuoteInput{
		Meters:     decimal.NewFromInt(2),
		UseVoucher: true,
		VoucherID:  voucher.ID,
	}, AdminActor(1))
	if !errors.Is(err, ErrVoucherNotOwned) {
		t.Fatalf("expected voucher not owned, got %v", err)
	}
	reloaded, err := env.svc.Get(guestQuote.ID)
	if err != nil {
		t.Fatalf("get quote failed: %v", err)
	}
	if reloaded.Status != constants.QuoteStatusPendingReview || reloaded.EstimatedTotal != nil {
		t.Fatalf("quote must stay unchanged: %+v", reloaded)
	}
}

func TestConvertToOrderAccruesLoyalty(t *testing.T) {
	env := setupQuoteServiceTest(t)
	user := seedLoyaltyUser(t, env.db, "silver@example.com", "450", constants.LoyaltyTierSilver)
	quote := seedPaidQuote(t, env, user.ID, "5", "100")

	order, err := env.svc.ConvertToOrder(context.Background(), quote.ID, AdminActor(7))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if order.Status != constants.OrderStatusConfirmed || order.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("unexpected order state: %s/%s", order.Status, order.PaymentStatus)
	}
	if order.SourceNote != "Quote "+quote.QuoteNumber {
		t.Fatalf("unexpected source note: %s", order.SourceNote)
	}
	if order.PointsEarned != 125 {
		t.Fatalf("points earned want 125 got %d", order.PointsEarned)
	}

	var user2 models.User
	if err := env.db.First(&user2, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user2.TotalSpent.String() != "550.00" || user2.LoyaltyTier != constants.LoyaltyTierGold || user2.LoyaltyPoints != 125 {
		t.Fatalf("unexpected loyalty state: spent=%s tier=%s points=%d", user2.TotalSpent, user2.LoyaltyTier, user2.LoyaltyPoints)
	}

	var txns []models.PointTransaction
	if err := env.db.Where("user_id = ?", user.ID).Find(&txns).Error; err != nil {
		t.Fatalf("list point transactions failed: %v", err)
	}
	if len(txns) != 1 || txns[0].Type != constants.PointTxnTypeEarned || txns[0].OrderID == nil || *txns[0].OrderID != order.ID {
		t.Fatalf("unexpected point transactions: %+v", txns)
	}

	var history []models.OrderStatusHistory
	if err := env.db.Where("order_id = ?", order.ID).Find(&history).Error; err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 || history[0].ToStatus != constants.OrderStatusConfirmed || history[0].ActorID != 7 {
		t.Fatalf("unexpected history: %+v", history)
	}

	var items []models.OrderItem
	if err := env.db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if len(items) != 1 || !items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestConvertToOrderIsIdempotent(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := seedPaidQuote(t, env, 0, "5", "60")
	ctx := context.Background()

	if _, err := env.svc.ConvertToOrder(ctx, quote.ID, SystemActor()); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	if _, err := env.svc.ConvertToOrder(ctx, quote.ID, SystemActor()); !errors.Is(err, ErrQuoteAlreadyConverted) {
		t.Fatalf("second convert should conflict, got %v", err)
	}
	if got := countOrders(t, env.db); got != 1 {
		t.Fatalf("expected exactly one order, got %d", got)
	}
}

func TestConvertToOrderConcurrent(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := seedPaidQuote(t, env, 0, "5", "60")

	const workers = 2
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.ConvertToOrder(context.Background(), quote.ID, AdminActor(1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrQuoteAlreadyConverted), errors.Is(err, ErrQuoteConversionConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("exactly one conversion should succeed, got %d", success)
	}
	if got := countOrders(t, env.db); got != 1 {
		t.Fatalf("expected exactly one order, got %d", got)
	}
}

func TestConvertToOrderPreconditions(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()

	if _, err := env.svc.ConvertToOrder(ctx, 9999, SystemActor()); !errors.Is(err, ErrQuoteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	pending := createQuoteForTest(t, env, 0)
	if _, err := env.svc.ConvertToOrder(ctx, pending.ID, SystemActor()); !errors.Is(err, ErrQuoteNotPaid) {
		t.Fatalf("expected not paid, got %v", err)
	}

	unpriced := seedPaidQuote(t, env, 0, "5", "60")
	if err := env.db.Model(&models.Quote{}).Where("id = ?", unpriced.ID).Update("estimated_total", nil).Error; err != nil {
		t.Fatalf("clear total failed: %v", err)
	}
	if _, err := env.svc.ConvertToOrder(ctx, unpriced.ID, SystemActor()); !errors.Is(err, ErrQuoteNotPriced) {
		t.Fatalf("expected not priced, got %v", err)
	}
	if got := countOrders(t, env.db); got != 0 {
		t.Fatalf("no order should be written, got %d", got)
	}
}

func TestMarkPaidDoesNotConvert(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)
	ctx := context.Background()
	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{Meters: decimal.NewFromInt(2)}, AdminActor(1)); err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	paid, err := env.svc.MarkPaid(ctx, quote.ID, "", AdminActor(1))
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.QuoteStatusPaid || paid.OrderID != nil || paid.PaidAt == nil {
		t.Fatalf("unexpected quote after mark paid: %+v", paid)
	}
	if got := countOrders(t, env.db); got != 0 {
		t.Fatalf("mark paid must not create orders, got %d", got)
	}
}

func TestGeneratePaymentLink(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)
	ctx := context.Background()
	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{Meters: decimal.NewFromInt(5)}, AdminActor(1)); err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	sent, err := env.svc.GeneratePaymentLink(ctx, quote.ID, AdminActor(1))
	if err != nil {
		t.Fatalf("generate link failed: %v", err)
	}
	if sent.Status != constants.QuoteStatusPaymentSent || sent.PaymentLinkURL == "" || sent.PaymentReference != "cs_test_1" {
		t.Fatalf("unexpected quote after link: %+v", sent)
	}
	if env.gateway.last.Currency != "EUR" || env.gateway.last.Reference != quote.QuoteNumber {
		t.Fatalf("unexpected gateway input: %+v", env.gateway.last)
	}

	env.gateway.status = PaymentStatus{Reference: "cs_test_1", Status: constants.PaymentStatusSuccess}
	synced, err := env.svc.SyncPaymentStatus(ctx, quote.ID, SystemActor())
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if synced.Status != constants.QuoteStatusPaid {
		t.Fatalf("confirmed payment should mark paid, got %s", synced.Status)
	}
}

func TestGeneratePaymentLinkFailureKeepsState(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)
	ctx := context.Background()
	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{Meters: decimal.NewFromInt(5)}, AdminActor(1)); err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	env.gateway.err = errors.New("connection refused")

	if _, err := env.svc.GeneratePaymentLink(ctx, quote.ID, AdminActor(1)); !errors.Is(err, ErrPaymentGatewayFailed) {
		t.Fatalf("expected gateway failure, got %v", err)
	}
	reloaded, err := env.svc.Get(quote.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reloaded.Status != constants.QuoteStatusQuoted || reloaded.PaymentLinkURL != "" {
		t.Fatalf("quote must stay quoted: %+v", reloaded)
	}
}

func TestSetManualPaymentRequiresReference(t *testing.T) {
	env := setupQuoteServiceTest(t)
	quote := createQuoteForTest(t, env, 0)
	ctx := context.Background()
	if _, _, err := env.svc.Quote(ctx, quote.ID, PriceQuoteInput{Meters: decimal.NewFromInt(5)}, AdminActor(1)); err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if _, err := env.svc.SetManualPayment(ctx, quote.ID, "  ", "", AdminActor(1)); !errors.Is(err, ErrQuotePaymentReference) {
		t.Fatalf("expected reference required, got %v", err)
	}
	sent, err := env.svc.SetManualPayment(ctx, quote.ID, "BZ-778", "", AdminActor(1))
	if err != nil {
		t.Fatalf("set manual payment failed: %v", err)
	}
	if sent.PaymentMethod != constants.PaymentMethodBizum || sent.PaymentReference != "BZ-778" {
		t.Fatalf("unexpected manual payment: %+v", sent)
	}
}

func TestInvalidQuoteTransitionsLeaveQuoteUnchanged(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()

	paid := seedPaidQuote(t, env, 0, "5", "60")
	if _, err := env.svc.Cancel(ctx, paid.ID, "late", AdminActor(1)); !errors.Is(err, ErrInvalidQuoteTransition) {
		t.Fatalf("cancel of paid quote should fail, got %v", err)
	}
	if _, err := env.svc.Expire(ctx, paid.ID, AdminActor(1)); !errors.Is(err, ErrInvalidQuoteTransition) {
		t.Fatalf("expire of paid quote should fail, got %v", err)
	}

	pending := createQuoteForTest(t, env, 0)
	cancelled, err := env.svc.Cancel(ctx, pending.ID, "duplicate", AdminActor(1))
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.CancelReason != "duplicate" || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled quote: %+v", cancelled)
	}
	if _, _, err := env.svc.Quote(ctx, pending.ID, PriceQuoteInput{Meters: decimal.NewFromInt(2)}, AdminActor(1)); !errors.Is(err, ErrInvalidQuoteTransition) {
		t.Fatalf("pricing a cancelled quote should fail, got %v", err)
	}
	if _, err := env.svc.GeneratePaymentLink(ctx, pending.ID, AdminActor(1)); !errors.Is(err, ErrInvalidQuoteTransition) {
		t.Fatalf("link for cancelled quote should fail, got %v", err)
	}
	if env.gateway.calls != 0 {
		t.Fatalf("gateway must not be called, got %d calls", env.gateway.calls)
	}

	reloaded, err := env.svc.Get(paid.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reloaded.Status != constants.QuoteStatusPaid {
		t.Fatalf("paid quote changed: %s", reloaded.Status)
	}
}

func TestExpireDueSkipsPaidQuotes(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()
	pending := createQuoteForTest(t, env, 0)
	paid := seedPaidQuote(t, env, 0, "5", "60")

	env.clock.Advance(14 * 24 * time.Hour)
	if n, err := env.svc.ExpireDue(ctx, 100); err != nil || n != 0 {
		t.Fatalf("nothing should expire yet: n=%d err=%v", n, err)
	}

	env.clock.Advance(2 * 24 * time.Hour)
	n, err := env.svc.ExpireDue(ctx, 100)
	if err != nil {
		t.Fatalf("expire due failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired quote, got %d", n)
	}
	expired, _ := env.svc.Get(pending.ID)
	if expired.Status != constants.QuoteStatusExpired {
		t.Fatalf("pending quote should expire, got %s", expired.Status)
	}
	stillPaid, _ := env.svc.Get(paid.ID)
	if stillPaid.Status != constants.QuoteStatusPaid {
		t.Fatalf("paid quote must be untouched, got %s", stillPaid.Status)
	}

	if n, err := env.svc.ExpireDue(ctx, 100); err != nil || n != 0 {
		t.Fatalf("sweep should be idempotent: n=%d err=%v", n, err)
	}
}

func TestExpireDueReleasesVoucherHold(t *testing.T) {
	env := setupQuoteServiceTest(t)
	ctx := context.Background()
	quote, voucher := pricePartialVoucherQuote(t, env, "expire@example.com", "VEXPIRE")

	env.clock.Advance(16 * 24 * time.Hour)
	if n, err := env.svc.ExpireDue(ctx, 100); err != nil || n != 1 {
		t.Fatalf("expected 1 expired quote: n=%d err=%v", n, err)
	}
	expired, _ := env.svc.Get(quote.ID)
	if expired.Status != constants.QuoteStatusExpired {
		t.Fatalf("quote should expire, got %s", expired.Status)
	}
	if restored := reloadVoucher(t, env.db, voucher.ID); !restored.RemainingMeters.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expiry should restore the voucher, remaining=%s", restored.RemainingMeters)
	}
}

func TestIsQuoteTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.QuoteStatusPendingReview, constants.QuoteStatusQuoted, true},
		{constants.QuoteStatusPendingReview, constants.QuoteStatusPaid, false},
		{constants.QuoteStatusQuoted, constants.QuoteStatusPaymentSent, true},
		{constants.QuoteStatusPaymentSent, constants.QuoteStatusPaid, true},
		{constants.QuoteStatusPaid, constants.QuoteStatusCancelled, false},
		{constants.QuoteStatusPaid, constants.QuoteStatusConverted, true},
		{constants.QuoteStatusConverted, constants.QuoteStatusCancelled, false},
		{constants.QuoteStatusExpired, constants.QuoteStatusQuoted, false},
	}
	for _, c := range cases {
		if got := isQuoteTransitionAllowed(c.from, c.to); got != c.want {
			t.Fatalf("%s -> %s: want %v got %v", c.from, c.to, c.want, got)
		}
	}
}
