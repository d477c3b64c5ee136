package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
)

func checkoutPendingOrder(t *testing.T, env *checkoutTestEnv, email string, couponCode string) (*models.User, *models.Order) {
	t.Helper()
	user := seedLoyaltyUser(t, env.db, email, "0", constants.LoyaltyTierBronze)
	addToCart(t, env, user.ID, "10", true)
	input := checkoutInput(user.ID)
	input.CouponCode = couponCode
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	return user, order
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.OrderStatusPendingPayment, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPendingPayment, constants.OrderStatusShipped, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusInProduction, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusCanceled, true},
		{constants.OrderStatusInProduction, constants.OrderStatusCanceled, false},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCompleted, true},
		{constants.OrderStatusCompleted, constants.OrderStatusCanceled, false},
		{constants.OrderStatusCanceled, constants.OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestMarkOrderPaidAccruesAndWalksLifecycle(t *testing.T) {
	env := setupCheckoutTest(t)
	user, order := checkoutPendingOrder(t, env, "lifecycle@example.com", "")
	ctx := context.Background()
	admin := AdminActor(1)

	paid, err := env.orders.MarkOrderPaid(ctx, order.ID, "BZ-778", "", admin)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusConfirmed || paid.PaymentStatus != constants.OrderPaymentStatusPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected paid order: %s %s", paid.Status, paid.PaymentStatus)
	}
	if paid.PaymentMethod != constants.PaymentMethodBizum || paid.PaymentReference != "BZ-778" {
		t.Fatalf("unexpected payment fields: %s %s", paid.PaymentMethod, paid.PaymentReference)
	}
	// 10 米：120 - 12 + 10 = 118，满额免运费，税 24.78，合计 142.78
	if paid.TotalAmount.String() != "142.78" || paid.PointsEarned != 142 {
		t.Fatalf("unexpected total/points: %s %d", paid.TotalAmount, paid.PointsEarned)
	}
	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 142 || reloaded.TotalSpent.String() != "142.78" {
		t.Fatalf("unexpected loyalty state: %d %s", reloaded.LoyaltyPoints, reloaded.TotalSpent)
	}

	if _, err := env.orders.MarkOrderPaid(ctx, order.ID, "BZ-778", "", admin); !errors.Is(err, ErrOrderNotPayable) {
		t.Fatalf("second mark paid should be rejected, got %v", err)
	}

	for _, next := range []string{
		constants.OrderStatusInProduction,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
	} {
		if _, err := env.orders.UpdateOrderStatus(ctx, order.ID, next, admin, ""); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if _, err := env.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusShipped, admin, ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("completed order must not move back, got %v", err)
	}
	if _, err := env.orders.UpdateOrderStatus(ctx, order.ID, "lost", admin, ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	final, err := env.orders.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if final.ShippedAt == nil || len(final.History) != 6 {
		t.Fatalf("unexpected final order: shipped_at=%v history=%d", final.ShippedAt, len(final.History))
	}
	if final.History[1].FromStatus != constants.OrderStatusPendingPayment || final.History[1].ActorType != constants.ActorTypeAdmin {
		t.Fatalf("unexpected history row: %+v", final.History[1])
	}
	if len(env.notifier.orders) != 1 {
		t.Fatalf("confirmation should be sent once, got %v", env.notifier.orders)
	}
}

func TestCancelOrderReleasesCouponAndPoints(t *testing.T) {
	env := setupCheckoutTest(t)
	coupon := seedCoupon(t, env.db, models.Coupon{
		Code:       "WELCOME5",
		Type:       constants.CouponTypeFixed,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		UsageLimit: 10,
	})
	user := seedLoyaltyUser(t, env.db, "cancel@example.com", "0", constants.LoyaltyTierBronze)
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("loyalty_points", 100).Error; err != nil {
		t.Fatalf("seed points failed: %v", err)
	}
	addToCart(t, env, user.ID, "2", false)
	input := checkoutInput(user.ID)
	input.CouponCode = "WELCOME5"
	input.PointsToRedeem = 100
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	other := seedLoyaltyUser(t, env.db, "intruder@example.com", "0", constants.LoyaltyTierBronze)
	if _, err := env.orders.CancelOrder(context.Background(), order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign cancel should be not found, got %v", err)
	}

	canceled, err := env.orders.CancelOrder(context.Background(), order.ID, user.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("unexpected canceled order: %s", canceled.Status)
	}

	var storedCoupon models.Coupon
	if err := env.db.First(&storedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	var usageCount int64
	env.db.Model(&models.CouponUsage{}).Where("order_id = ?", order.ID).Count(&usageCount)
	if storedCoupon.UsedCount != 0 || usageCount != 0 {
		t.Fatalf("coupon usage should be released: used=%d rows=%d", storedCoupon.UsedCount, usageCount)
	}

	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 100 {
		t.Fatalf("redeemed points should be refunded, got %d", reloaded.LoyaltyPoints)
	}
	var refunds int64
	env.db.Model(&models.PointTransaction{}).Where("user_id = ? AND type = ?", user.ID, constants.PointTxnTypeRefunded).Count(&refunds)
	if refunds != 1 {
		t.Fatalf("expected one refund transaction, got %d", refunds)
	}

	if _, err := env.orders.CancelOrder(context.Background(), order.ID, user.ID); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("second cancel should be rejected, got %v", err)
	}
}

func TestAdminCancelConfirmedOrderMarksRefunded(t *testing.T) {
	env := setupCheckoutTest(t)
	user, order := checkoutPendingOrder(t, env, "refund@example.com", "")
	ctx := context.Background()

	if _, err := env.orders.MarkOrderPaid(ctx, order.ID, "", constants.PaymentMethodCash, AdminActor(2)); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := env.orders.CancelOrder(ctx, order.ID, user.ID); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("customer cannot cancel confirmed order, got %v", err)
	}
	canceled, err := env.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusCanceled, AdminActor(2), "customer request")
	if err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if canceled.PaymentStatus != constants.OrderPaymentStatusRefunded {
		t.Fatalf("payment status want refunded got %s", canceled.PaymentStatus)
	}
}

func TestSyncOrderPaymentStatus(t *testing.T) {
	env := setupCheckoutTest(t)
	user := seedLoyaltyUser(t, env.db, "sync@example.com", "0", constants.LoyaltyTierBronze)
	addToCart(t, env, user.ID, "3", false)
	input := checkoutInput(user.ID)
	input.PaymentMethod = constants.PaymentMethodCard
	order, err := env.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	env.gateway.status = PaymentStatus{Reference: "cs_order_1", Status: constants.PaymentStatusPending}
	pending, err := env.orders.SyncPaymentStatus(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if pending.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("pending payment must not confirm, got %s", pending.Status)
	}

	env.gateway.status = PaymentStatus{Reference: "cs_order_1", Status: constants.PaymentStatusSuccess}
	confirmed, err := env.orders.SyncPaymentStatus(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed || confirmed.PaymentMethod != constants.PaymentMethodCard {
		t.Fatalf("unexpected synced order: %s %s", confirmed.Status, confirmed.PaymentMethod)
	}

	env.gateway.err = errors.New("stripe down")
	again, err := env.orders.SyncPaymentStatus(context.Background(), order.ID)
	if err != nil || again.Status != constants.OrderStatusConfirmed {
		t.Fatalf("confirmed order should not hit the gateway: %v", err)
	}
}

func TestUpdateShipping(t *testing.T) {
	env := setupCheckoutTest(t)
	_, order := checkoutPendingOrder(t, env, "ship@example.com", "")

	tracking := " 1Z999 "
	invoice := "https://files.example.com/invoice.pdf"
	updated, err := env.orders.UpdateShipping(order.ID, UpdateShippingInput{TrackingNumber: &tracking, InvoiceURL: &invoice})
	if err != nil {
		t.Fatalf("update shipping failed: %v", err)
	}
	if updated.TrackingNumber != "1Z999" || updated.InvoiceURL != invoice {
		t.Fatalf("unexpected shipping fields: %q %q", updated.TrackingNumber, updated.InvoiceURL)
	}
	if _, err := env.orders.UpdateShipping(9999, UpdateShippingInput{TrackingNumber: &tracking}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNormalizeOrderFilter(t *testing.T) {
	from := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	filter := normalizeOrderFilter(repository.OrderListFilter{
		Status:        " Shipped ",
		OrderNo:       " pr20260601120000123456 ",
		CustomerEmail: " Ana@Example.COM ",
		CreatedFrom:   &from,
		CreatedTo:     &to,
	})
	if filter.Status != "shipped" || filter.OrderNo != "PR20260601120000123456" || filter.CustomerEmail != "ana@example.com" {
		t.Fatalf("unexpected normalized filter: %+v", filter)
	}
	if !filter.CreatedFrom.Equal(to) || !filter.CreatedTo.Equal(from) {
		t.Fatalf("reversed range should be swapped: from=%s to=%s", filter.CreatedFrom, filter.CreatedTo)
	}

	svc := &OrderService{}
	orders, total, err := svc.ListOrdersByUser(repository.OrderListFilter{})
	if err != nil || total != 0 || len(orders) != 0 {
		t.Fatalf("guest listing should be empty, got %d %d %v", len(orders), total, err)
	}
	if _, err := svc.GetOrderByUser(1, 0); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for anonymous lookup, got %v", err)
	}
}
