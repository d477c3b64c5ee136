package service

import (
	"context"
	"errors"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/metrics"
	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
)

// ConvertToOrder 将已支付报价单转为订单
//
// 报价单行锁 + order_id 条件写入共同保证每个报价单最多生成一个订单；
// 前置条件不满足时不产生任何写入。通知在事务提交后发送，失败仅记录日志。
func (s *QuoteService) ConvertToOrder(ctx context.Context, id uint, actor Actor) (*models.Order, error) {
	actor = actor.normalized()
	settings := s.pricingSettings(ctx)
	start := s.clock.Now()

	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		quote, err := s.quoteRepo.WithTx(tx).GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if quote == nil {
			return ErrQuoteNotFound
		}
		if quote.IsConverted() || quote.Status == constants.QuoteStatusConverted {
			return ErrQuoteAlreadyConverted
		}
		if quote.Status != constants.QuoteStatusPaid {
			return ErrQuoteNotPaid
		}
		if !quote.EstimatedMeters.Valid || quote.EstimatedTotal == nil {
			return ErrQuoteNotPriced
		}
		order, err = s.convertInTx(ctx, tx, quote, settings, actor)
		return err
	})
	if err != nil {
		order = nil
		if !errors.Is(err, ErrQuoteNotFound) && !errors.Is(err, ErrQuoteNotPaid) && !errors.Is(err, ErrQuoteNotPriced) {
			s.recordConversion(err, start)
		}
		return nil, s.mapQuoteError("quote_convert_failed", id, err)
	}

	s.recordConversion(nil, start)
	metrics.Store().IncQuoteTransition(constants.QuoteStatusPaid, constants.QuoteStatusConverted)
	s.notifyOrder(order)
	return order, nil
}

// convertInTx 转单事务步骤，调用方已持有报价单行锁并完成前置校验
func (s *QuoteService) convertInTx(ctx context.Context, tx *gorm.DB, quote *models.Quote, settings PricingSettings, actor Actor) (*models.Order, error) {
	product, err := s.productRepo.WithTx(tx).GetPrintProduct()
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrPrintProductMissing
	}

	now := s.clock.Now()
	meters := quote.EstimatedMeters.Decimal
	paidWithVoucher := quote.PaymentMethod == constants.PaymentMethodVoucher && quote.VoucherID != nil
	note := "Quote " + quote.QuoteNumber

	pricePerMeter := moneyOrZero(quote.PricePerMeter)
	subtotal := moneyOrZero(quote.Subtotal)
	tax := moneyOrZero(quote.TaxAmount)
	shipping := moneyOrZero(quote.ShippingCost)
	total := moneyOrZero(quote.EstimatedTotal)
	extras := quote.ExtrasAmount
	if paidWithVoucher {
		subtotal, tax, shipping, total, extras = models.ZeroMoney(), models.ZeroMoney(), models.ZeroMoney(), models.ZeroMoney(), models.ZeroMoney()
	}
	paidAt := now
	if quote.PaidAt != nil {
		paidAt = *quote.PaidAt
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          quote.UserID,
		CustomerName:    quote.CustomerName,
		CustomerEmail:   quote.CustomerEmail,
		CustomerPhone:   quote.CustomerPhone,
		ShippingAddress: quote.ShippingAddress,
		ShippingCity:    quote.ShippingCity,
		ShippingPostal:  quote.ShippingPostal,
		ShippingMethod:  normalizeShippingMethod(quote.ShippingMethod),
		Status:          constants.OrderStatusConfirmed,
		PaymentStatus:   constants.OrderPaymentStatusPaid,
		PaymentMethod:   quote.PaymentMethod,
		Currency:        settings.Currency,
		Meters:          meters,
		PricePerMeter:   pricePerMeter,
		Subtotal:        subtotal,
		DiscountAmount:  models.ZeroMoney(),
		ExtrasAmount:    extras,
		TaxAmount:       tax,
		ShippingCost:    shipping,
		TotalAmount:     total,
		TaxExempt:       quote.TaxExempt,
		CompanyName:     quote.CompanyName,
		TaxID:           quote.TaxID,
		DesignFileURL:   quote.DesignFileURL,
		VoucherID:       quote.VoucherID,
		SourceNote:      note,
		PaidAt:          &paidAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	lineTotal := models.NewMoneyFromDecimal(subtotal.Decimal.Sub(extras.Decimal))
	if lineTotal.IsNegative() {
		lineTotal = models.ZeroMoney()
	}
	items := []models.OrderItem{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    meters,
		UnitPrice:   pricePerMeter,
		TotalPrice:  lineTotal,
		ExtrasJSON:  quoteExtrasSnapshot(quote, extras),
		CreatedAt:   now,
	}}

	orderRepo := s.orderRepo.WithTx(tx)
	if err := orderRepo.Create(order, items); err != nil {
		return nil, err
	}
	if err := orderRepo.CreateHistory(&models.OrderStatusHistory{
		OrderID:   order.ID,
		ToStatus:  constants.OrderStatusConfirmed,
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Note:      note,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if quote.VoucherID != nil && (quote.MetersFromVoucher.IsPositive() || quote.ShipmentsFromVoucher > 0) {
		// 定价时已扣减的只补写订单，缺少占用记录的旧报价单在此扣减
		settled, err := s.vouchers.SettleQuoteHoldInTx(tx, quote.ID, order.ID)
		if err != nil {
			return nil, err
		}
		if !settled {
			if _, err := s.vouchers.RedeemInTx(tx, *quote.VoucherID, quote.MetersFromVoucher, quote.ShipmentsFromVoucher, RedemptionRef{
				OrderID: &order.ID,
				QuoteID: &quote.ID,
				Source:  "quote",
			}); err != nil {
				return nil, err
			}
		}
	}

	ok, err := s.quoteRepo.WithTx(tx).BindOrder(quote.ID, order.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuoteConversionConflict
	}

	if quote.UserID != nil && s.loyalty != nil {
		accrual, err := s.loyalty.AccrueInTx(ctx, tx, AccrualRequest{
			UserID:          *quote.UserID,
			MonetarySpend:   total.Decimal,
			PaidWithVoucher: paidWithVoucher,
			OrderID:         order.ID,
			Description:     note,
			PointsPerUnit:   settings.PointsPerCurrencyUnit,
		})
		if err != nil {
			return nil, err
		}
		if accrual.PointsEarned > 0 {
			if err := orderRepo.SetPointsEarned(order.ID, accrual.PointsEarned); err != nil {
				return nil, err
			}
			order.PointsEarned = accrual.PointsEarned
		}
	}

	logger.Infow("quote_converted",
		"quote_id", quote.ID,
		"quote_number", quote.QuoteNumber,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"paid_with_voucher", paidWithVoucher,
		"points_earned", order.PointsEarned,
		"actor_type", actor.Type,
		"actor_id", actor.ID,
	)
	return order, nil
}

func moneyOrZero(m *models.Money) models.Money {
	if m == nil {
		return models.ZeroMoney()
	}
	return models.NewMoneyFromDecimal(m.Decimal)
}

func quoteExtrasSnapshot(quote *models.Quote, extras models.Money) models.JSON {
	return models.JSON{
		"priority":            quote.IsPriority,
		"layout":              quote.NeedsLayout,
		"cutting":             quote.NeedsCutting,
		"extras_amount":       extras.String(),
		"meters_from_voucher": quote.MetersFromVoucher.Round(2).StringFixed(2),
		"discount_display":    quote.DiscountAmount.String(),
	}
}
