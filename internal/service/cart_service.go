package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID      uint            `json:"product_id"`
	Meters         decimal.Decimal `json:"meters"`
	NeedsCutting   bool            `json:"needs_cutting"`
	NeedsLayout    bool            `json:"needs_layout"`
	IsPriority     bool            `json:"is_priority"`
	DesignFileURL  string          `json:"design_file_url"`
	UnitPrice      models.Money    `json:"unit_price"`
	Subtotal       models.Money    `json:"subtotal"`
	DiscountAmount models.Money    `json:"discount_amount"`
	ExtrasAmount   models.Money    `json:"extras_amount"`
	LineTotal      models.Money    `json:"line_total"`
	Currency       string          `json:"currency"`
	Product        *models.Product `json:"product"`
}

// UpsertCartItemInput 购物车更新输入
type UpsertCartItemInput struct {
	UserID        uint
	ProductID     uint
	Meters        decimal.Decimal
	NeedsCutting  bool
	NeedsLayout   bool
	IsPriority    bool
	DesignFileURL string
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	settings    *ConfigProvider
	clock       clock.Clock
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, settings *ConfigProvider, c clock.Clock) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		settings:    settings,
		clock:       clock.OrReal(c),
	}
}

// cartLinePrice 单行计价结果（阶梯折扣已扣除）
type cartLinePrice struct {
	Price  pricing.PriceResult
	Extras pricing.Extras
	Net    decimal.Decimal
}

// priceCartLine 按阶梯价与附加服务计算购物车行金额
func priceCartLine(product *models.Product, meters decimal.Decimal, selection pricing.Selection, policy pricing.ExtrasPricingPolicy) (cartLinePrice, error) {
	price, err := pricing.ResolvePrice(meters, toPricingRanges(product.PriceRanges))
	if err != nil {
		return cartLinePrice{}, err
	}
	extras, err := policy.Price(meters, selection)
	if err != nil {
		return cartLinePrice{}, err
	}
	return cartLinePrice{
		Price:  price,
		Extras: extras,
		Net:    price.PayableSubtotal(true).Add(extras.Total),
	}, nil
}

func cartSelection(item models.CartItem) pricing.Selection {
	return pricing.Selection{
		Priority: item.IsPriority,
		Layout:   item.NeedsLayout,
		Cutting:  item.NeedsCutting,
	}
}

// ListByUser 获取用户购物车（按当前阶梯价实时计价）
func (s *CartService) ListByUser(ctx context.Context, userID uint) ([]CartItemDetail, error) {
	if userID == 0 {
		return nil, ErrCartItemInvalid
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	settings := s.pricingSettings(ctx)
	policy, err := settings.ExtrasPolicy()
	if err != nil {
		return nil, err
	}

	details := make([]CartItemDetail, 0, len(items))
	for _, item := range items {
		product, err := s.resolveProduct(item)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}
		line, err := priceCartLine(product, item.Meters, cartSelection(item), policy)
		if err != nil {
			return nil, err
		}
		details = append(details, CartItemDetail{
			ProductID:      item.ProductID,
			Meters:         item.Meters,
			NeedsCutting:   item.NeedsCutting,
			NeedsLayout:    item.NeedsLayout,
			IsPriority:     item.IsPriority,
			DesignFileURL:  item.DesignFileURL,
			UnitPrice:      models.NewMoneyFromDecimal(line.Price.UnitPrice),
			Subtotal:       models.NewMoneyFromDecimal(line.Price.Subtotal),
			DiscountAmount: models.NewMoneyFromDecimal(line.Price.DiscountAmount),
			ExtrasAmount:   models.NewMoneyFromDecimal(line.Extras.Total),
			LineTotal:      models.NewMoneyFromDecimal(line.Net),
			Currency:       settings.Currency,
			Product:        product,
		})
	}
	return details, nil
}

// UpsertItem 添加或更新购物车项
func (s *CartService) UpsertItem(input UpsertCartItemInput) error {
	if input.UserID == 0 || input.ProductID == 0 {
		return ErrCartItemInvalid
	}
	meters := input.Meters.Round(2)
	if !meters.IsPositive() {
		return fmt.Errorf("%w: meters must be positive", ErrCartItemInvalid)
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotFound
	}
	if len(product.PriceRanges) == 0 {
		return pricing.ErrNoPriceRangesConfigured
	}

	now := s.clock.Now()
	item := &models.CartItem{
		UserID:        input.UserID,
		ProductID:     input.ProductID,
		Meters:        meters,
		NeedsCutting:  input.NeedsCutting,
		NeedsLayout:   input.NeedsLayout,
		IsPriority:    input.IsPriority,
		DesignFileURL: strings.TrimSpace(input.DesignFileURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.cartRepo.Upsert(item)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrCartItemInvalid
	}
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrCartItemInvalid
	}
	return s.cartRepo.ClearByUser(userID)
}

func (s *CartService) resolveProduct(item models.CartItem) (*models.Product, error) {
	if item.Product != nil && item.Product.ID != 0 && len(item.Product.PriceRanges) > 0 {
		return item.Product, nil
	}
	return s.productRepo.GetByID(item.ProductID)
}

func (s *CartService) pricingSettings(ctx context.Context) PricingSettings {
	if s.settings == nil {
		return PricingDefaultSetting(config.PricingConfig{})
	}
	return s.settings.Pricing(ctx)
}
