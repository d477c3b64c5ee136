package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 商品业务服务
type ProductService struct {
	repo     repository.ProductRepository
	settings *ConfigProvider
	clock    clock.Clock
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, settings *ConfigProvider, c clock.Clock) *ProductService {
	return &ProductService{repo: repo, settings: settings, clock: clock.OrReal(c)}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	Slug           string
	Name           string
	Description    string
	Unit           string
	Images         []string
	IsPrintProduct bool
	IsActive       *bool
	SortOrder      int
}

// PriceRangeInput 阶梯价输入
type PriceRangeInput struct {
	FromQty     decimal.Decimal
	ToQty       *decimal.Decimal
	Price       decimal.Decimal
	DiscountPct *decimal.Decimal
}

// PricePreview 公开报价预览
type PricePreview struct {
	Currency       string          `json:"currency"`
	Meters         decimal.Decimal `json:"meters"`
	UnitPrice      models.Money    `json:"unit_price"`
	Subtotal       models.Money    `json:"subtotal"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount models.Money    `json:"discount_amount"`
	ExtrasAmount   models.Money    `json:"extras_amount"`
	PriorityAmount models.Money    `json:"priority_amount"`
	LayoutAmount   models.Money    `json:"layout_amount"`
	CuttingAmount  models.Money    `json:"cutting_amount"`
	ExtrasPolicy   string          `json:"extras_policy"`
	Total          models.Money    `json:"total"`
	Fallback       bool            `json:"fallback"`
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		OnlyActive: true,
		WithRanges: true,
	})
}

// GetPublicBySlug 获取公开商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, ErrProductFetchFailed
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(search string, onlyPrinted bool, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:        page,
		PageSize:    pageSize,
		Search:      search,
		WithRanges:  true,
		OnlyPrinted: onlyPrinted,
	})
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrProductFetchFailed
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	productSlug := normalizeProductSlug(input.Slug, name)
	if productSlug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrProductInvalidInput)
	}
	if err := s.ensureSlugFree(productSlug, 0); err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := models.Product{
		Slug:           productSlug,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Unit:           normalizeProductUnit(input.Unit),
		Images:         models.StringArray(input.Images),
		IsPrintProduct: input.IsPrintProduct,
		IsActive:       isActive,
		SortOrder:      input.SortOrder,
	}
	if err := s.repo.Create(&product); err != nil {
		logger.Errorw("product_create_failed", "slug", productSlug, "error", err)
		return nil, ErrProductSaveFailed
	}
	return &product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input CreateProductInput) (*models.Product, error) {
	product, err := s.GetAdminByID(id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	productSlug := normalizeProductSlug(input.Slug, name)
	if productSlug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrProductInvalidInput)
	}
	if err := s.ensureSlugFree(productSlug, id); err != nil {
		return nil, err
	}

	product.Slug = productSlug
	product.Name = name
	product.Description = strings.TrimSpace(input.Description)
	product.Unit = normalizeProductUnit(input.Unit)
	product.Images = models.StringArray(input.Images)
	product.IsPrintProduct = input.IsPrintProduct
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(product); err != nil {
		logger.Errorw("product_update_failed", "product_id", id, "error", err)
		return nil, ErrProductSaveFailed
	}
	return product, nil
}

// ReplaceRanges 重设商品阶梯价：旧区间退役，写入新区间
func (s *ProductService) ReplaceRanges(productID uint, inputs []PriceRangeInput) ([]models.PriceRange, error) {
	if _, err := s.GetAdminByID(productID); err != nil {
		return nil, err
	}
	rows := make([]models.PriceRange, 0, len(inputs))
	for _, input := range inputs {
		row := models.PriceRange{
			ProductID: productID,
			FromQty:   input.FromQty.Round(2),
			Price:     models.NewMoneyFromDecimal(input.Price),
		}
		if input.ToQty != nil {
			row.ToQty = decimal.NewNullDecimal(input.ToQty.Round(2))
		}
		if input.DiscountPct != nil {
			pct := input.DiscountPct.Round(2)
			if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("%w: discount_pct must be in [0,100)", pricing.ErrInvalidRange)
			}
			row.DiscountPct = decimal.NewNullDecimal(pct)
		}
		rows = append(rows, row)
	}
	if err := pricing.ValidateRanges(toPricingRanges(rows)); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceRanges(productID, rows, now)
	}); err != nil {
		logger.Errorw("product_ranges_replace_failed", "product_id", productID, "error", err)
		return nil, ErrProductSaveFailed
	}
	logger.Infow("product_ranges_replaced", "product_id", productID, "ranges", len(rows))
	return s.repo.ListActiveRanges(productID)
}

// PreviewPrice 按米数与附加服务试算价格
func (s *ProductService) PreviewPrice(ctx context.Context, productSlug string, meters decimal.Decimal, selection pricing.Selection) (*PricePreview, error) {
	product, err := s.GetPublicBySlug(productSlug)
	if err != nil {
		return nil, err
	}
	settings := PricingDefaultSetting(config.PricingConfig{})
	if s.settings != nil {
		settings = s.settings.Pricing(ctx)
	}
	policy, err := settings.ExtrasPolicy()
	if err != nil {
		return nil, err
	}
	meters = meters.Round(2)
	line, err := priceCartLine(product, meters, selection, policy)
	if err != nil {
		return nil, err
	}

	preview := &PricePreview{
		Currency:       settings.Currency,
		Meters:         meters,
		UnitPrice:      models.NewMoneyFromDecimal(line.Price.UnitPrice),
		Subtotal:       models.NewMoneyFromDecimal(line.Price.Subtotal),
		DiscountAmount: models.NewMoneyFromDecimal(line.Price.DiscountAmount),
		ExtrasAmount:   models.NewMoneyFromDecimal(line.Extras.Total),
		PriorityAmount: models.NewMoneyFromDecimal(line.Extras.Priority),
		LayoutAmount:   models.NewMoneyFromDecimal(line.Extras.Layout),
		CuttingAmount:  models.NewMoneyFromDecimal(line.Extras.Cutting),
		ExtrasPolicy:   line.Extras.Version,
		Total:          models.NewMoneyFromDecimal(line.Net),
		DiscountPct:    line.Price.DiscountPct,
		Fallback:       line.Price.Fallback,
	}
	return preview, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.GetAdminByID(id)
	if err != nil {
		return err
	}
	if product.IsPrintProduct {
		return fmt.Errorf("%w: print product is referenced by quote conversion", ErrProductInvalidInput)
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrProductSaveFailed
	}
	return nil
}

func (s *ProductService) ensureSlugFree(productSlug string, excludeID uint) error {
	count, err := s.repo.CountBySlug(productSlug, excludeID)
	if err != nil {
		return ErrProductFetchFailed
	}
	if count > 0 {
		return ErrProductSlugConflict
	}
	return nil
}

// normalizeProductSlug 未填写 slug 时由名称生成
func normalizeProductSlug(raw, name string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = name
	}
	return slug.Make(value)
}

func normalizeProductUnit(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return constants.ProductUnitMeter
	}
	return value
}

// IsPricingInputError 判断是否为阶梯价/数量输入错误
func IsPricingInputError(err error) bool {
	return errors.Is(err, pricing.ErrInvalidRange) ||
		errors.Is(err, pricing.ErrOverlappingRanges) ||
		errors.Is(err, pricing.ErrInvalidQuantity) ||
		errors.Is(err, pricing.ErrNoPriceRangesConfigured)
}
