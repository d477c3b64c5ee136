package repository

import (
	"errors"
	"time"

	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	GetByID(id uint) (*models.Product, error)
	GetPrintProduct() (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	CountBySlug(slug string, excludeID uint) (int64, error)
	ListActiveRanges(productID uint) ([]models.PriceRange, error)
	ReplaceRanges(productID uint, ranges []models.PriceRange, now time.Time) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func preloadActiveRanges(query *gorm.DB) *gorm.DB {
	return query.Preload("PriceRanges", func(db *gorm.DB) *gorm.DB {
		return db.Where("retired_at IS NULL").Order("from_qty ASC, id ASC")
	})
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})
	if filter.WithRanges {
		query = preloadActiveRanges(query)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.OnlyPrinted {
		query = query.Where("is_print_product = ?", true)
	}
	query = applyKeyword(query, filter.Search, "slug", "name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("sort_order DESC, created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetBySlug 根据 slug 获取商品（附带当前生效的阶梯价）
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	query := preloadActiveRanges(r.db).Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	return firstOrNil[models.Product](query)
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	return firstOrNil[models.Product](preloadActiveRanges(r.db), id)
}

// GetPrintProduct 获取报价转单使用的标准印刷商品
func (r *GormProductRepository) GetPrintProduct() (*models.Product, error) {
	return firstOrNil[models.Product](preloadActiveRanges(r.db).
		Where("is_print_product = ?", true).
		Order("id ASC"))
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := preloadActiveRanges(r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Omit("PriceRanges").Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("PriceRanges").Save(product).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountBySlug 统计 slug 数量
func (r *GormProductRepository) CountBySlug(slug string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListActiveRanges 获取商品当前生效的阶梯价
func (r *GormProductRepository) ListActiveRanges(productID uint) ([]models.PriceRange, error) {
	var ranges []models.PriceRange
	if err := r.db.Where("product_id = ? AND retired_at IS NULL", productID).
		Order("from_qty ASC, id ASC").
		Find(&ranges).Error; err != nil {
		return nil, err
	}
	return ranges, nil
}

// ReplaceRanges 退役当前阶梯价并写入新行，已有行不做修改
func (r *GormProductRepository) ReplaceRanges(productID uint, ranges []models.PriceRange, now time.Time) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	if err := r.db.Model(&models.PriceRange{}).
		Where("product_id = ? AND retired_at IS NULL", productID).
		UpdateColumn("retired_at", now).Error; err != nil {
		return err
	}
	if len(ranges) == 0 {
		return nil
	}
	for i := range ranges {
		ranges[i].ID = 0
		ranges[i].ProductID = productID
		ranges[i].RetiredAt = nil
		ranges[i].CreatedAt = now
	}
	return r.db.Create(&ranges).Error
}
