package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（按米计价的印刷品）
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Slug           string         `gorm:"uniqueIndex;not null" json:"slug"`                      // 唯一标识
	Name           string         `gorm:"type:varchar(200);not null" json:"name"`                // 名称
	Description    string         `gorm:"type:text" json:"description"`                          // 描述
	Unit           string         `gorm:"type:varchar(20);not null;default:'meter'" json:"unit"` // 计量单位
	Images         StringArray    `gorm:"type:json" json:"images"`                               // 图片数组
	IsPrintProduct bool           `gorm:"not null;default:false;index" json:"is_print_product"`  // 是否为报价转单使用的标准印刷商品
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`                   // 是否上架
	SortOrder      int            `gorm:"default:0;index" json:"sort_order"`                     // 排序权重
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	// 关联
	PriceRanges []PriceRange `gorm:"foreignKey:ProductID" json:"price_ranges,omitempty"` // 当前生效的阶梯价
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
