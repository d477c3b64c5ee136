package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRange 阶梯价区间（创建后不可修改，改价时写入新行并退役旧行）
type PriceRange struct {
	ID          uint                `gorm:"primarykey" json:"id"`                               // 主键
	ProductID   uint                `gorm:"index;not null" json:"product_id"`                   // 商品ID
	FromQty     decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"from_qty"`        // 区间起始数量（含）
	ToQty       decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"to_qty"`                   // 区间结束数量（含，空表示无上限）
	Price       Money               `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	DiscountPct decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount_pct"`              // 展示用折扣百分比
	RetiredAt   *time.Time          `gorm:"index" json:"retired_at,omitempty"`                  // 退役时间（空表示当前生效）
	CreatedAt   time.Time           `gorm:"index" json:"created_at"`                            // 创建时间
}

// TableName 指定表名
func (PriceRange) TableName() string {
	return "price_ranges"
}
