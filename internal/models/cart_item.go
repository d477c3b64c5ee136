package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem 购物车项（按米购买的印刷品及附加服务）
type CartItem struct {
	ID            uint            `gorm:"primarykey" json:"id"`                        // 主键
	UserID        uint            `gorm:"index;not null" json:"user_id"`               // 用户ID
	ProductID     uint            `gorm:"index;not null" json:"product_id"`            // 商品ID
	Meters        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"meters"`   // 米数
	NeedsCutting  bool            `gorm:"not null;default:false" json:"needs_cutting"` // 是否需要裁切
	NeedsLayout   bool            `gorm:"not null;default:false" json:"needs_layout"`  // 是否需要排版
	IsPriority    bool            `gorm:"not null;default:false" json:"is_priority"`   // 是否加急
	DesignFileURL string          `gorm:"type:varchar(1000)" json:"design_file_url"`   // 设计文件地址
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt     time.Time       `gorm:"index" json:"updated_at"`                     // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品信息
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
