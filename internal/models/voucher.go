package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher 预付优惠凭证（米数余额与免运费次数）
type Voucher struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                          // 主键
	Code               string          `gorm:"uniqueIndex;not null" json:"code"`                              // 凭证码
	Type               string          `gorm:"type:varchar(30);not null;index" json:"type"`                   // 凭证类型
	UserID             uint            `gorm:"index;not null" json:"user_id"`                                 // 持有用户ID
	InitialMeters      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"initial_meters"`   // 初始米数
	RemainingMeters    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"remaining_meters"` // 剩余米数
	InitialShipments   int             `gorm:"not null;default:0" json:"initial_shipments"`                   // 初始免运费次数
	RemainingShipments int             `gorm:"not null;default:0" json:"remaining_shipments"`                 // 剩余免运费次数
	DiscountPct        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_pct"`      // 折扣百分比（DISCOUNT_PERCENT）
	DiscountAmount     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 折扣金额（DISCOUNT_AMOUNT）
	UsageCount         int             `gorm:"not null;default:0" json:"usage_count"`                         // 已使用次数
	IsActive           bool            `gorm:"not null;default:true;index" json:"is_active"`                  // 是否可用
	ExpiresAt          *time.Time      `gorm:"index" json:"expires_at"`                                       // 过期时间
	GrantedBy          uint            `gorm:"not null;default:0" json:"granted_by"`                          // 发放管理员ID
	Note               string          `gorm:"type:varchar(500)" json:"note"`                                 // 备注
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt          time.Time       `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// VoucherRedemption 凭证核销流水（每次扣减追加一行）
//
// 报价单定价时扣减的行 order_id 为空，转单时补写 order_id；报价单取消或过期时写入 released_at 并退回余额。
type VoucherRedemption struct {
	ID         uint            `gorm:"primarykey" json:"id"`                                // 主键
	VoucherID  uint            `gorm:"index;not null" json:"voucher_id"`                    // 凭证ID
	OrderID    *uint           `gorm:"index" json:"order_id,omitempty"`                     // 关联订单ID
	QuoteID    *uint           `gorm:"index" json:"quote_id,omitempty"`                     // 关联报价单ID
	Meters     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"meters"` // 扣减米数
	Shipments  int             `gorm:"not null;default:0" json:"shipments"`                 // 扣减免运费次数
	ReleasedAt *time.Time      `gorm:"index" json:"released_at,omitempty"`                  // 报价单未成交时退回的时间
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`                             // 创建时间
}

// TableName 指定表名
func (VoucherRedemption) TableName() string {
	return "voucher_redemptions"
}
