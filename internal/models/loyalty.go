package models

import (
	"time"
)

// LoyaltyPoints 用户积分账户
type LoyaltyPoints struct {
	ID              uint      `gorm:"primarykey" json:"id"`                       // 主键
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`        // 用户ID
	TotalPoints     int64     `gorm:"not null;default:0" json:"total_points"`     // 当前总积分
	AvailablePoints int64     `gorm:"not null;default:0" json:"available_points"` // 可用积分
	LifetimePoints  int64     `gorm:"not null;default:0" json:"lifetime_points"`  // 累计获得积分
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt       time.Time `gorm:"index" json:"updated_at"`                    // 更新时间
}

// TableName 指定表名
func (LoyaltyPoints) TableName() string {
	return "loyalty_points"
}

// PointTransaction 积分流水（仅追加）
type PointTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // 主键
	UserID      uint      `gorm:"index;not null" json:"user_id"`               // 用户ID
	Type        string    `gorm:"type:varchar(20);not null;index" json:"type"` // 流水类型（earned/redeemed/refunded）
	Amount      int64     `gorm:"not null" json:"amount"`                      // 积分数量
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"`             // 关联订单ID
	Description string    `gorm:"type:varchar(255)" json:"description"`        // 描述
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (PointTransaction) TableName() string {
	return "point_transactions"
}
