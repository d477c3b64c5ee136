package models

import "time"

// OrderStatusHistory 订单状态流转记录（仅追加）
type OrderStatusHistory struct {
	ID         uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`              // 订单ID
	FromStatus string    `gorm:"type:varchar(30)" json:"from_status"`         // 原状态（首条记录为空）
	ToStatus   string    `gorm:"type:varchar(30);not null" json:"to_status"`  // 新状态
	ActorType  string    `gorm:"type:varchar(20);not null" json:"actor_type"` // 操作人类型
	ActorID    uint      `gorm:"not null;default:0" json:"actor_id"`          // 操作人ID
	Note       string    `gorm:"type:varchar(500)" json:"note"`               // 备注
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
