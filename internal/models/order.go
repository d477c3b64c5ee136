package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 订单表（创建后仅允许变更状态与物流信息）
type Order struct {
	ID               uint            `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo          string          `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID           *uint           `gorm:"index" json:"user_id,omitempty"`                               // 用户ID（游客订单为空）
	CustomerName     string          `gorm:"type:varchar(200)" json:"customer_name"`                       // 联系人
	CustomerEmail    string          `gorm:"type:varchar(200);index" json:"customer_email"`                // 联系邮箱
	CustomerPhone    string          `gorm:"type:varchar(50)" json:"customer_phone"`                       // 联系电话
	ShippingAddress  string          `gorm:"type:text" json:"shipping_address"`                            // 收货地址
	ShippingCity     string          `gorm:"type:varchar(100)" json:"shipping_city"`                       // 城市
	ShippingPostal   string          `gorm:"type:varchar(20)" json:"shipping_postal_code"`                 // 邮编
	ShippingMethod   string          `gorm:"type:varchar(20)" json:"shipping_method"`                      // 配送方式
	TrackingNumber   string          `gorm:"type:varchar(100)" json:"tracking_number"`                     // 物流单号
	Status           string          `gorm:"index;not null" json:"status"`                                 // 订单状态
	PaymentStatus    string          `gorm:"type:varchar(20);index;not null" json:"payment_status"`        // 支付状态
	PaymentMethod    string          `gorm:"type:varchar(20)" json:"payment_method"`                       // 支付方式
	PaymentReference string          `gorm:"type:varchar(200);index" json:"payment_reference"`             // 支付参考号（网关会话或线下流水）
	PaymentLinkURL   string          `gorm:"type:varchar(1000)" json:"payment_link_url"`                   // 支付链接
	Currency         string          `gorm:"not null" json:"currency"`                                     // 币种
	Meters           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"meters"`          // 印刷米数
	PricePerMeter    Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price_per_meter"` // 每米单价
	Subtotal         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DiscountAmount   Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额（已从小计扣除）
	ExtrasAmount     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"extras_amount"`   // 附加服务金额
	TaxAmount        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税额
	ShippingCost     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`   // 运费
	TotalAmount      Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	TaxExempt        bool            `gorm:"not null;default:false" json:"tax_exempt"`                     // 是否免税
	CompanyName      string          `gorm:"type:varchar(200)" json:"company_name"`                        // 公司名称
	TaxID            string          `gorm:"type:varchar(50)" json:"tax_id"`                               // 税号
	DesignFileURL    string          `gorm:"type:varchar(1000)" json:"design_file_url"`                    // 设计文件地址
	InvoiceURL       string          `gorm:"type:varchar(1000)" json:"invoice_url"`                        // 发票地址
	CouponID         *uint           `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠券ID
	VoucherID        *uint           `gorm:"index" json:"voucher_id,omitempty"`                            // 优惠凭证ID
	PointsRedeemed   int64           `gorm:"not null;default:0" json:"points_redeemed"`                    // 抵扣积分
	PointsEarned     int64           `gorm:"not null;default:0" json:"points_earned"`                      // 获得积分
	SourceNote       string          `gorm:"type:varchar(255)" json:"source_note"`                         // 来源说明（如 Quote Q-2026-0001）
	PaidAt           *time.Time      `gorm:"index" json:"paid_at"`                                         // 支付时间
	ShippedAt        *time.Time      `json:"shipped_at"`                                                   // 发货时间
	CanceledAt       *time.Time      `gorm:"index" json:"canceled_at"`                                     // 取消时间
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt        time.Time       `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`                                               // 软删除时间

	Items   []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`   // 订单项
	History []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"` // 状态流转记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
