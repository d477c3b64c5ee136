package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quote 报价单（客户提交需求，管理员定价后支付并转为订单）
type Quote struct {
	ID                   uint                `gorm:"primarykey" json:"id"`                                             // 主键
	QuoteNumber          string              `gorm:"uniqueIndex;not null" json:"quote_number"`                         // 报价单号（按年递增，如 Q-2026-0001）
	Status               string              `gorm:"index;not null" json:"status"`                                     // 报价单状态
	UserID               *uint               `gorm:"index" json:"user_id,omitempty"`                                   // 用户ID（游客为空）
	CustomerName         string              `gorm:"type:varchar(200);not null" json:"customer_name"`                  // 联系人
	CustomerEmail        string              `gorm:"type:varchar(200);index;not null" json:"customer_email"`           // 联系邮箱
	CustomerPhone        string              `gorm:"type:varchar(50)" json:"customer_phone"`                           // 联系电话
	ShippingAddress      string              `gorm:"type:text" json:"shipping_address"`                                // 收货地址
	ShippingCity         string              `gorm:"type:varchar(100)" json:"shipping_city"`                           // 城市
	ShippingPostal       string              `gorm:"type:varchar(20)" json:"shipping_postal_code"`                     // 邮编
	CompanyName          string              `gorm:"type:varchar(200)" json:"company_name"`                            // 公司名称
	TaxID                string              `gorm:"type:varchar(50)" json:"tax_id"`                                   // 税号
	TaxExempt            bool                `gorm:"not null;default:false" json:"tax_exempt"`                         // 是否免税
	Description          string              `gorm:"type:text" json:"description"`                                     // 客户需求描述
	DesignFileURL        string              `gorm:"type:varchar(1000)" json:"design_file_url"`                        // 设计文件地址
	EstimatedMeters      decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"estimated_meters"`                       // 预估米数（定价后写入）
	PricePerMeter        *Money              `gorm:"type:decimal(20,2)" json:"price_per_meter"`                        // 每米单价
	Subtotal             *Money              `gorm:"type:decimal(20,2)" json:"subtotal"`                               // 商品小计（含附加服务）
	DiscountAmount       Money               `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`     // 阶梯折扣金额（仅展示，不计入合计）
	ExtrasAmount         Money               `gorm:"type:decimal(20,2);not null;default:0" json:"extras_amount"`       // 附加服务金额
	TaxAmount            *Money              `gorm:"type:decimal(20,2)" json:"tax_amount"`                             // 税额
	ShippingCost         *Money              `gorm:"type:decimal(20,2)" json:"shipping_cost"`                          // 运费
	EstimatedTotal       *Money              `gorm:"type:decimal(20,2)" json:"estimated_total"`                        // 预估合计
	NeedsCutting         bool                `gorm:"not null;default:false" json:"needs_cutting"`                      // 是否需要裁切
	NeedsLayout          bool                `gorm:"not null;default:false" json:"needs_layout"`                       // 是否需要排版
	IsPriority           bool                `gorm:"not null;default:false" json:"is_priority"`                        // 是否加急
	ShippingMethod       string              `gorm:"type:varchar(20)" json:"shipping_method"`                          // 配送方式
	PaymentMethod        string              `gorm:"type:varchar(20)" json:"payment_method"`                           // 支付方式
	PaymentLinkURL       string              `gorm:"type:varchar(1000)" json:"payment_link_url"`                       // 支付链接
	PaymentReference     string              `gorm:"type:varchar(200);index" json:"payment_reference"`                 // 支付参考号（网关会话或 Bizum 流水）
	VoucherID            *uint               `gorm:"index" json:"voucher_id,omitempty"`                                // 使用的优惠凭证ID
	MetersFromVoucher    decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0" json:"meters_from_voucher"` // 凭证抵扣米数
	ShipmentsFromVoucher int                 `gorm:"not null;default:0" json:"shipments_from_voucher"`                 // 凭证抵扣免运费次数
	OrderID              *uint               `gorm:"uniqueIndex" json:"order_id,omitempty"`                            // 转单后的订单ID（仅可写入一次）
	AdminNote            string              `gorm:"type:text" json:"admin_note"`                                      // 管理员备注
	CancelReason         string              `gorm:"type:varchar(500)" json:"cancel_reason"`                           // 取消原因
	QuotedAt             *time.Time          `json:"quoted_at"`                                                        // 定价时间
	PaidAt               *time.Time          `gorm:"index" json:"paid_at"`                                             // 支付时间
	ConvertedAt          *time.Time          `json:"converted_at"`                                                     // 转单时间
	CancelledAt          *time.Time          `json:"cancelled_at"`                                                     // 取消时间
	ExpiresAt            time.Time           `gorm:"index;not null" json:"expires_at"`                                 // 过期时间
	CreatedAt            time.Time           `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt            time.Time           `gorm:"index" json:"updated_at"`                                          // 更新时间
	DeletedAt            gorm.DeletedAt      `gorm:"index" json:"-"`                                                   // 软删除时间
}

// TableName 指定表名
func (Quote) TableName() string {
	return "quotes"
}

// IsConverted 是否已转为订单
func (q *Quote) IsConverted() bool {
	return q != nil && q.OrderID != nil && *q.OrderID > 0
}
