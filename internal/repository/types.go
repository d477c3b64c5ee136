package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page        int
	PageSize    int
	Search      string
	OnlyActive  bool
	WithRanges  bool
	OnlyPrinted bool
}

// QuoteListFilter 查询报价单列表的过滤条件
type QuoteListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	CustomerEmail string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// VoucherListFilter 查询优惠凭证列表的过滤条件
type VoucherListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Type       string
	Code       string
	ActiveOnly bool
}

// PointTransactionListFilter 查询积分流水的过滤条件
type PointTransactionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Type     string
}

// CouponUsageListFilter 查询优惠券核销记录的过滤条件，零值字段不参与过滤
type CouponUsageListFilter struct {
	Page     int
	PageSize int
	CouponID uint
	UserID   uint
	OrderID  uint
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	LoyaltyTier   string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}
