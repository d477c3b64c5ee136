package service

import (
	"strings"

	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"
)

// requireOrder 统一仓库层的查询结果：底层错误归为 ErrOrderFetchFailed，空结果归为 ErrOrderNotFound
func requireOrder(order *models.Order, err error) (*models.Order, error) {
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func normalizeOrderFilter(filter repository.OrderListFilter) repository.OrderListFilter {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.PaymentStatus = strings.ToLower(strings.TrimSpace(filter.PaymentStatus))
	filter.OrderNo = strings.ToUpper(strings.TrimSpace(filter.OrderNo))
	filter.CustomerEmail = strings.ToLower(strings.TrimSpace(filter.CustomerEmail))
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedTo.Before(*filter.CreatedFrom) {
		filter.CreatedFrom, filter.CreatedTo = filter.CreatedTo, filter.CreatedFrom
	}
	return filter
}

// GetOrderByUser 买家查看自己的订单
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	if orderID == 0 || userID == 0 {
		return nil, ErrOrderNotFound
	}
	return requireOrder(s.orderRepo.GetByIDAndUser(orderID, userID))
}

// GetOrderByUserOrderNo 买家按订单号查看订单
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	orderNo = strings.ToUpper(strings.TrimSpace(orderNo))
	if orderNo == "" || userID == 0 {
		return nil, ErrOrderNotFound
	}
	return requireOrder(s.orderRepo.GetByOrderNoAndUser(orderNo, userID))
}

// ListOrdersByUser 买家订单列表，始终限定在 filter.UserID 范围内
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return []models.Order{}, 0, nil
	}
	orders, total, err := s.orderRepo.ListByUser(normalizeOrderFilter(filter))
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(normalizeOrderFilter(filter))
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	return requireOrder(s.orderRepo.GetByID(orderID))
}
