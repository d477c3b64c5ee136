package service

import (
	"strings"
	"time"

	"github.com/printroll-next/internal/constants"
)

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCanceled:  true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusInProduction: true,
		constants.OrderStatusCanceled:     true,
	},
	constants.OrderStatusInProduction: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCompleted: true,
	},
}

func isTransitionAllowed(current, target string) bool {
	next, ok := allowedTransitions[strings.TrimSpace(current)]
	if !ok {
		return false
	}
	return next[strings.TrimSpace(target)]
}

// IsOrderStatusKnown 是否为已定义的订单状态
func IsOrderStatusKnown(status string) bool {
	switch strings.TrimSpace(status) {
	case constants.OrderStatusPendingPayment,
		constants.OrderStatusConfirmed,
		constants.OrderStatusInProduction,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
		constants.OrderStatusCanceled:
		return true
	}
	return false
}

// orderStatusUpdates 目标状态附带写入的字段
func orderStatusUpdates(paymentStatus, target string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch target {
	case constants.OrderStatusConfirmed:
		if paymentStatus != constants.OrderPaymentStatusPaid {
			updates["payment_status"] = constants.OrderPaymentStatusPaid
			updates["paid_at"] = now
		}
	case constants.OrderStatusShipped:
		updates["shipped_at"] = now
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
		if paymentStatus == constants.OrderPaymentStatusPaid {
			updates["payment_status"] = constants.OrderPaymentStatusRefunded
		}
	}
	return updates
}
