package service

import (
	"github.com/printroll-next/internal/constants"
)

// Actor 操作人
type Actor struct {
	Type string
	ID   uint
}

// SystemActor 系统任务操作人
func SystemActor() Actor {
	return Actor{Type: constants.ActorTypeSystem}
}

// AdminActor 管理员操作人
func AdminActor(id uint) Actor {
	return Actor{Type: constants.ActorTypeAdmin, ID: id}
}

func (a Actor) normalized() Actor {
	if a.Type == "" {
		a.Type = constants.ActorTypeSystem
	}
	return a
}

// quoteTransitions 报价单允许的状态流转；同状态流转表示重新定价或重新发送支付信息
var quoteTransitions = map[string]map[string]bool{
	constants.QuoteStatusPendingReview: {
		constants.QuoteStatusQuoted:    true,
		constants.QuoteStatusCancelled: true,
		constants.QuoteStatusExpired:   true,
	},
	constants.QuoteStatusQuoted: {
		constants.QuoteStatusQuoted:      true,
		constants.QuoteStatusPaymentSent: true,
		constants.QuoteStatusPaid:        true,
		constants.QuoteStatusConverted:   true,
		constants.QuoteStatusCancelled:   true,
		constants.QuoteStatusExpired:     true,
	},
	constants.QuoteStatusPaymentSent: {
		constants.QuoteStatusPaymentSent: true,
		constants.QuoteStatusPaid:        true,
		constants.QuoteStatusCancelled:   true,
		constants.QuoteStatusExpired:     true,
	},
	constants.QuoteStatusPaid: {
		constants.QuoteStatusConverted: true,
	},
}

func isQuoteTransitionAllowed(from, to string) bool {
	next, ok := quoteTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsQuoteTerminal 是否为终态
func IsQuoteTerminal(status string) bool {
	switch status {
	case constants.QuoteStatusConverted, constants.QuoteStatusCancelled, constants.QuoteStatusExpired:
		return true
	default:
		return false
	}
}
