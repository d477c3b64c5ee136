package pricing

import (
	"github.com/printroll-next/internal/constants"

	"github.com/shopspring/decimal"
)

type legacyExtrasRow struct {
	priority string
	layout   string
	cutting  string
}

// legacyExtrasTable v1 逐米价目表，下标为米数减一
var legacyExtrasTable = [...]legacyExtrasRow{
	{priority: "5.00", layout: "12.00", cutting: "6.50"},   // 1m
	{priority: "5.00", layout: "12.00", cutting: "7.00"},   // 2m
	{priority: "5.00", layout: "12.00", cutting: "7.50"},   // 3m
	{priority: "20.00", layout: "12.00", cutting: "8.00"},  // 4m
	{priority: "20.00", layout: "12.00", cutting: "8.50"},  // 5m
	{priority: "20.00", layout: "12.00", cutting: "9.00"},  // 6m
	{priority: "20.00", layout: "12.00", cutting: "9.50"},  // 7m
	{priority: "20.00", layout: "12.00", cutting: "10.00"}, // 8m
	{priority: "20.00", layout: "12.00", cutting: "10.50"}, // 9m
	{priority: "35.00", layout: "12.00", cutting: "11.00"}, // 10m
	{priority: "35.00", layout: "15.00", cutting: "11.50"}, // 11m
	{priority: "35.00", layout: "15.00", cutting: "12.00"}, // 12m
	{priority: "35.00", layout: "15.00", cutting: "12.50"}, // 13m
	{priority: "35.00", layout: "15.00", cutting: "13.00"}, // 14m
	{priority: "35.00", layout: "15.00", cutting: "13.50"}, // 15m
	{priority: "35.00", layout: "15.00", cutting: "14.00"}, // 16m
	{priority: "35.00", layout: "15.00", cutting: "14.50"}, // 17m
	{priority: "35.00", layout: "15.00", cutting: "15.00"}, // 18m
	{priority: "35.00", layout: "15.00", cutting: "15.50"}, // 19m
	{priority: "50.00", layout: "15.00", cutting: "16.00"}, // 20m
	{priority: "50.00", layout: "15.00", cutting: "16.50"}, // 21m
	{priority: "50.00", layout: "15.00", cutting: "17.00"}, // 22m
	{priority: "50.00", layout: "15.00", cutting: "17.50"}, // 23m
	{priority: "50.00", layout: "15.00", cutting: "18.00"}, // 24m
	{priority: "50.00", layout: "15.00", cutting: "18.50"}, // 25m
	{priority: "50.00", layout: "15.00", cutting: "19.00"}, // 26m
	{priority: "50.00", layout: "15.00", cutting: "19.50"}, // 27m
	{priority: "50.00", layout: "15.00", cutting: "20.00"}, // 28m
	{priority: "50.00", layout: "15.00", cutting: "20.50"}, // 29m
	{priority: "60.00", layout: "15.00", cutting: "21.00"}, // 30m
	{priority: "60.00", layout: "20.00", cutting: "21.50"}, // 31m
	{priority: "60.00", layout: "20.00", cutting: "22.00"}, // 32m
	{priority: "60.00", layout: "20.00", cutting: "22.50"}, // 33m
	{priority: "60.00", layout: "20.00", cutting: "23.00"}, // 34m
	{priority: "60.00", layout: "20.00", cutting: "23.50"}, // 35m
	{priority: "60.00", layout: "20.00", cutting: "24.00"}, // 36m
	{priority: "60.00", layout: "20.00", cutting: "24.50"}, // 37m
	{priority: "60.00", layout: "20.00", cutting: "25.00"}, // 38m
	{priority: "60.00", layout: "20.00", cutting: "25.50"}, // 39m
	{priority: "75.00", layout: "20.00", cutting: "26.00"}, // 40m
	{priority: "75.00", layout: "20.00", cutting: "26.50"}, // 41m
	{priority: "75.00", layout: "20.00", cutting: "27.00"}, // 42m
	{priority: "75.00", layout: "20.00", cutting: "27.50"}, // 43m
	{priority: "75.00", layout: "20.00", cutting: "28.00"}, // 44m
	{priority: "75.00", layout: "20.00", cutting: "28.50"}, // 45m
	{priority: "75.00", layout: "20.00", cutting: "29.00"}, // 46m
	{priority: "75.00", layout: "20.00", cutting: "29.50"}, // 47m
	{priority: "75.00", layout: "20.00", cutting: "30.00"}, // 48m
	{priority: "75.00", layout: "20.00", cutting: "30.50"}, // 49m
	{priority: "75.00", layout: "20.00", cutting: "31.00"}, // 50m
}

// LegacyTablePolicy v1 价目表定价，仅在配置 pricing.extras_policy_version=v1-table 时启用
//
// 数量向下取整后查表，超过 50 米按第 50 行计价，不足 1 米按第 1 行计价。
type LegacyTablePolicy struct{}

// Version 版本号
func (LegacyTablePolicy) Version() string {
	return constants.ExtrasPolicyLegacyTable
}

// Price 计算附加服务费用
func (p LegacyTablePolicy) Price(quantity decimal.Decimal, selection Selection) (Extras, error) {
	if !quantity.IsPositive() {
		return Extras{}, ErrInvalidQuantity
	}
	row := legacyExtrasTable[legacyRowIndex(quantity)]
	result := Extras{
		Version:  p.Version(),
		Priority: decimal.Zero,
		Layout:   decimal.Zero,
		Cutting:  decimal.Zero,
	}
	if selection.Priority {
		result.Priority = decimal.RequireFromString(row.priority)
	}
	if selection.Layout {
		result.Layout = decimal.RequireFromString(row.layout)
	}
	if selection.Cutting {
		result.Cutting = decimal.RequireFromString(row.cutting)
	}
	result.Total = result.Priority.Add(result.Layout).Add(result.Cutting)
	return result, nil
}

func legacyRowIndex(quantity decimal.Decimal) int {
	meters := quantity.Floor().IntPart()
	if meters < 1 {
		meters = 1
	}
	if meters > int64(len(legacyExtrasTable)) {
		meters = int64(len(legacyExtrasTable))
	}
	return int(meters) - 1
}
