package repository

import "gorm.io/gorm"

// 单页上限，防止后台导出式查询一次拉全表
const maxPageSize = 200

// applyPagination 按页码截取结果；pageSize<=0 表示不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
