package database

import (
	"fmt"
	"strings"

	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/gorm"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Contains matches rows where any of columns contains term. Column names
// must come from code, never from the request.
func Contains(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(columns) == 0 {
			return db
		}
		pattern := "%" + term + "%"
		conditions := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, column := range columns {
			conditions[i] = fmt.Sprintf("%s LIKE ?", column)
			args[i] = pattern
		}
		return db.Where(strings.Join(conditions, " OR "), args...)
	}
}

// NewestActivityFirst orders task activities from the latest to the earliest.
// Entries written in the same instant fall back to insertion order.
func NewestActivityFirst(db *gorm.DB) *gorm.DB {
	return db.Order("activity_time_stamp DESC").Order("id DESC")
}
