package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type ctxKey string

// txKey carries the active *gorm.DB transaction through a unit of work
const txKey ctxKey = "gorm_tx"

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// conn returns the transaction bound to ctx, or db when none is active
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// inTx runs fn on the ambient transaction, opening one if ctx has none
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(tx.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(fn)
}

// SearchScope matches term case-insensitively against any of columns
func SearchScope(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + term + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = col + " ILIKE ?"
			args[i] = like
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// SortScope orders by sortBy when it is whitelisted, else by fallback DESC
func SortScope(sortBy, sortOrder, fallback string, allowed ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column := fallback
		for _, a := range allowed {
			if a == sortBy {
				column = sortBy
				break
			}
		}
		direction := "DESC"
		if strings.EqualFold(sortOrder, "asc") {
			direction = "ASC"
		}
		return db.Order(column + " " + direction)
	}
}
