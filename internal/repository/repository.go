package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/db"
)

// conn возвращает транзакцию из контекста, если она открыта, иначе пул.
func conn(ctx context.Context, pool *gorm.DB) *gorm.DB {
	return db.Conn(ctx, pool)
}

// forUpdate добавляет SELECT ... FOR UPDATE.
func forUpdate(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}
