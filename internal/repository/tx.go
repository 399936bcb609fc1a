package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager выполняет функцию в одной транзакции.
// Репозитории, вызванные с полученным контекстом, работают внутри неё.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txManager struct {
	db *gorm.DB
}

// NewTxManager создаёт менеджер транзакций
func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Вложенный вызов присоединяется к внешней транзакции
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// base - общая часть репозиториев
type base struct {
	db *gorm.DB
}

// conn возвращает транзакцию из контекста или общее подключение
func (b base) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return b.db.WithContext(ctx)
}
