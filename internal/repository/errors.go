package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrConcurrencyConflict 乐观并发冲突: 行版本已过期
	// 不在仓储层重试,由调用方提示用户手工合并
	ErrConcurrencyConflict = errors.New("concurrency conflict: record was modified by another request")
)

// translate 将 gorm 错误翻译为仓储层哨兵错误
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
