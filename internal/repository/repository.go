// Package repository 基于 gorm 的存储实现，sqlite 与 postgres 通用。
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict 条件更新未命中，记录已不在预期状态
	ErrStateConflict = errors.New("record state conflict")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
