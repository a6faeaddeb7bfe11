package bom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrItemNotFound 根品目或引用的品目不存在
	ErrItemNotFound = errors.New("item not found")
	// ErrStorageUnavailable 底层存储读取失败（可重试）
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidMaxDepth maxDepth 必须为正数，不提供"无限"默认值
	ErrInvalidMaxDepth = errors.New("max depth must be positive")
)

// CycleError 环路校验失败。Path 为重建的环路路径，首尾为同一品目ID。
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("bom cycle detected: %s", strings.Join(e.Path, " -> "))
}
