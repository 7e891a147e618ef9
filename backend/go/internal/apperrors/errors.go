package apperrors

import (
	"errors"
	"fmt"
)

// 本包定义核心操作对外暴露的稳定错误种类。所有校验类错误在任何写入发生之前
// 返回；批量操作按 id 隔离失败，逐条报告。调用方通过 errors.Is 或 Kind
// 判断种类，通过 %w 包装保留上下文。
var (
	// ErrNotFound 表示 id 无法解析为一个属于调用者的、未删除的实体。
	ErrNotFound = errors.New("not found")

	// ErrNameConflict 表示显式重命名与同级未删除节点的名称冲突。
	ErrNameConflict = errors.New("name conflict")

	// ErrCycle 表示移动操作会使文档成为自身的祖先。
	ErrCycle = errors.New("cycle detected")

	// ErrCrossOwner 表示一次操作跨越了两个不同的用户。
	ErrCrossOwner = errors.New("cross owner")

	// ErrStorage 表示对象存储调用失败。
	ErrStorage = errors.New("storage failure")

	// ErrPersistence 表示关系存储的事务调用失败。
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundf 返回一条带上下文的 ErrNotFound。
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// NameConflictf 返回一条带上下文的 ErrNameConflict。
func NameConflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNameConflict)...)
}

// Cyclef 返回一条带上下文的 ErrCycle。
func Cyclef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrCycle)...)
}

// CrossOwnerf 返回一条带上下文的 ErrCrossOwner。
func CrossOwnerf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrCrossOwner)...)
}

// Storagef 包装一条对象存储错误。
func Storagef(err error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %v: %w", append(args, err, ErrStorage)...)
}

// Persistencef 包装一条关系存储错误。
func Persistencef(err error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %v: %w", append(args, err, ErrPersistence)...)
}

// Kind 返回错误对应的稳定种类标签；未知错误返回 "internal"。
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNameConflict):
		return "name_conflict"
	case errors.Is(err, ErrCycle):
		return "cycle"
	case errors.Is(err, ErrCrossOwner):
		return "cross_owner"
	case errors.Is(err, ErrStorage):
		return "storage_failure"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "internal"
	}
}
