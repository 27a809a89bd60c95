package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrRecordExists 唯一约束冲突：并发创建时的失败方
var ErrRecordExists = errors.New("记录已存在")

// TranslateDuplicate 将唯一约束冲突统一为 ErrRecordExists，其余错误原样返回
func TranslateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRecordExists
	}
	return err
}
