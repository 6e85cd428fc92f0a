package repository

import (
	"context"

	"WaveChat/model"

	"gorm.io/gorm"
)

// userRepositoryImpl 用户数据访问层实现
type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &userRepositoryImpl{db: db}
}

// GetByUUID 根据UUID查询用户
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		Take(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// GetByEmail 根据邮箱查询用户
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Take(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// UpdateMessageSettings 更新私信相关开关位
func (r *userRepositoryImpl) UpdateMessageSettings(ctx context.Context, uuid string, private, allowsAllMessages, allowsReceipts bool) error {
	// 开关位未变化时 MySQL 返回 RowsAffected=0，因此不能以行数判定存在性，
	// 存在性由 service 层先行 GetByUUID 保证。
	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"private":             private,
			"allows_all_messages": allowsAllMessages,
			"allows_receipts":     allowsReceipts,
		}).Error
	if err != nil {
		return WrapDBError(err)
	}
	return nil
}
